package ai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPipelineOrder(t *testing.T) {
	assert.Equal(t,
		[]string{"strip_code_fences", "normalize_hebrew_ltd", "escape_control_characters"},
		DefaultPipeline().Names())
}

func TestStripCodeFences(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":\"b\"}\n```": `{"a":"b"}`,
		"```\n{\"a\":\"b\"}\n```":     `{"a":"b"}`,
		"  {\"a\":\"b\"}  ":           `{"a":"b"}`,
		"```JSON{\"a\":1}```":         `{"a":1}`,
	}
	for in, want := range cases {
		assert.Equal(t, want, StripCodeFences(in), "input %q", in)
	}
}

func TestNormalizeHebrewLtd(t *testing.T) {
	assert.Equal(t, "סונול ישראל בע״מ", NormalizeHebrewLtd(`סונול ישראל בע"מ`))
	assert.Equal(t, "plain text", NormalizeHebrewLtd("plain text"))
	assert.Equal(t, `"בע״מ","בע״מ"`, NormalizeHebrewLtd(`"בע"מ","בע"מ"`))
}

func TestEscapeControlCharacters(t *testing.T) {
	in := "{\n  \"a\": \"line1\nline2\tend\x01\",\n  \"b\": \"already\\nescaped \\\"quoted\\\"\",\n  \"c\": \"C:\\ path\"\n}"
	out := EscapeControlCharacters(in)

	var decoded map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &decoded), out)
	assert.Equal(t, "line1\nline2\tend\x01", decoded["a"])
	assert.Equal(t, "already\nescaped \"quoted\"", decoded["b"])
	assert.Equal(t, `C:\ path`, decoded["c"])
}

func TestEscapeControlCharactersLeavesValidJSONAlone(t *testing.T) {
	valid := `{"driverName":"יוסי","n":"1\/2"}`
	assert.Equal(t, valid, EscapeControlCharacters(valid))
}
