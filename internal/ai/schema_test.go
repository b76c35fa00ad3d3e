package ai

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeliveryDocumentSchema(t *testing.T) {
	schema := DeliveryDocumentSchema()
	require.NoError(t, schema.Validate())
	assert.Equal(t, []string{
		"deliveryDate", "driverName", "supplierName", "deliveryDocumentNumber",
		"documentDate", "minTemperature", "maxTemperature",
	}, schema.Names())
	assert.True(t, schema.Has("driverName"))
	assert.False(t, schema.Has("vehicleNumber"))
}

func TestSchemaValidate(t *testing.T) {
	assert.Error(t, FieldSchema{}.Validate())
	assert.Error(t, FieldSchema{Fields: []FieldSpec{{Name: " "}}}.Validate())
	assert.Error(t, FieldSchema{Fields: []FieldSpec{{Name: "a"}, {Name: "a"}}}.Validate())
}

func TestLoadSchemaFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	content := `document: fuel invoice
fields:
  - name: invoiceNumber
    format: number
    description: "Invoice number: top right corner"
  - name: total
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	schema, err := LoadSchemaFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fuel invoice", schema.Document)
	assert.Equal(t, []string{"invoiceNumber", "total"}, schema.Names())

	prompt := RenderDocumentPrompt(schema)
	assert.Contains(t, prompt, `"invoiceNumber": "number"`)
	assert.Contains(t, prompt, `"total": "total"`)
	assert.Contains(t, prompt, "- Invoice number: top right corner")
}

func TestLoadSchemaFileErrors(t *testing.T) {
	_, err := LoadSchemaFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: x\nfields: []\n"), 0o600))
	_, err = LoadSchemaFile(path)
	assert.Error(t, err)
}
