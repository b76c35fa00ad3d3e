// document_parser.go - Multi-field extraction from delivery documents

package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/bosocmputer/fleet_capture_ocr/internal/common"
)

// DocumentResult holds what the model returned for a document
type DocumentResult struct {
	Parsed  map[string]string // exactly the keys present in the reply
	Raw     string            // reply text as received
	Cleaned string            // reply text after the normalization pipeline
	Schema  FieldSchema
}

// Fields returns every schema field, with "" for fields the reply omitted.
// Keys outside the schema are not included.
func (r *DocumentResult) Fields() map[string]string {
	fields := make(map[string]string, len(r.Schema.Fields))
	for _, f := range r.Schema.Fields {
		fields[f.Name] = r.Parsed[f.Name]
	}
	return fields
}

// Unknown lists reply keys that are not schema fields, sorted
func (r *DocumentResult) Unknown() []string {
	var unknown []string
	for k := range r.Parsed {
		if !r.Schema.Has(k) {
			unknown = append(unknown, k)
		}
	}
	sort.Strings(unknown)
	return unknown
}

// DocumentParser reads every field of a schema off a document photo in one call
type DocumentParser struct {
	provider Provider
	opts     Options
	pipeline Pipeline
}

// NewDocumentParser creates a parser using DefaultPipeline. Zero option values fall back
// to 500 tokens at temperature 0.1.
func NewDocumentParser(provider Provider, opts Options) *DocumentParser {
	return &DocumentParser{
		provider: provider,
		opts:     opts.withDefaults(500),
		pipeline: DefaultPipeline(),
	}
}

// Parse extracts schema's fields from image
func (d *DocumentParser) Parse(ctx context.Context, image, credential string, schema FieldSchema) (*DocumentResult, error) {
	const op = "parse_document"

	if err := checkCredential(op, credential, d.opts.RequireKeyPrefix); err != nil {
		return nil, err
	}

	reqCtx := common.FromContext(ctx)
	reqCtx.StartStep("parse_document")

	reqCtx.StartSubStep("build_prompt")
	instruction := RenderDocumentPrompt(schema)
	reqCtx.EndSubStep(fmt.Sprintf("%d fields", len(schema.Fields)))

	result, err := complete(ctx, d.provider, d.opts, credential, CompletionRequest{
		Instruction: instruction,
		ImageURL:    image,
		MaxTokens:   d.opts.MaxTokens,
		Temperature: d.opts.Temperature,
	})
	if err != nil {
		reqCtx.EndStep("failed", nil, err)
		return nil, wrapError(KindExtractionFailed, op, UserFacingMessage(err), err)
	}

	parsed, err := d.ParseReply(result.Content, schema)
	if err != nil {
		reqCtx.LogWarning("Failed to parse reply. Raw: %s", preview(result.Content, 500))
		reqCtx.EndStep("failed", result.Usage, err)
		return nil, err
	}

	if unknown := parsed.Unknown(); len(unknown) > 0 {
		reqCtx.LogWarning("Reply contained fields outside the schema: %v", unknown)
	}
	reqCtx.EndStep("success", result.Usage, nil)

	return parsed, nil
}

// ParseReply runs the normalization pipeline over raw and decodes the JSON object it contains
func (d *DocumentParser) ParseReply(raw string, schema FieldSchema) (*DocumentResult, error) {
	const op = "parse_reply"

	cleaned := d.pipeline.Run(raw)

	parsed, err := decodeObject(cleaned)
	if err != nil {
		return nil, &Error{
			Kind:    KindMalformedExtraction,
			Op:      op,
			Message: "The document could not be read. Reply: " + raw,
			Raw:     raw,
			Cause:   err,
		}
	}

	return &DocumentResult{
		Parsed:  parsed,
		Raw:     raw,
		Cleaned: cleaned,
		Schema:  schema,
	}, nil
}

// decodeObject decodes a single JSON object and renders every value as text
func decodeObject(s string) (map[string]string, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("reply is not a JSON object")
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("unexpected content after JSON object")
	}

	out := make(map[string]string, len(obj))
	for k, v := range obj {
		out[k] = renderValue(v)
	}
	return out, nil
}

func renderValue(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(b)
	}
}

func preview(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "... (truncated)"
}
