// schema.go - Declarative field schema for multi-field documents

package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FieldSpec describes one field the model should read from a document
type FieldSpec struct {
	Name        string `yaml:"name" json:"name"`
	Format      string `yaml:"format" json:"format"`           // placeholder shown in the JSON template
	Description string `yaml:"description" json:"description"` // hint listed under "Look for:"
}

// FieldSchema is an ordered list of fields plus the kind of document they come from
type FieldSchema struct {
	Document string      `yaml:"document" json:"document"`
	Fields   []FieldSpec `yaml:"fields" json:"fields"`
}

// Names returns the field names in schema order
func (s FieldSchema) Names() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Has reports whether name is a field of the schema
func (s FieldSchema) Has(name string) bool {
	for _, f := range s.Fields {
		if f.Name == name {
			return true
		}
	}
	return false
}

// Validate checks that the schema has at least one field and no duplicate or empty names
func (s FieldSchema) Validate() error {
	if len(s.Fields) == 0 {
		return fmt.Errorf("schema has no fields")
	}
	seen := make(map[string]bool, len(s.Fields))
	for i, f := range s.Fields {
		if strings.TrimSpace(f.Name) == "" {
			return fmt.Errorf("field %d has no name", i)
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate field %q", f.Name)
		}
		seen[f.Name] = true
	}
	return nil
}

// DeliveryDocumentSchema is the built-in schema for Hebrew fuel delivery documents
func DeliveryDocumentSchema() FieldSchema {
	return FieldSchema{
		Document: "Hebrew delivery document",
		Fields: []FieldSpec{
			{Name: "deliveryDate", Format: "DD/MM/YYYY", Description: "Delivery date (תאריך אספקה): The delivery date"},
			{Name: "driverName", Format: "driver name", Description: `Driver name: Look for the driver's name (like "יוסי רוטברג"), not other names`},
			{Name: "supplierName", Format: "supplier name", Description: `Supplier name: Find the company name at the top of the document (like "סונול ישראל בע"מ")`},
			{Name: "deliveryDocumentNumber", Format: "document number", Description: "Delivery document number: Find the document number in the middle-top area of the document (not numbers like 303913968)"},
			{Name: "documentDate", Format: "DD/MM/YYYY", Description: "Document date (תאריך תעודת המשלוח): The document creation date"},
			{Name: "minTemperature", Format: "min temp", Description: `Minimum temperature: Find the "טמפ' במילוי" table and extract the LOWEST temperature value`},
			{Name: "maxTemperature", Format: "max temp", Description: `Maximum temperature: Find the "טמפ' במילוי" table and extract the HIGHEST temperature value`},
		},
	}
}

// LoadSchemaFile reads a FieldSchema from a YAML file
func LoadSchemaFile(path string) (FieldSchema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return FieldSchema{}, fmt.Errorf("failed to read schema file: %w", err)
	}

	var schema FieldSchema
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return FieldSchema{}, fmt.Errorf("failed to parse schema file %s: %w", path, err)
	}
	if err := schema.Validate(); err != nil {
		return FieldSchema{}, fmt.Errorf("invalid schema file %s: %w", path, err)
	}
	if schema.Document == "" {
		schema.Document = "document"
	}
	return schema, nil
}

// RenderDocumentPrompt builds the extraction instruction for schema.
// Every field appears in the JSON template and, when it has a description, in the "Look for:" list.
func RenderDocumentPrompt(schema FieldSchema) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Extract the following information from this %s and return ONLY valid JSON in this exact format:\n", schema.Document)
	b.WriteString("{\n")
	for i, f := range schema.Fields {
		format := f.Format
		if format == "" {
			format = f.Name
		}
		fmt.Fprintf(&b, "  %s: %s", quoteJSON(f.Name), quoteJSON(format))
		if i < len(schema.Fields)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString("}\n\n")

	b.WriteString("Look for:\n")
	for _, f := range schema.Fields {
		if f.Description == "" {
			continue
		}
		fmt.Fprintf(&b, "- %s\n", f.Description)
	}

	b.WriteString("\nIf any field is not found, use empty string \"\".\n")
	b.WriteString("Return ONLY the JSON, no other text.")

	return b.String()
}

func quoteJSON(s string) string {
	// json.Marshal would turn <>& into unicode escapes
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(b.String(), "\n")
}
