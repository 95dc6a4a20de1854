package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

const invoiceSchemaURL = "invoice.schema.json"

// invoiceSchema compiles the invoice schema on first use.
var invoiceSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	return compileSchema(invoiceSchemaURL, BuildInvoiceJSONSchema())
})

func compileSchema(url string, def map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(def)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}

// ValidateObject checks a coerced model object against the invoice schema.
// The object must hold JSON-decoded values (string, float64, bool, nil,
// map[string]any, []any).
func ValidateObject(m map[string]any) error {
	schema, err := invoiceSchema()
	if err != nil {
		return err
	}
	if err := schema.Validate(m); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
