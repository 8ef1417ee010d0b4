package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// MaxItemQuantity bounds a single line's quantity.
const MaxItemQuantity = 1_000_000

// ReceiptJSONSchema is the strict shape a candidate must satisfy after fallbacks.
func ReceiptJSONSchema() map[string]any {
	return map[string]any{
		"type":     "object",
		"required": []string{"date", "totalAmount", "shop", "items"},
		"properties": map[string]any{
			"date":        map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
			"totalAmount": map[string]any{"type": "number", "minimum": 0},
			"shop": map[string]any{
				"type":     "object",
				"required": []string{"name"},
				"properties": map[string]any{
					"name":    map[string]any{"type": "string", "minLength": 1},
					"address": map[string]any{"type": []string{"string", "null"}},
				},
			},
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":     "object",
					"required": []string{"name", "price", "quantity", "category"},
					"properties": map[string]any{
						"name":     map[string]any{"type": "string", "minLength": 1},
						"price":    map[string]any{"type": "number", "minimum": 0},
						"quantity": map[string]any{"type": "integer", "minimum": 1, "maximum": MaxItemQuantity},
						"category": map[string]any{"type": "string", "minLength": 1},
					},
				},
			},
		},
	}
}

var (
	receiptSchemaOnce sync.Once
	receiptSchema     *jsonschema.Schema
	receiptSchemaErr  error
)

func compiledReceiptSchema() (*jsonschema.Schema, error) {
	receiptSchemaOnce.Do(func() {
		receiptSchema, receiptSchemaErr = CompileSchema(ReceiptJSONSchema())
	})
	return receiptSchema, receiptSchemaErr
}

// CompileSchema compiles a schema expressed as a generic map.
func CompileSchema(schemaMap map[string]any) (*jsonschema.Schema, error) {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return nil, fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
}
