// Package extract defines the contract with the external LLM-based field
// extractor. The extractor returns a best-effort filled payload with explicit
// nulls for unknown fields; this package validates that payload shape and
// hands it to the normalizer. It never performs or retries extraction.
package extract

import (
	"bytes"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// PayloadSchema is the JSON-Schema (draft 2020-12 subset) the extractor
// output must satisfy. Every field is nullable: an explicit null means "not
// extracted", which the normalizer maps to the unknown sentinel.
func PayloadSchema() map[string]any {
	amount := map[string]any{"type": []string{"number", "null"}}
	str := map[string]any{"type": []string{"string", "null"}}

	lineItem := map[string]any{
		"type":                 "object",
		"additionalProperties": true, // alias spellings (qty, rate) pass through to the normalizer
		"properties": map[string]any{
			"description":     str,
			"quantity":        amount,
			"unit_rate":       amount,
			"extended_amount": amount,
		},
	}

	return map[string]any{
		"type":                 "object",
		"additionalProperties": true, // vendors add their own keys; aliases handle them
		"properties": map[string]any{
			"vendor":         str,
			"account_number": str,
			"invoice_number": str,
			"invoice_date":   str,
			"billing_period": str,
			"amount_due":     amount,
			"monthly_tons":   amount,
			"line_items": map[string]any{
				"type":  []string{"array", "null"},
				"items": lineItem,
			},
		},
	}
}

// compiled holds the schema compiled once at package init.
var compiled = mustCompile()

func mustCompile() *jsonschema.Schema {
	b, err := json.Marshal(PayloadSchema())
	if err != nil {
		panic(err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("payload.json", bytes.NewReader(b)); err != nil {
		panic(err)
	}
	schema, err := compiler.Compile("payload.json")
	if err != nil {
		panic(err)
	}
	return schema
}

// Decode validates raw extractor output against the payload schema and
// decodes it into a generic payload map for the normalizer.
func Decode(data []byte) (map[string]any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, eris.Wrap(err, "extract: unmarshal payload")
	}
	if err := compiled.Validate(v); err != nil {
		return nil, eris.Wrap(err, "extract: payload does not match schema")
	}
	payload, ok := v.(map[string]any)
	if !ok {
		return nil, eris.New("extract: payload is not a JSON object")
	}
	return payload, nil
}
