package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/claud0698/boulder-delivery-receipts/internal/common"
)

// extractionResponse is ReceiptFields plus the model's own confidence.
type extractionResponse struct {
	ReceiptFields
	ConfidenceScore float64 `json:"confidence_score"`
}

// ParseExtraction validates the model's JSON text against the receipt
// schema and decodes it. Failures wrap common.ErrExtractionParse; they are
// non-retryable, the model already answered.
func ParseExtraction(data []byte) (*ReceiptFields, float64, error) {
	if err := ValidateJSONAgainstSchema(BuildReceiptJSONSchema(), data); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", common.ErrExtractionParse, err)
	}
	var out extractionResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, 0, fmt.Errorf("%w: %w", common.ErrExtractionParse, err)
	}
	fields := out.ReceiptFields
	return &fields, out.ConfidenceScore, nil
}

// ValidateJSONAgainstSchema validates "data" against "schemaMap".
func ValidateJSONAgainstSchema(schemaMap map[string]any, data []byte) error {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}

// StripCodeFences removes a leading ```json / trailing ``` wrapper that
// models sometimes add despite the JSON response MIME type.
func StripCodeFences(s string) string {
	b := []byte(s)
	b = bytes.TrimSpace(b)
	if bytes.HasPrefix(b, []byte("```")) {
		if i := bytes.IndexByte(b, '\n'); i >= 0 {
			b = b[i+1:]
		}
		b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
	}
	return string(bytes.TrimSpace(b))
}
