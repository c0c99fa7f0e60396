package llm

// BuildReceiptJSONSchema returns a JSON-Schema (draft 2020-12 subset) as a
// generic map. It is embedded in the prompt and also used locally to
// validate the response before the typed unmarshal: a response missing any
// required field, or carrying weights as strings, is rejected outright
// rather than accepted partially.
func BuildReceiptJSONSchema() map[string]any {
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"receipt_number": map[string]any{
				"type":        "string",
				"description": "NO NOTA - receipt/note number",
			},
			"scale_number": map[string]any{
				"type":        "string",
				"description": "NOMOR TIMBANGAN - scale identification number",
			},
			"weighing_datetime": map[string]any{
				"type":        "string",
				"pattern":     `^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`,
				"description": "WAKTU PENIMBANGAN in YYYY-MM-DD HH:MM:SS format",
			},
			"vehicle_number": map[string]any{
				"type":        "string",
				"description": "NOMOR UNIT - vehicle registration plate number",
			},
			"material_name": map[string]any{
				"type":        "string",
				"description": "NAMA MATERIAL - material/boulder type name",
			},
			"gross_weight":     weightProp("BERAT ISI - gross weight in tons"),
			"empty_weight":     weightProp("BERAT KOSONG - empty vehicle weight in tons"),
			"net_weight":       weightProp("BERAT BERSIH - net material weight in tons"),
			"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		},
		"required": []string{
			"receipt_number",
			"scale_number",
			"weighing_datetime",
			"vehicle_number",
			"material_name",
			"gross_weight",
			"empty_weight",
			"net_weight",
			"confidence_score",
		},
	}
}

func weightProp(description string) map[string]any {
	return map[string]any{
		"type":        "number",
		"minimum":     0.0,
		"description": description,
	}
}
