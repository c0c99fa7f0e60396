package llm

import (
	"encoding/json"
	"strings"
)

// BuildExtractionPrompt composes the single text part sent alongside the
// receipt image. The schema is embedded so the model and the local
// validator agree on the exact shape.
func BuildExtractionPrompt() string {
	schemaJSON, _ := json.MarshalIndent(BuildReceiptJSONSchema(), "", "  ")

	parts := []string{
		"You are a delivery receipt OCR system specializing in Indonesian weighing receipts (BUKTI PENIMBANGAN).",
		"Extract structured, quantitative data from the provided image and return a single valid JSON object.",
		"Return ONLY JSON that matches the provided JSON Schema; no commentary, no markdown.",
		"Receipts are in Indonesian and may contain Chinese characters.",
		"The image may be rotated at any angle (90, 180, 270 degrees); read the text regardless of orientation.",
		"If the image is unreadable or not a weighing receipt, return the required fields with empty strings, zero weights and a low confidence_score.",
		"",
		"Field mapping:",
		"- receipt_number: NO NOTA (e.g. A125BD00183725122415O1)",
		"- scale_number: NOMOR TIMBANGAN (e.g. T21)",
		"- weighing_datetime: WAKTU PENIMBANGAN, converted to YYYY-MM-DD HH:MM:SS (24-hour)",
		"- vehicle_number: NOMOR UNIT (e.g. B9683TVX)",
		"- material_name: NAMA MATERIAL, keep Indonesian and Chinese text exactly as shown",
		"- gross_weight: BERAT ISI in tons, empty_weight: BERAT KOSONG in tons, net_weight: BERAT BERSIH in tons",
		"- confidence_score: your confidence in extraction accuracy, 0.0 to 1.0",
		"",
		"Constraints: all weights are JSON numbers (tons), never strings.",
		"Net weight should approximately equal gross_weight - empty_weight.",
		"If a value is unclear, make your best guess and lower confidence_score.",
		"",
		"JSON Schema:",
		string(schemaJSON),
	}
	return strings.Join(parts, "\n")
}

// BuildCategorizationPrompt asks for exactly one category label for a
// material name. The label is still validated locally against the enum.
func BuildCategorizationPrompt(materialName string, categories []string) string {
	var b strings.Builder
	b.WriteString("You are a material type categorization specialist for boulder and construction materials.\n")
	b.WriteString("The material name may be Indonesian and/or Chinese. ")
	b.WriteString("Common patterns: 'BATU PECAH' means crushed stone; look for a size like 1/2, 2/3, 3/5.\n\n")
	b.WriteString("Material: \"")
	b.WriteString(materialName)
	b.WriteString("\"\n\nCategories: ")
	b.WriteString(strings.Join(categories, ", "))
	b.WriteString("\n\nReturn ONLY the category name, exactly as written above.")
	return b.String()
}
