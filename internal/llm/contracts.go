package llm

import "context"

// ReceiptFields is the normalized shape we want from the model: one
// Indonesian weighing receipt (BUKTI PENIMBANGAN), weights in metric tons.
type ReceiptFields struct {
	ReceiptNumber    string  `json:"receipt_number"`    // NO NOTA
	ScaleNumber      string  `json:"scale_number"`      // NOMOR TIMBANGAN
	WeighingDatetime string  `json:"weighing_datetime"` // WAKTU PENIMBANGAN, YYYY-MM-DD HH:MM:SS
	VehicleNumber    string  `json:"vehicle_number"`    // NOMOR UNIT
	MaterialName     string  `json:"material_name"`     // NAMA MATERIAL, may mix Indonesian and Chinese
	GrossWeight      float64 `json:"gross_weight"`      // BERAT ISI
	EmptyWeight      float64 `json:"empty_weight"`      // BERAT KOSONG
	NetWeight        float64 `json:"net_weight"`        // BERAT BERSIH
}

// ImageRef points the extractor at an image: inline bytes or a remote
// locator the model can fetch. Exactly one of Data/URI is set.
type ImageRef struct {
	Data     []byte
	URI      string
	MIMEType string // defaults to image/jpeg when empty
}

// Extractor is the interface the pipeline depends on.
// A nil fields result with a nil error means the model answered but the
// response failed schema validation; the raw confidence is then 0.
type Extractor interface {
	Extract(ctx context.Context, ref ImageRef) (*ReceiptFields, float64, error)
}

// CategoryLabeler is the model tier of material categorization: free-text
// material name in, one category label out.
type CategoryLabeler interface {
	Label(ctx context.Context, materialName string) (string, error)
}
