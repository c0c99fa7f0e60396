package constants

// DeliveryStatus is the canonical status written to the ledger status column.
type DeliveryStatus string

// Stable values (store these exact strings in the ledger).
const (
	StatusSaved       DeliveryStatus = "Tersimpan"  // appended normally
	StatusNeedsReview DeliveryStatus = "Perlu Cek"  // saved, but categorized as Lainnya or weights inconsistent
)

// Notes written alongside the status. Free text by contract, but the
// pipeline only ever emits these.
const (
	NoteAutoSaved      = "Auto-saved"
	NoteOtherCategory  = "Kategori otomatis: Lainnya"
	NoteWeightMismatch = "Berat tidak konsisten"
	NoteCorrected      = "Dikoreksi manual"
)
