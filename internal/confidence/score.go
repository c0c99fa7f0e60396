// Package confidence turns the model's self-reported confidence into the
// adjusted score the rejection decision is made on.
package confidence

import (
	"math"

	"github.com/claud0698/boulder-delivery-receipts/internal/llm"
)

// Weight mismatch beyond this many tons is penalized.
const WeightTolerance = 0.5

// Score cross-checks the extracted fields against the raw model confidence
// and returns the adjusted confidence. Pure function, no I/O. Penalties
// multiply the base score, so the result never exceeds the raw value:
//
//	|gross - empty - net| > 0.5 t  -> x0.7
//	len(receipt_number) < 5        -> x0.8
//	len(material_name) < 3         -> x0.7
//	len(vehicle_number) < 4        -> x0.8
//
// Multiple penalties compound. The result is clamped to [0, 1].
func Score(r *llm.ReceiptFields, rawConfidence float64) float64 {
	score := rawConfidence

	calculatedNet := r.GrossWeight - r.EmptyWeight
	if math.Abs(calculatedNet-r.NetWeight) > WeightTolerance {
		score *= 0.7
	}
	// lengths count runes, not bytes; receipts mix scripts
	if len([]rune(r.ReceiptNumber)) < 5 {
		score *= 0.8
	}
	if len([]rune(r.MaterialName)) < 3 {
		score *= 0.7
	}
	if len([]rune(r.VehicleNumber)) < 4 {
		score *= 0.8
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// WeightsConsistent reports whether net weight matches gross minus empty
// within the tolerance. Used for the needs-review status downstream.
func WeightsConsistent(r *llm.ReceiptFields) bool {
	return math.Abs((r.GrossWeight-r.EmptyWeight)-r.NetWeight) <= WeightTolerance
}
