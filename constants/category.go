package constants

import (
	"strings"
)

// Category is the canonical material type stored in the ledger.
// Labels are Indonesian because that is what the ledger readers expect.
type Category string

const (
	BatuPecahHalf      Category = "Batu Pecah 1/2"
	BatuPecahTwoThirds Category = "Batu Pecah 2/3"
	BatuPecahThreeFive Category = "Batu Pecah 3/5"
	BatuSungai         Category = "Batu Sungai"
	Boulder            Category = "Boulder"
	Kerikil            Category = "Kerikil"
	Pasir              Category = "Pasir"
	AbuBatu            Category = "Abu Batu"
	Lainnya            Category = "Lainnya"
)

var allCategories = []Category{
	BatuPecahHalf,
	BatuPecahTwoThirds,
	BatuPecahThreeFive,
	BatuSungai,
	Boulder,
	Kerikil,
	Pasir,
	AbuBatu,
	Lainnya,
}

func AllCategories() []Category {
	out := make([]Category, len(allCategories))
	copy(out, allCategories)
	return out
}

func AsStringSlice() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// Canonicalize maps a free-form label (e.g. a model response) onto the
// category set. Unknown labels fall back to Lainnya with ok=false.
func Canonicalize(input string) (Category, bool) {
	if input == "" {
		return Lainnya, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms seen in model output and on receipts
	synonyms := map[string]Category{
		"crushed stone 1/2": BatuPecahHalf,
		"crushed stone 2/3": BatuPecahTwoThirds,
		"crushed stone 3/5": BatuPecahThreeFive,
		"river stone":       BatuSungai,
		"gravel":            Kerikil,
		"sand":              Pasir,
		"screenings":        AbuBatu,
		"stone dust":        AbuBatu,
		"other":             Lainnya,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ToLower(string(cat)) {
			return cat, true
		}
	}

	return Lainnya, false
}
