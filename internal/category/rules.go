package category

import (
	"strings"

	"github.com/claud0698/boulder-delivery-receipts/constants"
)

// rule matches a lower-cased material name. A name matches when it
// contains any of the "any" substrings, or all of the "all" substrings.
type rule struct {
	any      []string
	all      []string
	category constants.Category
}

// Checked in priority order; first match wins. The split sizes come
// before the generic stone patterns so "BATU PECAH 1/2" never falls
// through to a coarser bucket.
var rules = []rule{
	{any: []string{"batu pecah 1/2"}, all: []string{"pecah", "1/2"}, category: constants.BatuPecahHalf},
	{any: []string{"batu pecah 2/3"}, all: []string{"pecah", "2/3"}, category: constants.BatuPecahTwoThirds},
	{any: []string{"batu pecah 3/5"}, all: []string{"pecah", "3/5"}, category: constants.BatuPecahThreeFive},
	{any: []string{"batu sungai"}, category: constants.BatuSungai},
	{any: []string{"boulder"}, category: constants.Boulder},
	{any: []string{"kerikil"}, category: constants.Kerikil},
	{any: []string{"pasir"}, category: constants.Pasir},
	{any: []string{"abu batu", "screenings"}, category: constants.AbuBatu},
}

// matchRules runs the deterministic rule tier. ok is false when no rule
// matched and the model tier should decide.
func matchRules(materialName string) (constants.Category, bool) {
	lower := strings.ToLower(materialName)
	for _, r := range rules {
		for _, s := range r.any {
			if strings.Contains(lower, s) {
				return r.category, true
			}
		}
		if len(r.all) > 0 && containsAll(lower, r.all) {
			return r.category, true
		}
	}
	return constants.Lainnya, false
}

func containsAll(s string, subs []string) bool {
	for _, sub := range subs {
		if !strings.Contains(s, sub) {
			return false
		}
	}
	return true
}
