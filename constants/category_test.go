package constants

import "testing"

func TestCanonicalize(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		want   Category
		wantOK bool
	}{
		{"exact match", "Batu Pecah 1/2", BatuPecahHalf, true},
		{"case insensitive", "batu pecah 2/3", BatuPecahTwoThirds, true},
		{"surrounding whitespace", "  Pasir  ", Pasir, true},
		{"english synonym", "sand", Pasir, true},
		{"english synonym boulder", "Boulder", Boulder, true},
		{"unknown label", "granite dust premium", Lainnya, false},
		{"empty", "", Lainnya, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Canonicalize(tt.input)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Canonicalize(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestAllCategoriesEndsWithLainnya(t *testing.T) {
	all := AllCategories()
	if len(all) == 0 {
		t.Fatal("AllCategories returned nothing")
	}
	if all[len(all)-1] != Lainnya {
		t.Errorf("last category = %q, want %q", all[len(all)-1], Lainnya)
	}
}
