package category

import (
	"context"
	"errors"
	"testing"

	"github.com/claud0698/boulder-delivery-receipts/constants"
)

type fakeLabeler struct {
	label string
	err   error
	calls int
}

func (f *fakeLabeler) Label(ctx context.Context, materialName string) (string, error) {
	f.calls++
	return f.label, f.err
}

func noRetry(error) bool { return false }

func TestCategorizeRuleTier(t *testing.T) {
	tests := []struct {
		name     string
		material string
		want     constants.Category
	}{
		{"mixed script split size", "BATU PECAH 1/2 石子", constants.BatuPecahHalf},
		{"split size with noise", "batu pecah 2/3 (lokal)", constants.BatuPecahTwoThirds},
		{"river stone", "Batu Sungai", constants.BatuSungai},
		{"sand", "pasir halus", constants.Pasir},
		{"screenings english", "stone screenings", constants.AbuBatu},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labeler := &fakeLabeler{}
			c, err := New(labeler, 0, noRetry, nil)
			if err != nil {
				t.Fatal(err)
			}
			got := c.Categorize(context.Background(), tt.material)
			if got != tt.want {
				t.Errorf("Categorize(%q) = %q, want %q", tt.material, got, tt.want)
			}
			if labeler.calls != 0 {
				t.Errorf("rule-tier match made %d model calls", labeler.calls)
			}
		})
	}
}

func TestCategorizeModelLabelOutsideSet(t *testing.T) {
	labeler := &fakeLabeler{label: "premium granite"}
	c, err := New(labeler, 0, noRetry, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Categorize(context.Background(), "unrecognizable xyz")
	if got != constants.Lainnya {
		t.Errorf("Categorize = %q, want %q", got, constants.Lainnya)
	}
}

func TestCategorizeModelFailureDegrades(t *testing.T) {
	labeler := &fakeLabeler{err: errors.New("upstream down")}
	c, err := New(labeler, 0, noRetry, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := c.Categorize(context.Background(), "unrecognizable xyz")
	if got != constants.Lainnya {
		t.Errorf("Categorize = %q, want %q", got, constants.Lainnya)
	}
	// failures are not cached; the next call tries the model again
	c.Categorize(context.Background(), "unrecognizable xyz")
	if labeler.calls != 2 {
		t.Errorf("labeler called %d times, want 2", labeler.calls)
	}
}

func TestCategorizeModelResultCached(t *testing.T) {
	labeler := &fakeLabeler{label: "gravel"}
	c, err := New(labeler, 0, noRetry, nil)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if got := c.Categorize(context.Background(), "small stones 10mm"); got != constants.Kerikil {
			t.Fatalf("Categorize = %q, want %q", got, constants.Kerikil)
		}
	}
	if labeler.calls != 1 {
		t.Errorf("labeler called %d times, want 1", labeler.calls)
	}
}

func TestCategorizeNilLabeler(t *testing.T) {
	c, err := New(nil, 0, nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.Categorize(context.Background(), "unrecognizable xyz"); got != constants.Lainnya {
		t.Errorf("Categorize = %q, want %q", got, constants.Lainnya)
	}
}
