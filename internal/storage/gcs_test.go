package storage

import (
	"strings"
	"testing"
)

func TestObjectName(t *testing.T) {
	tests := []struct {
		name     string
		receipt  string
		datetime string
		want     string
	}{
		{"normal", "WB-2024-0117", "2024-05-11 08:42:00", "2024-05-11_WB-2024-0117.jpg"},
		{"slashes sanitized", "WB/2024/17", "2024-05-11 08:42:00", "2024-05-11_WB_2024_17.jpg"},
		{"spaces sanitized", "NOTA 42", "2024-05-11 08:42:00", "2024-05-11_NOTA_42.jpg"},
		{"date only", "WB-1", "2024-05-11", "2024-05-11_WB-1.jpg"},
		{"missing datetime", "WB-1", "", "unknown-date_WB-1.jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := objectName(tt.receipt, tt.datetime); got != tt.want {
				t.Errorf("objectName(%q, %q) = %q, want %q", tt.receipt, tt.datetime, got, tt.want)
			}
		})
	}
}

func TestObjectNameEmptyReceiptGetsRandomID(t *testing.T) {
	got := objectName("", "2024-05-11 08:42:00")
	if !strings.HasPrefix(got, "2024-05-11_") || !strings.HasSuffix(got, ".jpg") {
		t.Errorf("objectName = %q", got)
	}
	if got == "2024-05-11_.jpg" {
		t.Error("empty receipt number produced empty object name")
	}
}
