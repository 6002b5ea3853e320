package storage

import "testing"

func TestConfigEnabled(t *testing.T) {
	tests := map[string]bool{
		"":      false,
		"none":  false,
		"local": true,
		"oss":   true,
	}
	for typ, want := range tests {
		if got := (Config{Type: typ}).Enabled(); got != want {
			t.Fatalf("Enabled() for %q = %v, want %v", typ, got, want)
		}
	}
}
