package language

import (
	"reflect"
	"testing"
)

func TestToISO2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "en"},
		{"EN", "en"},
		{"eng", "en"},
		{"fre", "fr"},
		{"ger", "de"},
		{"chi", "zh"},
		{"english", "en"},
		{"French", "fr"},
		{"en-US", "en"},
		{"pt_BR", "pt"},
		{"xy", "xy"},
		{"xyz", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ToISO2(tt.input); got != tt.expected {
			t.Errorf("ToISO2(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTesseractCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"eng", "eng"},
		{"en", "eng"},
		{"English", "eng"},
		{"fr", "fra"},
		{"ger", "deu"},
		{"zh", "chi_sim"},
		{"chi_tra", "chi_tra"},
		{"osd", "osd"},
		{" ", ""},
	}
	for _, tt := range tests {
		if got := TesseractCode(tt.input); got != tt.expected {
			t.Errorf("TesseractCode(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestTesseractCodesDeduplicates(t *testing.T) {
	got := TesseractCodes([]string{"en", "eng", "", "de", "english"})
	want := []string{"eng", "deu"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("TesseractCodes = %v, want %v", got, want)
	}
}

func TestDisplayName(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en", "English"},
		{"spa", "Spanish"},
		{"", "Unknown"},
		{"xyz", "XYZ"},
	}
	for _, tt := range tests {
		if got := DisplayName(tt.input); got != tt.expected {
			t.Errorf("DisplayName(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
