package errors

import (
	"strings"
	"testing"
)

func TestValidateTaxID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"numeric", "9606", false},
		{"alphanumeric", "NCBI_9606", false},
		{"empty", "", true},
		{"too long", strings.Repeat("9", 65), true},
		{"embedded space", "96 06", true},
		{"tab", "96\t06", true},
		{"control character", "96\x0006", true},
		{"slash", "96/06", true},
		{"backslash", "96\\06", true},
		{"traversal", "..9606", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTaxID(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTaxID(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidTaxID) {
				t.Errorf("ValidateTaxID(%q) code = %q", tt.input, GetCode(err))
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/tiles", false},
		{"absolute", "/var/lib/treeatlas", false},
		{"empty", "", true},
		{"too long", strings.Repeat("a", 501), true},
		{"null byte", "out\x00tiles", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"https", "https://example.org/taxonomy.tsv", false},
		{"http", "http://example.org/taxonomy.tsv", false},
		{"empty", "", true},
		{"ftp", "ftp://example.org/taxonomy.tsv", true},
		{"bare path", "taxonomy.tsv", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestIsRemote(t *testing.T) {
	if !IsRemote("https://example.org/x.tsv") || !IsRemote("http://example.org/x.tsv") {
		t.Error("http(s) URLs are remote")
	}
	if IsRemote("data/x.tsv") || IsRemote("") {
		t.Error("local paths are not remote")
	}
}
