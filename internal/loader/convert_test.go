package loader

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
	}{
		{"empty", "", 0},
		{"whitespace", "   ", 0},
		{"integer", "42", 42},
		{"decimal", "12.75", 12.75},
		{"leading decimal point", ".5", 0.5},
		{"scientific", "1.5E-3", 0.0015},
		{"thousands separator", "1,234.5", 1234.5},
		{"dollar sign", "$3.25", 3.25},
		{"pound sign", "E£ 480", 480},
		{"accounting negative", "(12.5)", -12.5},
		{"excel formula prefix", `="7.5"`, 7.5},
		{"text", "n/a", 0},
		{"dash placeholder", "-", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseAmount(tt.input); got != tt.want {
				t.Errorf("ParseAmount(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestFormatCode(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"854449", "854449"},
		{"854449.0", "854449"},
		{" 854460 ", "854460"},
		{"8544.49", "8544.49"},
		{"ABC", "ABC"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := FormatCode(tt.input); got != tt.want {
				t.Errorf("FormatCode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCanonicalKey(t *testing.T) {
	if got := canonicalKey("  United   KINGDOM "); got != "united kingdom" {
		t.Errorf("canonicalKey = %q", got)
	}
}
