package journal

import "testing"

func TestParseDetailLevel(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"summary", DetailSummary},
		{"standard", DetailStandard},
		{"full", DetailFull},
		{"", DetailStandard},
		{"invalid", DetailStandard},
		{"SUMMARY", DetailStandard}, // case-sensitive
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ParseDetailLevel(tt.input); got != tt.want {
				t.Errorf("ParseDetailLevel(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestDetailLevelValues(t *testing.T) {
	if vals := DetailLevelValues(); len(vals) != 3 {
		t.Fatalf("expected 3 values, got %d", len(vals))
	}
}

func TestNavigationHint(t *testing.T) {
	if got := NavigationHint(5, 5, ""); got != "" {
		t.Errorf("expected empty hint when all results shown, got %q", got)
	}
	if got := NavigationHint(0, 0, ""); got != "" {
		t.Errorf("expected empty hint for no results, got %q", got)
	}
	if got := NavigationHint(3, 9, "Raise limit."); got != "\n📊 Showing 3 of 9. Raise limit." {
		t.Errorf("unexpected hint %q", got)
	}
}
