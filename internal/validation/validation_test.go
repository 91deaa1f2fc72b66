package validation

import "testing"

func TestIsValidListingID(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{"valid uuid", "c0a80101-0000-4000-8000-000000000001", true},
		{"empty", "", false},
		{"not a uuid", "listing-42", false},
		{"truncated", "c0a80101-0000-4000-8000", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsValidListingID(tt.id); got != tt.want {
				t.Errorf("IsValidListingID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestOrderTotalMatches(t *testing.T) {
	tests := []struct {
		name   string
		prices []int64
		total  int64
		want   bool
	}{
		{"matching total", []int64{20000, 30000}, 50000, true},
		{"mismatched total", []int64{20000, 30000}, 40000, false},
		{"zero total", []int64{}, 0, false},
		{"negative price", []int64{-100, 200}, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OrderTotalMatches(tt.prices, tt.total); got != tt.want {
				t.Errorf("OrderTotalMatches(%v, %d) = %v, want %v", tt.prices, tt.total, got, tt.want)
			}
		})
	}
}

func TestIsValidSeverity(t *testing.T) {
	for _, s := range []string{"info", "success", "warning", "danger"} {
		if !IsValidSeverity(s) {
			t.Errorf("IsValidSeverity(%q) = false, want true", s)
		}
	}
	if IsValidSeverity("fatal") {
		t.Errorf("IsValidSeverity(\"fatal\") = true, want false")
	}
}
