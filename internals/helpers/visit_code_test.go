package helper

import (
	"regexp"
	"testing"
	"time"
)

func TestVisitCodePrefix(t *testing.T) {
	cases := []struct {
		name string
		want string
	}{
		{"Green Hills Academy", "GRE"},
		{"st. mary", "STM"},
		{"Al-Noor", "ALN"},
		{"Ab", "ABX"},
		{"", "XXX"},
	}
	for _, tc := range cases {
		if got := VisitCodePrefix(tc.name); got != tc.want {
			t.Errorf("VisitCodePrefix(%q) = %q, want %q", tc.name, got, tc.want)
		}
	}
}

func TestGenerateVisitCodeFormat(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	code := GenerateVisitCode("Green Hills Academy", now)

	re := regexp.MustCompile(`^GRE-2025-\d{4}$`)
	if !re.MatchString(code) {
		t.Fatalf("visit code %q does not match <PFX>-<year>-<4 digits>", code)
	}
}

func TestGeneratePaymentRefFormat(t *testing.T) {
	ref := GeneratePaymentRef(time.Now())
	re := regexp.MustCompile(`^GP-\d+-[a-z0-9]{9}$`)
	if !re.MatchString(ref) {
		t.Fatalf("payment ref %q does not match GP-<millis>-<9 alnum>", ref)
	}

	other := GeneratePaymentRef(time.Now())
	if ref == other {
		t.Fatalf("two generated refs collided: %q", ref)
	}
}
