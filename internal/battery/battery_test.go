package battery

import (
	"errors"
	"testing"

	"carewatch/backend/internal/theme"
)

func TestClassifyBoundaries(t *testing.T) {
	cases := []struct {
		level int
		tier  Tier
		icon  string
		color theme.Semantic
	}{
		{0, TierCritical, "battery-0-bar", theme.Error},
		{20, TierCritical, "battery-0-bar", theme.Error},
		{21, TierLow, "battery-2-bar", theme.Warning},
		{30, TierLow, "battery-2-bar", theme.Warning},
		{31, TierMedium, "battery-4-bar", theme.Warning},
		{50, TierMedium, "battery-4-bar", theme.Warning},
		{51, TierGood, "battery-6-bar", theme.Success},
		{80, TierGood, "battery-6-bar", theme.Success},
		{81, TierFull, "battery-std", theme.Success},
		{100, TierFull, "battery-std", theme.Success},
	}
	for _, tc := range cases {
		got, err := Classify(tc.level)
		if err != nil {
			t.Fatalf("Classify(%d) error: %v", tc.level, err)
		}
		if got.Tier != tc.tier || got.Icon != tc.icon || got.Color != tc.color {
			t.Errorf("Classify(%d) = %+v, want tier=%s icon=%s color=%s", tc.level, got, tc.tier, tc.icon, tc.color)
		}
	}
}

func TestClassifyMonotonic(t *testing.T) {
	prev := TierCritical.Severity() + 1
	for level := 0; level <= 100; level++ {
		got, err := Classify(level)
		if err != nil {
			t.Fatalf("Classify(%d) error: %v", level, err)
		}
		sev := got.Tier.Severity()
		if sev > prev {
			t.Fatalf("severity increased at level %d: %d > %d", level, sev, prev)
		}
		prev = sev
	}
}

func TestClassifyRejectsOutOfRange(t *testing.T) {
	for _, level := range []int{-1, 101, 1000} {
		if _, err := Classify(level); !errors.Is(err, ErrOutOfRange) {
			t.Errorf("Classify(%d) err = %v, want ErrOutOfRange", level, err)
		}
	}
}

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"80%", 80, false},
		{" 65 % ", 65, false},
		{"0%", 0, false},
		{"100", 100, false},
		{"", 0, true},
		{"abc%", 0, true},
		{"120%", 0, true},
		{"-5%", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseLevel(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseLevel(%q) expected error", tc.in)
			}
			continue
		}
		if err != nil || got != tc.want {
			t.Errorf("ParseLevel(%q) = %d, %v; want %d", tc.in, got, err, tc.want)
		}
	}
}

func TestClassifyString(t *testing.T) {
	got, err := ClassifyString("65%")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Tier != TierGood || got.Level != 65 {
		t.Fatalf("got %+v", got)
	}
	if FormatLevel(got.Level) != "65%" {
		t.Fatalf("FormatLevel = %s", FormatLevel(got.Level))
	}
}
