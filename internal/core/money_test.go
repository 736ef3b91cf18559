package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out string
		ok  bool
	}{
		{"1", "1.00", true},
		{"1.0", "1.00", true},
		{"1.23", "1.23", true},
		{"1,23", "1.23", true},
		{"0.01", "0.01", true},
		{"1.005", "1.01", true}, // half-up rounding
		{" 2.50 ", "2.50", true},
		{"1300", "1300.00", true},
		{"-1", "", false},
		{"+1", "", false},
		{"0", "", false},
		{"0.001", "", false},
		{"abc", "", false},
		{"1.2.3", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got.String() != tc.out {
				t.Fatalf("%q expected %s, got %s (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := MustParseAmount("10.00")
	b := MustParseAmount("25.50")

	if got := a.Minus(b).String(); got != "-15.50" {
		t.Errorf("Minus = %s, want -15.50", got)
	}
	if got := a.Minus(b).Abs().String(); got != "15.50" {
		t.Errorf("Abs = %s, want 15.50", got)
	}
	if got := (Money{}).String(); got != "0.00" {
		t.Errorf("zero Money = %s, want 0.00", got)
	}
}
