package core

import "testing"

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"120.50", 12050, true},
		{"120,5", 12050, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-3,5", -350, true},
		{"0", 0, true},
		{"1.234,50 €", 123450, true},
		{"1,234.50", 123450, true},
		{"€ 7", 700, true},
		{"abc", 0, false},
		{"1,2,3", 0, false},
		{"", 0, false},
		{"NaN", 0, false},
		{"1.٥", 0, false},
		{"١٢", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmount(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestCoerceAmountZeroFills(t *testing.T) {
	for _, in := range []string{"", "pendiente", "#N/A"} {
		if got := CoerceAmount(in); got.Cents != 0 {
			t.Fatalf("%q expected zero, got %d", in, got.Cents)
		}
	}
	if got := CoerceAmount("42,10"); got.Cents != 4210 {
		t.Fatalf("expected 4210, got %d", got.Cents)
	}
}

func TestMoneyString(t *testing.T) {
	cases := map[int64]string{0: "0.00", 5: "0.05", 12050: "120.50", -199: "-1.99"}
	for cents, want := range cases {
		if got := (Money{Cents: cents}).String(); got != want {
			t.Fatalf("%d: got %q want %q", cents, got, want)
		}
	}
}
