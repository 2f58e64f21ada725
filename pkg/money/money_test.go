package money

import "testing"

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"12.50", 1250},
		{"12.5", 1250},
		{"100", 10000},
		{"0.01", 1},
		{"0.005", 1}, // rounds half up
		{"1234567.89", 123456789},
	}
	for _, c := range cases {
		got, err := ParseDecimal(c.in)
		if err != nil {
			t.Fatalf("ParseDecimal(%q) error: %v", c.in, err)
		}
		if got != c.want {
			t.Fatalf("ParseDecimal(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseDecimalRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "12..5", "12,50 EUR", "1e"} {
		if _, err := ParseDecimal(in); err == nil {
			t.Fatalf("ParseDecimal(%q) should fail", in)
		}
	}
}

func TestFormatRoundTrip(t *testing.T) {
	cents, err := ParseDecimal("12.5")
	if err != nil || cents != 1250 {
		t.Fatalf("expected 1250 got %d err=%v", cents, err)
	}
	if s := Format(cents); s != "12.50" {
		t.Fatalf("Format(1250) = %q, want 12.50", s)
	}
	if s := Format(-305); s != "-3.05" {
		t.Fatalf("Format(-305) = %q, want -3.05", s)
	}
	if s := Format(0); s != "0.00" {
		t.Fatalf("Format(0) = %q, want 0.00", s)
	}
}

func TestValidCurrencyCode(t *testing.T) {
	if !ValidCurrencyCode("USD") || !ValidCurrencyCode("EUR") {
		t.Fatal("expected USD/EUR to be valid")
	}
	for _, s := range []string{"usd", "US", "USDT", "U$D", ""} {
		if ValidCurrencyCode(s) {
			t.Fatalf("%q should be invalid", s)
		}
	}
}
