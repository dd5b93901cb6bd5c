package cli

import "testing"

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		amount   float64
		currency string
		want     string
	}{
		{1234.5, "USD", "$1,234.50"},
		{0, "USD", "$0.00"},
		{9.99, "usd", "$9.99"},
		{1200, "PKR", "Rs. 1,200.00"},
		{500, "INR", "₹ 500.00"},
		{42, "EUR", "€42.00"},
		{42, "GBP", "£42.00"},
		{1000, "JPY", "¥1,000.00"},
		{75.5, "AUD", "A$75.50"},
		{-19.99, "USD", "-$19.99"},
		{3.999, "USD", "$4.00"},
		{10, "", "$10.00"},
		{10, "XYZ", "XYZ10.00"},
	}

	for _, tt := range tests {
		if got := FormatMoney(tt.amount, tt.currency); got != tt.want {
			t.Errorf("FormatMoney(%v, %q) = %q, want %q", tt.amount, tt.currency, got, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0"},
		{999, "999"},
		{1000, "1,000"},
		{1234567, "1,234,567"},
		{-4500, "-4,500"},
	}

	for _, tt := range tests {
		if got := FormatNumber(tt.n); got != tt.want {
			t.Errorf("FormatNumber(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		s    string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"a very long subscription name", 10, "a very lo…"},
		{"héllo wörld", 5, "héll…"},
		{"anything", 0, ""},
	}

	for _, tt := range tests {
		if got := Truncate(tt.s, tt.n); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.s, tt.n, got, tt.want)
		}
	}
}
