package money

import "testing"

func TestParseBRL(t *testing.T) {
	cases := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"150,50", 15050, false},
		{"150.50", 15050, false},
		{"50", 5000, false},
		{" 10,00 ", 1000, false},
		{"0,01", 1, false},
		{"0", 0, false},
		{"", 0, true},
		{"abc", 0, true},
		{"10,5", 1050, false},
	}
	for _, c := range cases {
		got, err := ParseBRL(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseBRL(%q): esperava erro, obteve %d", c.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseBRL(%q): %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseBRL(%q) = %d, esperava %d", c.in, got, c.want)
		}
	}
}

func TestFormatBRL(t *testing.T) {
	if got := FormatBRL(15050); got != "150,50" {
		t.Errorf("FormatBRL(15050) = %q", got)
	}
	if got := FormatBRL(5); got != "0,05" {
		t.Errorf("FormatBRL(5) = %q", got)
	}
	if got := FormatBRL(-1234); got != "-12,34" {
		t.Errorf("FormatBRL(-1234) = %q", got)
	}
}

func TestFromReaisRounding(t *testing.T) {
	if got := FromReais(10.005); got != 1001 {
		t.Errorf("FromReais(10.005) = %d", got)
	}
	if got := FromReais(150.50); got != 15050 {
		t.Errorf("FromReais(150.50) = %d", got)
	}
}
