package sniff

import "testing"

func TestClassifyEmpty(t *testing.T) {
	for _, raw := range []string{"", "   ", "\t"} {
		c := Classify(raw)
		if c.Type != TypeEmpty {
			t.Errorf("Classify(%q): expected %s, got %s", raw, TypeEmpty, c.Type)
		}
	}
}

func TestClassifyBoolean(t *testing.T) {
	cases := []struct {
		raw  string
		want bool
	}{
		{"Yes", true},
		{"no", false},
		{"TRUE", true},
		{"false", false},
	}
	for _, tc := range cases {
		c := Classify(tc.raw)
		if c.Type != TypeBoolean {
			t.Errorf("Classify(%q): expected %s, got %s", tc.raw, TypeBoolean, c.Type)
			continue
		}
		if *c.Bool != tc.want {
			t.Errorf("Classify(%q): expected %v, got %v", tc.raw, tc.want, *c.Bool)
		}
	}
}

func TestClassifyNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want float64
	}{
		{"42", 42},
		{"-7", -7},
		{"3.5", 3.5},
		{"1,234,567", 1234567},
		{"0", 0},
		{"0.5", 0.5},
	}
	for _, tc := range cases {
		c := Classify(tc.raw)
		if c.Type != TypeNumber {
			t.Errorf("Classify(%q): expected %s, got %s", tc.raw, TypeNumber, c.Type)
			continue
		}
		if *c.Number != tc.want {
			t.Errorf("Classify(%q): expected %v, got %v", tc.raw, tc.want, *c.Number)
		}
	}
}

func TestClassifyLeadingZeroIsText(t *testing.T) {
	// Phone numbers and zip codes look numeric but are identifiers.
	for _, raw := range []string{"007", "0123456789"} {
		c := Classify(raw)
		if c.Type != TypeText {
			t.Errorf("Classify(%q): expected %s, got %s", raw, TypeText, c.Type)
		}
	}
}

func TestClassifyDate(t *testing.T) {
	cases := []string{
		"2024-03-15",
		"2024-03-15 10:30:00",
		"2024-03-15T10:30:00Z",
		"3/15/2024",
	}
	for _, raw := range cases {
		c := Classify(raw)
		if c.Type != TypeDate {
			t.Errorf("Classify(%q): expected %s, got %s", raw, TypeDate, c.Type)
			continue
		}
		if c.Date.Year() != 2024 || int(c.Date.Month()) != 3 || c.Date.Day() != 15 {
			t.Errorf("Classify(%q): parsed to unexpected date %v", raw, c.Date)
		}
	}
}

func TestClassifyText(t *testing.T) {
	raw := "Some long question text?"
	c := Classify(raw)
	if c.Type != TypeText {
		t.Errorf("Classify(%q): expected %s, got %s", raw, TypeText, c.Type)
	}
	if c.Text != raw {
		t.Errorf("Classify(%q): expected text preserved, got %q", raw, c.Text)
	}
}

func TestClassifyMalformedThousands(t *testing.T) {
	// Separators in the wrong place are not numbers.
	for _, raw := range []string{"1,23", "12,34,56", ",123"} {
		c := Classify(raw)
		if c.Type == TypeNumber {
			t.Errorf("Classify(%q): expected non-number, got %s", raw, c.Type)
		}
	}
}
