package sheets

import "testing"

func TestTabFromValues(t *testing.T) {
	values := [][]interface{}{
		{"Timestamp", "Email", "", "Rating"},
		{"8/1/2026", "a@x.org", "note", "4"},
		{"8/2/2026", "b@x.org"},
	}

	tab := TabFromValues(values)

	want := []string{"Timestamp", "Email", "Column 3", "Rating"}
	if len(tab.Header) != len(want) {
		t.Fatalf("Expected %d header columns, got %d", len(want), len(tab.Header))
	}
	for i, col := range want {
		if tab.Header[i] != col {
			t.Errorf("Header[%d] = %q, want %q", i, tab.Header[i], col)
		}
	}

	if len(tab.Rows) != 2 {
		t.Fatalf("Expected 2 rows, got %d", len(tab.Rows))
	}

	// Unnamed columns keep their values under the positional name.
	if v, ok := tab.Rows[0].Get("Column 3"); !ok || v != "note" {
		t.Errorf("Expected unnamed column value %q, got %q (%v)", "note", v, ok)
	}

	// Short rows are padded out to the header width.
	short := tab.Rows[1]
	if len(short.Cells) != 4 {
		t.Fatalf("Expected padded row of 4 cells, got %d", len(short.Cells))
	}
	if v, _ := short.Get("Rating"); v != "" {
		t.Errorf("Expected empty padded cell, got %q", v)
	}
}

func TestTabFromValuesEmpty(t *testing.T) {
	tab := TabFromValues(nil)
	if len(tab.Header) != 0 || len(tab.Rows) != 0 {
		t.Errorf("Expected empty tab, got %+v", tab)
	}
}

func TestRowGetCaseInsensitive(t *testing.T) {
	row := Row{Cells: []Cell{{Column: "Email Address", Value: "a@x.org"}}}

	if v, ok := row.Get("email address"); !ok || v != "a@x.org" {
		t.Errorf("Expected case-insensitive lookup, got %q (%v)", v, ok)
	}
	if _, ok := row.Get("missing"); ok {
		t.Error("Expected miss for unknown column")
	}
}

func TestRowIsEmpty(t *testing.T) {
	empty := Row{Cells: []Cell{{Column: "A", Value: ""}, {Column: "B", Value: ""}}}
	if !empty.IsEmpty() {
		t.Error("Expected row of blanks to be empty")
	}
	full := Row{Cells: []Cell{{Column: "A", Value: "x"}}}
	if full.IsEmpty() {
		t.Error("Expected non-blank row to not be empty")
	}
}

func TestCellStringConversions(t *testing.T) {
	cases := []struct {
		in   interface{}
		want string
	}{
		{nil, ""},
		{"  padded  ", "padded"},
		{42, "42"},
		{4.5, "4.5"},
		{true, "true"},
	}
	for _, c := range cases {
		if got := cellString(c.in); got != c.want {
			t.Errorf("cellString(%v) = %q, want %q", c.in, got, c.want)
		}
	}
}
