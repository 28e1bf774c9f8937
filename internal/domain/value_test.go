package domain

import "testing"

func TestCoerceValue(t *testing.T) {
	cases := []struct {
		typ  PropertyType
		raw  string
		want any
		ok   bool
	}{
		{TypeInteger, "42", int64(42), true},
		{TypeInteger, "-7", int64(-7), true},
		{TypeInteger, "x", nil, false},
		{TypeInteger, "3.5", nil, false},
		{TypeInteger, "", nil, true}, // empty cell publishes as null
		{TypeNumber, "3.14", 3.14, true},
		{TypeNumber, "12", float64(12), true},
		{TypeNumber, "1e3", float64(1000), true},
		{TypeNumber, "NaN", nil, false},
		{TypeNumber, "abc", nil, false},
		{TypeBoolean, "true", true, true},
		{TypeBoolean, "YES", true, true},
		{TypeBoolean, "f", false, true},
		{TypeBoolean, "0", nil, false},
		{TypeDatetime, "2021-01-05", "2021-01-05T00:00:00Z", true},
		{TypeDatetime, "2021-01-05T10:30:00+02:00", "2021-01-05T10:30:00+02:00", true},
		{TypeDatetime, "not a date", nil, false},
		{TypeString, "", "", true}, // string columns keep empties as-is
		{TypeString, "  padded  ", "  padded  ", true},
		{TypeUnknown, "anything", "anything", true},
	}

	for _, tc := range cases {
		got, ok := CoerceValue(tc.typ, tc.raw)
		if ok != tc.ok {
			t.Errorf("CoerceValue(%s, %q): expected ok=%v, got %v", tc.typ, tc.raw, tc.ok, ok)
			continue
		}
		if tc.ok && got != tc.want {
			t.Errorf("CoerceValue(%s, %q): expected %v (%T), got %v (%T)", tc.typ, tc.raw, tc.want, tc.want, got, got)
		}
	}
}

func TestAccepts_IgnoresSurroundingSpace(t *testing.T) {
	if !TypeInteger.Accepts(" 42 ") {
		t.Error("expected integer to accept padded digits")
	}
	if TypeInteger.Accepts("4 2") {
		t.Error("expected integer to reject interior space")
	}
}

func TestRowError_Message(t *testing.T) {
	err := &RowError{Property: "id", Value: "x", Type: TypeInteger}
	want := "id: cannot parse 'x' as integer"
	if got := err.Error(); got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}
