package mcpserver

import "testing"

func TestExtractSchemaName(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"csvpub://schema/people/files", "people"},
		{"csvpub://schema/orders_2/files", "orders_2"},
		{"csvpub://schema//files", ""},
		{"csvpub://schemas", ""},
		{"csvpub://schema/people", ""},
		{"notes://schema/people/files", ""},
	}
	for _, tt := range tests {
		got := extractSchemaName(tt.uri)
		if got != tt.want {
			t.Errorf("extractSchemaName(%q) = %q, want %q", tt.uri, got, tt.want)
		}
	}
}

func TestGetFloat(t *testing.T) {
	args := map[string]any{
		"limit": float64(5),
		"name":  "people",
	}

	if got := getFloat(args, "limit", 10); got != 5 {
		t.Errorf("getFloat(limit) = %v, want 5", got)
	}
	if got := getFloat(args, "missing", 10); got != 10 {
		t.Errorf("getFloat(missing) = %v, want fallback 10", got)
	}
	// Wrong type falls back rather than panicking.
	if got := getFloat(args, "name", 10); got != 10 {
		t.Errorf("getFloat(name) = %v, want fallback 10", got)
	}
}

func TestGetBool(t *testing.T) {
	args := map[string]any{
		"skipInference": true,
		"limit":         float64(5),
	}

	if got := getBool(args, "skipInference", false); !got {
		t.Error("getBool(skipInference) = false, want true")
	}
	if got := getBool(args, "missing", false); got {
		t.Error("getBool(missing) = true, want fallback false")
	}
	if got := getBool(args, "limit", false); got {
		t.Error("getBool(limit) = true, want fallback false")
	}
}
