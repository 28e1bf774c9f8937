package discovery

import (
	"context"
	"strings"
	"testing"

	"csvpub/internal/domain"
)

func inferColumn(t *testing.T, values []string, sampleRows int) domain.PropertyType {
	t.Helper()
	dir := t.TempDir()
	path := writeCSV(t, dir, "col.csv", "col\n"+strings.Join(values, "\n")+"\n")

	sc := domain.Schema{Properties: []domain.Property{{Name: "col", Type: domain.TypeUnknown}}}
	if err := inferTypes(context.Background(), &sc, []string{path}, sampleRows); err != nil {
		t.Fatalf("inferTypes: %v", err)
	}
	return sc.Properties[0].Type
}

func TestInference_TypePrecedence(t *testing.T) {
	cases := []struct {
		name   string
		values []string
		want   domain.PropertyType
	}{
		{"boolean literals", []string{"true", "No", "T"}, domain.TypeBoolean},
		{"integers", []string{"1", "-2", "30"}, domain.TypeInteger},
		{"integer and float mix to number", []string{"1", "2.5"}, domain.TypeNumber},
		{"dates", []string{"2021-01-05", "2021-02-06T10:00:00Z"}, domain.TypeDatetime},
		{"plain text", []string{"x", "y"}, domain.TypeString},
		// No single candidate satisfies both values, so the column
		// falls through to string even though each value is typed.
		{"integer then date", []string{"1", "2021-01-05"}, domain.TypeString},
		{"empties carry no evidence", []string{"", "5", ""}, domain.TypeInteger},
		{"all empty is unknown", []string{"", ""}, domain.TypeUnknown},
	}

	for _, tc := range cases {
		if got := inferColumn(t, tc.values, 0); got != tc.want {
			t.Errorf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestInference_RespectsSampleBudget(t *testing.T) {
	// Only the first row fits the budget; the later string value is
	// never examined.
	got := inferColumn(t, []string{"7", "not a number"}, 1)
	if got != domain.TypeInteger {
		t.Errorf("expected integer under budget of 1, got %s", got)
	}
}

func TestInference_SpansMemberFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeCSV(t, dir, "a.csv", "n\n1\n")
	b := writeCSV(t, dir, "b.csv", "n\n2.5\n")

	sc := domain.Schema{Properties: []domain.Property{{Name: "n", Type: domain.TypeUnknown}}}
	if err := inferTypes(context.Background(), &sc, []string{a, b}, 0); err != nil {
		t.Fatalf("inferTypes: %v", err)
	}
	if sc.Properties[0].Type != domain.TypeNumber {
		t.Errorf("expected number across files, got %s", sc.Properties[0].Type)
	}
}

func TestInference_HeaderOnlyFileIsUnknown(t *testing.T) {
	dir := t.TempDir()
	path := writeCSV(t, dir, "bare.csv", "a,b\n")

	sc := domain.Schema{Properties: []domain.Property{
		{Name: "a", Type: domain.TypeUnknown},
		{Name: "b", Type: domain.TypeUnknown},
	}}
	if err := inferTypes(context.Background(), &sc, []string{path}, 0); err != nil {
		t.Fatalf("inferTypes: %v", err)
	}
	for _, p := range sc.Properties {
		if p.Type != domain.TypeUnknown {
			t.Errorf("column %s: expected unknown, got %s", p.Name, p.Type)
		}
	}
}
