package discovery

import "testing"

func TestDeriveName_SharedStem(t *testing.T) {
	got := deriveName([]string{"/data/east/accounts.csv", "/data/west/accounts.csv"})
	if got != "accounts" {
		t.Errorf("expected %q, got %q", "accounts", got)
	}
}

func TestDeriveName_SingleFile(t *testing.T) {
	got := deriveName([]string{"/data/people.csv"})
	if got != "people" {
		t.Errorf("expected %q, got %q", "people", got)
	}
}

func TestDeriveName_CommonPrefixTrimsCounters(t *testing.T) {
	got := deriveName([]string{"/data/accounts-1.csv", "/data/accounts-2.csv", "/data/accounts-10.csv"})
	if got != "accounts" {
		t.Errorf("expected %q, got %q", "accounts", got)
	}
}

func TestDeriveName_SharedDirectory(t *testing.T) {
	got := deriveName([]string{"/data/orders/april.csv", "/data/orders/may.csv"})
	if got != "orders" {
		t.Errorf("expected %q, got %q", "orders", got)
	}
}

func TestDeriveName_NoNaturalName(t *testing.T) {
	got := deriveName([]string{"/data/a/x.csv", "/data/b/y.csv"})
	if got != "" {
		t.Errorf("expected empty name, got %q", got)
	}
}

func TestCluster_GroupsByExactHeader(t *testing.T) {
	groups := cluster([]candidateFile{
		{path: "/d/a.csv", header: []string{"id", "name"}},
		{path: "/d/b.csv", header: []string{"id", "name"}},
		{path: "/d/c.csv", header: []string{"name", "id"}},
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if len(groups[0].paths) != 2 {
		t.Errorf("expected first group to hold 2 files, got %d", len(groups[0].paths))
	}
	// First-seen order is preserved
	if groups[0].header[0] != "id" || groups[1].header[0] != "name" {
		t.Errorf("group order not preserved: %v / %v", groups[0].header, groups[1].header)
	}
}

func TestCluster_CaseIsSignificant(t *testing.T) {
	groups := cluster([]candidateFile{
		{path: "/d/a.csv", header: []string{"ID"}},
		{path: "/d/b.csv", header: []string{"id"}},
	})
	if len(groups) != 2 {
		t.Fatalf("expected case-differing headers to split, got %d group(s)", len(groups))
	}
}

func TestCluster_DisambiguatesCollidingNames(t *testing.T) {
	groups := cluster([]candidateFile{
		{path: "/east/accounts.csv", header: []string{"id"}},
		{path: "/west/accounts.csv", header: []string{"id", "region"}},
	})
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if groups[0].name != "accounts" || groups[1].name != "accounts_2" {
		t.Errorf("expected accounts / accounts_2, got %q / %q", groups[0].name, groups[1].name)
	}
}

func TestCluster_SynthesizesNameWhenNothingShared(t *testing.T) {
	groups := cluster([]candidateFile{
		{path: "/a/x.csv", header: []string{"id"}},
		{path: "/b/y.csv", header: []string{"id"}},
	})
	if len(groups) != 1 {
		t.Fatalf("expected 1 group, got %d", len(groups))
	}
	if groups[0].name != "schema_1" {
		t.Errorf("expected synthesized name schema_1, got %q", groups[0].name)
	}
}
