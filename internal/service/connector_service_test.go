package service_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"csvpub/internal/catalog"
	"csvpub/internal/discovery"
	"csvpub/internal/domain"
	"csvpub/internal/publish"
	"csvpub/internal/service"
)

// ─────────────────────────────────────────────────────────────
// ConnectorService tests
// Discovery and publish against real temp files, with a real
// SQLite catalog where history matters.
// ─────────────────────────────────────────────────────────────

func newTestService(t *testing.T, catalogPath string) *service.ConnectorService {
	t.Helper()
	log := zap.NewNop().Sugar()
	runner := discovery.NewRunner(log, 0)
	streamer := publish.NewStreamer(log)

	var store *catalog.Store
	if catalogPath != "" {
		db, err := catalog.New(catalogPath)
		if err != nil {
			t.Fatalf("open catalog: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		store = catalog.NewStore(db)
	}
	return service.New(runner, streamer, store, log)
}

func writeCSV(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func drain(recs <-chan domain.Record, errs <-chan error) ([]domain.Record, error) {
	var out []domain.Record
	for rec := range recs {
		out = append(out, rec)
	}
	return out, <-errs
}

func TestConnectorService_DiscoverThenPublish(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", "id,name\n1,Ann\n2,Bob\n")
	writeCSV(t, dir, "b.csv", "id,name\n3,Cho\n")

	svc := newTestService(t, filepath.Join(t.TempDir(), "catalog.db"))
	settings := domain.Settings{FileGlob: filepath.Join(dir, "*.csv")}

	schemas, err := svc.Discover(context.Background(), settings)
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(schemas) != 1 {
		t.Fatalf("expected 1 schema, got %d", len(schemas))
	}

	// The file drifts after discovery; publish validates each row
	// against the schema as discovered.
	writeCSV(t, dir, "b.csv", "id,name\nx,Dan\n")

	recs, err := drain(svc.Publish(context.Background(), service.PublishRequest{
		Settings: settings,
		Schema:   schemas[0],
	}))
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(recs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recs))
	}
	if !recs[2].Invalid {
		t.Error("expected the unparseable row to be marked invalid")
	}

	// Both operations land in the catalog.
	runs, err := svc.DiscoveryHistory(10)
	if err != nil || len(runs) != 1 {
		t.Fatalf("expected 1 discovery run, got %d (err %v)", len(runs), err)
	}
	if runs[0].Status != catalog.StatusOK || runs[0].SchemaCount != 1 || runs[0].FileCount != 2 {
		t.Errorf("unexpected discovery run: %+v", runs[0])
	}

	pubs, err := svc.PublishHistory(10)
	if err != nil || len(pubs) != 1 {
		t.Fatalf("expected 1 publish run, got %d (err %v)", len(pubs), err)
	}
	if pubs[0].Records != 3 || pubs[0].InvalidRecords != 1 {
		t.Errorf("unexpected publish run: %+v", pubs[0])
	}
}

func TestConnectorService_SchemasSurviveRestart(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "people.csv", "id,name\n1,Ann\n")
	catalogPath := filepath.Join(t.TempDir(), "catalog.db")

	first := newTestService(t, catalogPath)
	if _, err := first.Discover(context.Background(),
		domain.Settings{FileGlob: filepath.Join(dir, "*.csv")}); err != nil {
		t.Fatalf("discover: %v", err)
	}

	// A fresh service over the same catalog sees the previous run and
	// its settings tokens still open the same files.
	second := newTestService(t, catalogPath)
	schemas, err := second.KnownSchemas()
	if err != nil {
		t.Fatalf("known schemas: %v", err)
	}
	if len(schemas) != 1 || schemas[0].Name != "people" {
		t.Fatalf("expected schema people, got %+v", schemas)
	}

	recs, err := drain(second.Publish(context.Background(), service.PublishRequest{Schema: schemas[0]}))
	if err != nil {
		t.Fatalf("publish from restored schema: %v", err)
	}
	if len(recs) != 1 || recs[0].Data != `[1,"Ann"]` {
		t.Errorf("expected [1,\"Ann\"], got %+v", recs)
	}
}

func TestConnectorService_PreviewLimitsRows(t *testing.T) {
	dir := t.TempDir()
	content := "n\n"
	for i := 0; i < 20; i++ {
		content += "1\n"
	}
	f := writeCSV(t, dir, "n.csv", content)

	svc := newTestService(t, "")
	schema := domain.Schema{
		Name:       "n",
		Settings:   domain.EncodeFileSet([]string{f}),
		Properties: []domain.Property{{Name: "n", Type: domain.TypeInteger}},
	}

	recs, err := svc.Preview(context.Background(), schema, 5)
	if err != nil {
		t.Fatalf("preview: %v", err)
	}
	if len(recs) != 5 {
		t.Errorf("expected 5 preview records, got %d", len(recs))
	}
}

func TestConnectorService_NilCatalog(t *testing.T) {
	dir := t.TempDir()
	writeCSV(t, dir, "a.csv", "id\n1\n")

	svc := newTestService(t, "")
	schemas, err := svc.Discover(context.Background(),
		domain.Settings{FileGlob: filepath.Join(dir, "*.csv")})
	if err != nil || len(schemas) != 1 {
		t.Fatalf("discover without catalog: %v (%d schemas)", err, len(schemas))
	}

	if _, err := svc.KnownSchemas(); err == nil {
		t.Error("expected KnownSchemas to fail with catalog disabled")
	}
}

func TestConnectorService_WaitRunning_Immediate(t *testing.T) {
	svc := newTestService(t, "")
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	svc.WaitRunning(ctx)
	if time.Since(start) > 100*time.Millisecond {
		t.Error("expected WaitRunning to return immediately with no running ops")
	}
}

func TestConnectorService_StartTriggers_InvalidCron(t *testing.T) {
	svc := newTestService(t, "")
	defer svc.Stop()

	err := svc.StartTriggers(context.Background(), service.TriggerConfig{
		Glob:     "/data/*.csv",
		CronExpr: "not a cron expr",
	})
	if err == nil {
		t.Fatal("expected invalid cron expression to error")
	}
}

func TestConnectorService_StartTriggers_NoopWithoutGlob(t *testing.T) {
	svc := newTestService(t, "")
	defer svc.Stop()

	if err := svc.StartTriggers(context.Background(), service.TriggerConfig{}); err != nil {
		t.Fatalf("expected empty trigger config to be a no-op, got %v", err)
	}
}
