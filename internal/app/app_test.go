package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kailas-cloud/markdex/internal/config"
	"github.com/kailas-cloud/markdex/internal/domain/search/request"
	"github.com/kailas-cloud/markdex/internal/importer"
	healthuc "github.com/kailas-cloud/markdex/internal/usecase/health"
)

func mustConfig(t *testing.T, yaml string) config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	return cfg
}

func TestNew_InMemory(t *testing.T) {
	cfg := mustConfig(t, "summary:\n  provider: none\n")
	a, err := New(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer a.Close()

	report, err := a.Indexing.Index(context.Background(), importer.DemoBookmarks())
	if err != nil {
		t.Fatalf("Index: %v", err)
	}
	if report.Succeeded != len(importer.DemoBookmarks()) {
		t.Fatalf("expected all demo bookmarks indexed, got %+v", report)
	}

	req, err := request.New("cooking techniques and knife skills", 3, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	out, err := a.Search.Search(context.Background(), &req)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(out.Results()) == 0 {
		t.Fatal("expected results")
	}
	if got := out.Results()[0].URL(); got != "https://www.example.com/cooking-basics" {
		t.Errorf("expected cooking bookmark first, got %s", got)
	}
	if _, ok := out.Summary(); ok {
		t.Error("summary present with provider none")
	}
}

func TestNew_SQLiteRestoresAcrossRestarts(t *testing.T) {
	dir := t.TempDir()
	cfg := mustConfig(t, `
storage:
  driver: sqlite
  dsn: `+filepath.Join(dir, "index.db")+`
cache:
  driver: sqlite
  path: `+filepath.Join(dir, "cache.db")+`
index:
  ann:
    enabled: true
    min_entries: 4
    rebuild_interval_ms: 10
`)

	first, err := New(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := first.Indexing.Index(context.Background(), importer.DemoBookmarks()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	first.Close()
	first.Close()

	second, err := New(context.Background(), &cfg, nil)
	if err != nil {
		t.Fatalf("New after restart: %v", err)
	}
	defer second.Close()

	if got, want := second.Index.Size(), len(importer.DemoBookmarks()); got != want {
		t.Fatalf("restored %d entries, want %d", got, want)
	}

	report := second.Health.Check(context.Background())
	if report.Status != healthuc.Healthy {
		t.Errorf("expected healthy, got %s (%v)", report.Status, report.Checks)
	}
	for _, name := range []string{"cache", "storage", "index", "embedding"} {
		if report.Checks[name] != healthuc.CheckOK {
			t.Errorf("check %s = %q", name, report.Checks[name])
		}
	}
}

func TestNew_InvalidStorage(t *testing.T) {
	cfg := mustConfig(t, "")
	cfg.Storage.Driver = config.StorageSQLite
	cfg.Storage.Table = "bad table;"
	cfg.Storage.DSN = filepath.Join(t.TempDir(), "x.db")

	if _, err := New(context.Background(), &cfg, nil); err == nil {
		t.Fatal("expected error for invalid table name")
	}
}
