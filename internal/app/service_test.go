package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/farolabs/faro/internal/webclient"
)

const testPage = `<html><head>
	<title>Despacho de abogados en Valencia, expertos en civil</title>
	<meta name="viewport" content="width=device-width">
</head><body><h1>Bienvenido</h1><h2>Servicios</h2></body></html>`

func newTestService(t *testing.T) *Service {
	t.Helper()
	cfg := DefaultConfig()
	cfg.DBPath = filepath.Join(t.TempDir(), "test.db")
	cfg.FetchTimeout = 5 * time.Second

	svc, err := NewService(cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(func() { svc.Close() })
	return svc
}

func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" || r.URL.Path == "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(testPage))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRunAudit(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)

	result, err := svc.RunAudit(context.Background(), site.URL+"/")
	if err != nil {
		t.Fatalf("RunAudit: %v", err)
	}
	if result.RunID == "" {
		t.Error("run not persisted")
	}
	if result.Report == nil || result.Report.GlobalScore <= 0 {
		t.Fatalf("report = %+v", result.Report)
	}
	if result.Cached {
		t.Error("first audit should not be a cache hit")
	}

	run, err := svc.Store().Get(context.Background(), result.RunID)
	if err != nil {
		t.Fatalf("stored run: %v", err)
	}
	if run.GlobalScore != result.Report.GlobalScore {
		t.Error("stored score differs from report")
	}
}

func TestRunAuditReusesCachedReport(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)

	first, err := svc.RunAudit(context.Background(), site.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.RunAudit(context.Background(), site.URL+"/")
	if err != nil {
		t.Fatal(err)
	}
	if !second.Cached {
		t.Error("identical markup should hit the report cache")
	}
	if second.Report.GlobalScore != first.Report.GlobalScore {
		t.Error("cached report differs")
	}
	if second.RunID == first.RunID {
		t.Error("every audit must persist its own run, cached or not")
	}
}

func TestRunAuditInvalidURL(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.RunAudit(context.Background(), ""); err == nil {
		t.Error("empty URL should error")
	}
}

func TestRunAuditUnreachableHost(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)
	site.Close()

	if _, err := svc.RunAudit(context.Background(), site.URL+"/"); err == nil {
		t.Error("unreachable host should error")
	}
}

func TestStartAuditJobLifecycle(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)

	job := svc.StartAuditJob(context.Background(), site.URL+"/")
	if job.ID == "" || job.URL != site.URL+"/" {
		t.Fatalf("job = %+v", job)
	}

	var last JobEvent
	for ev := range job.Events {
		last = ev
	}

	if last.Type != JobEventResult || last.Status != JobDone {
		t.Fatalf("last event = %+v, want done result", last)
	}
	if last.RunID == "" || last.Score <= 0 {
		t.Errorf("result event = %+v", last)
	}

	got, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatalf("GetJob: %v", err)
	}
	if got.Status != JobDone || got.Report == nil {
		t.Errorf("job after completion = %+v", got)
	}
	if got.EndedAt.IsZero() {
		t.Error("EndedAt not set")
	}
}

func TestStartAuditJobFailure(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)
	site.Close()

	job := svc.StartAuditJob(context.Background(), site.URL+"/")
	for range job.Events {
	}

	got, err := svc.GetJob(job.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != JobFailed || got.Error == "" {
		t.Errorf("job = %+v, want failed with error", got)
	}
}

func TestJobNotFound(t *testing.T) {
	svc := newTestService(t)
	if _, err := svc.GetJob("ghost"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("GetJob: got %v, want ErrJobNotFound", err)
	}
	if err := svc.CancelJob("ghost"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("CancelJob: got %v, want ErrJobNotFound", err)
	}
	if err := svc.DeleteJob("ghost"); !errors.Is(err, ErrJobNotFound) {
		t.Errorf("DeleteJob: got %v, want ErrJobNotFound", err)
	}
}

func TestDeleteJob(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)

	job := svc.StartAuditJob(context.Background(), site.URL+"/")
	for range job.Events {
	}

	if err := svc.DeleteJob(job.ID); err != nil {
		t.Fatalf("DeleteJob: %v", err)
	}
	if _, err := svc.GetJob(job.ID); !errors.Is(err, ErrJobNotFound) {
		t.Error("job still present after delete")
	}
}

func TestListJobsNewestFirst(t *testing.T) {
	svc := newTestService(t)
	site := newTestSite(t)

	first := svc.StartAuditJob(context.Background(), site.URL+"/a")
	for range first.Events {
	}
	second := svc.StartAuditJob(context.Background(), site.URL+"/b")
	for range second.Events {
	}

	jobs := svc.ListJobs()
	if len(jobs) != 2 {
		t.Fatalf("got %d jobs, want 2", len(jobs))
	}
	if jobs[0].ID != second.ID {
		t.Error("jobs should be listed newest first")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		ok     bool
	}{
		{"defaults", func(c *Config) {}, true},
		{"chromedp backend", func(c *Config) { c.Backend = webclient.BackendChromedp }, true},
		{"empty listen addr", func(c *Config) { c.ListenAddr = "" }, false},
		{"empty db path", func(c *Config) { c.DBPath = "" }, false},
		{"unknown backend", func(c *Config) { c.Backend = "telnet" }, false},
		{"zero timeout", func(c *Config) { c.FetchTimeout = 0 }, false},
		{"zero cache", func(c *Config) { c.CacheSize = 0 }, false},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.ok && err != nil {
				t.Errorf("Validate: %v, want ok", err)
			}
			if !tt.ok && err == nil {
				t.Error("Validate passed, want error")
			}
		})
	}
}
