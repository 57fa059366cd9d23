package scan

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type fakeInventory struct {
	snap *Snapshot
	err  error
}

func (f *fakeInventory) Snapshot(context.Context) (*Snapshot, error) {
	return f.snap, f.err
}

type fakeNotifier struct {
	sent []*Report
	err  error
}

func (f *fakeNotifier) Send(_ context.Context, r *Report) error {
	f.sent = append(f.sent, r)
	return f.err
}

type fakeRecorder struct {
	metas []Meta
}

func (f *fakeRecorder) RecordRun(_ context.Context, meta Meta, _ []CertificateVerdict) error {
	f.metas = append(f.metas, meta)
	return nil
}

func validSettings() Settings {
	return Settings{
		ThresholdDays:   19,
		ProbeTimeout:    time.Second,
		OverallDeadline: 10 * time.Second,
		Concurrency:     4,
		DefaultPort:     443,
	}
}

func TestSettingsValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Settings)
		wantOK bool
	}{
		{"valid", func(*Settings) {}, true},
		{"zero threshold is allowed", func(s *Settings) { s.ThresholdDays = 0 }, true},
		{"negative threshold", func(s *Settings) { s.ThresholdDays = -1 }, false},
		{"zero probe timeout", func(s *Settings) { s.ProbeTimeout = 0 }, false},
		{"zero deadline", func(s *Settings) { s.OverallDeadline = 0 }, false},
		{"probe timeout past deadline", func(s *Settings) { s.ProbeTimeout = time.Minute; s.OverallDeadline = time.Second }, false},
		{"zero concurrency", func(s *Settings) { s.Concurrency = 0 }, false},
		{"port out of range", func(s *Settings) { s.DefaultPort = 70000 }, false},
		{"zero port", func(s *Settings) { s.DefaultPort = 0 }, false},
	}
	for _, c := range cases {
		s := validSettings()
		c.mutate(&s)
		err := s.Validate()
		if c.wantOK && err != nil {
			t.Errorf("%s: unexpected error: %v", c.name, err)
		}
		if !c.wantOK && err == nil {
			t.Errorf("%s: expected validation error", c.name)
		}
	}
}

func TestRunner_InvalidSettingsFailBeforeProbing(t *testing.T) {
	inv := &fakeInventory{snap: &Snapshot{}}
	r := &Runner{
		Settings:  Settings{ThresholdDays: -1},
		Inventory: inv,
	}
	if _, _, err := r.Run(context.Background()); err == nil {
		t.Error("expected configuration error")
	}
}

func TestRunner_InventoryErrorAbortsRun(t *testing.T) {
	r := &Runner{
		Settings:  validSettings(),
		Inventory: &fakeInventory{err: errors.New("db gone")},
	}
	if _, _, err := r.Run(context.Background()); err == nil {
		t.Error("expected inventory load error to abort the run")
	}
}

func TestRunner_EndToEndAgainstLocalTLS(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()
	addr := srv.Listener.Addr().String()

	snap := &Snapshot{
		Certificates: []Certificate{{ID: 1, Name: "local"}},
		Domains:      []Domain{{ID: 10, FQDN: addr, CertificateID: 1}},
	}

	notifier := &fakeNotifier{}
	recorder := &fakeRecorder{}
	r := &Runner{
		Settings:  validSettings(),
		Inventory: &fakeInventory{snap: snap},
		Notifier:  notifier,
		Recorder:  recorder,
	}

	// httptest certificates are long-lived, so with a huge threshold the
	// certificate must be flagged, and with the default it must not.
	r.Settings.ThresholdDays = 100000
	report, _, err := r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report == nil {
		t.Fatal("expected a report with an enormous threshold")
	}
	if len(notifier.sent) != 1 {
		t.Errorf("expected one notification, got %d", len(notifier.sent))
	}
	if len(recorder.metas) != 1 {
		t.Errorf("expected one recorded run, got %d", len(recorder.metas))
	}
	if recorder.metas[0].DomainsProbed != 1 {
		t.Errorf("expected 1 domain probed, got %d", recorder.metas[0].DomainsProbed)
	}

	r.Settings.ThresholdDays = 0
	var meta Meta
	report, meta, err = r.Run(context.Background())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if report != nil {
		t.Error("expected no report for a healthy certificate")
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifier must not be invoked when there is nothing to report, got %d sends", len(notifier.sent))
	}

	// Clean runs still hand back full metadata for accounting.
	if meta.RunID == "" {
		t.Error("expected a run ID for a clean run")
	}
	if meta.DomainsProbed != 1 {
		t.Errorf("expected 1 domain probed on the clean run, got %d", meta.DomainsProbed)
	}
	if meta.ProbeFailures != 0 {
		t.Errorf("expected no probe failures on the clean run, got %d", meta.ProbeFailures)
	}
}

func TestRunner_SingleFlight(t *testing.T) {
	r := &Runner{
		Settings:  validSettings(),
		Inventory: &fakeInventory{snap: &Snapshot{}},
	}
	r.running.Store(true)
	if _, _, err := r.Run(context.Background()); !errors.Is(err, ErrScanInFlight) {
		t.Errorf("expected ErrScanInFlight, got %v", err)
	}
}

func TestTargets(t *testing.T) {
	snap := &Snapshot{
		Domains: []Domain{
			{ID: 1, FQDN: "a.example.com", Port: 0, CertificateID: 1},
			{ID: 2, FQDN: "b.example.com", Port: 8443, CertificateID: 1},
			{ID: 3, FQDN: "unassigned.example.com", Port: 0, CertificateID: 0},
		},
	}
	targets := Targets(snap, 443)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}
	if targets[0].Port != 443 {
		t.Errorf("expected default port 443, got %d", targets[0].Port)
	}
	if targets[1].Port != 8443 {
		t.Errorf("expected explicit port 8443, got %d", targets[1].Port)
	}
}
