package inventory

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"certwatch/internal/db"
	"certwatch/internal/models"
	"certwatch/internal/scan"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "certwatch-test.db"))
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestSnapshot(t *testing.T) {
	database := openTestDB(t)

	host := &models.Host{Name: "web-1"}
	if err := models.CreateHost(database, host); err != nil {
		t.Fatal(err)
	}
	cert := &models.Certificate{Name: "wildcard", Public: true, HostID: sql.NullInt64{Int64: int64(host.ID), Valid: true}}
	if err := models.CreateCertificate(database, cert); err != nil {
		t.Fatal(err)
	}
	orphanCert := &models.Certificate{Name: "unassigned"}
	if err := models.CreateCertificate(database, orphanCert); err != nil {
		t.Fatal(err)
	}
	dom := &models.Domain{FQDN: "example.com", CertificateID: sql.NullInt64{Int64: int64(cert.ID), Valid: true}}
	if err := models.CreateDomain(database, dom); err != nil {
		t.Fatal(err)
	}
	stray := &models.Domain{FQDN: "stray.example.com"}
	if err := models.CreateDomain(database, stray); err != nil {
		t.Fatal(err)
	}

	snap, err := NewStore(database).Snapshot(context.Background())
	if err != nil {
		t.Fatalf("snapshot failed: %v", err)
	}

	if len(snap.Hosts) != 1 || snap.Hosts[0].Name != "web-1" {
		t.Errorf("unexpected hosts: %+v", snap.Hosts)
	}
	if len(snap.Certificates) != 2 {
		t.Fatalf("expected 2 certificates, got %d", len(snap.Certificates))
	}
	for _, c := range snap.Certificates {
		if c.ID == cert.ID && c.HostName != "web-1" {
			t.Errorf("expected host name joined onto certificate, got %q", c.HostName)
		}
		if c.ID == orphanCert.ID && c.HostID != 0 {
			t.Errorf("unassigned certificate should have zero host id, got %d", c.HostID)
		}
	}
	if len(snap.Domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(snap.Domains))
	}
	for _, d := range snap.Domains {
		if d.ID == stray.ID && d.CertificateID != 0 {
			t.Errorf("unassigned domain should have zero certificate id, got %d", d.CertificateID)
		}
	}
}

func TestRecordRunRoundTrip(t *testing.T) {
	database := openTestDB(t)
	store := NewStore(database)

	meta := scan.Meta{
		RunID:         "run-1",
		StartedAt:     time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC),
		FinishedAt:    time.Date(2024, time.January, 1, 0, 1, 0, 0, time.UTC),
		DomainsProbed: 3,
		ProbeFailures: 1,
	}
	verdicts := []scan.CertificateVerdict{
		{CertificateID: 1, CertificateName: "fine", Kind: scan.VerdictOK, HasExpiry: true, DaysLeft: 200},
		{
			CertificateID:   2,
			CertificateName: "soon",
			Kind:            scan.VerdictExpiringSoon,
			HasExpiry:       true,
			NotAfter:        time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC),
			DaysLeft:        9,
			Domains: []scan.DomainOutcome{
				{FQDN: "a.example.com", Outcome: scan.OutcomeExpiry, NotAfter: time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)},
				{FQDN: "b.example.com", Outcome: scan.OutcomeTimeout},
			},
		},
		{CertificateID: 3, CertificateName: "dark", Kind: scan.VerdictUnknown},
	}

	if err := store.RecordRun(context.Background(), meta, verdicts); err != nil {
		t.Fatalf("record failed: %v", err)
	}

	run, err := models.GetScanRunByID(database, "run-1")
	if err != nil {
		t.Fatalf("run not persisted: %v", err)
	}
	if run.Flagged != 2 {
		t.Errorf("expected 2 flagged, got %d", run.Flagged)
	}
	if run.DomainsProbed != 3 || run.ProbeFailures != 1 {
		t.Errorf("unexpected run counters: %+v", run)
	}

	rows, err := models.GetVerdictsByRunID(database, "run-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected only flagged verdicts persisted, got %d", len(rows))
	}
	for _, v := range rows {
		if v.Verdict == "expiring_soon" {
			if !v.DaysLeft.Valid || v.DaysLeft.Int64 != 9 {
				t.Errorf("expected days_left 9, got %+v", v.DaysLeft)
			}
			if v.Domains == "" {
				t.Error("expected domain outcomes JSON to be stored")
			}
		}
		if v.Verdict == "unknown" && v.NotAfter.Valid {
			t.Error("unknown verdict must not carry an expiry")
		}
	}
}
