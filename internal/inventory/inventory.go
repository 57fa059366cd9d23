// Package inventory adapts the relational store to the scan engine's
// read-only snapshot and run-recording interfaces. The scan core never
// touches the database directly.
package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"certwatch/internal/models"
	"certwatch/internal/scan"
)

type Store struct {
	DB *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{DB: db}
}

// Snapshot loads all hosts, certificates, and domains as the flat records
// the scan engine consumes. The snapshot is taken once at scan start;
// inventory changes during a run are picked up by the next run.
func (s *Store) Snapshot(ctx context.Context) (*scan.Snapshot, error) {
	snap := &scan.Snapshot{}

	hosts, err := models.GetAllHosts(s.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to load hosts: %w", err)
	}
	hostNames := make(map[int]string, len(hosts))
	for _, h := range hosts {
		hostNames[h.ID] = h.Name
		snap.Hosts = append(snap.Hosts, scan.Host{ID: h.ID, Name: h.Name})
	}

	certs, err := models.GetAllCertificates(s.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to load certificates: %w", err)
	}
	for _, c := range certs {
		sc := scan.Certificate{ID: c.ID, Name: c.Name, Public: c.Public}
		if c.HostID.Valid {
			sc.HostID = int(c.HostID.Int64)
			sc.HostName = hostNames[sc.HostID]
		}
		snap.Certificates = append(snap.Certificates, sc)
	}

	domains, err := models.GetAllDomains(s.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to load domains: %w", err)
	}
	for _, d := range domains {
		sd := scan.Domain{ID: d.ID, FQDN: d.FQDN, Port: d.Port}
		if d.CertificateID.Valid {
			sd.CertificateID = int(d.CertificateID.Int64)
		}
		snap.Domains = append(snap.Domains, sd)
	}

	return snap, nil
}

// domainOutcomeJSON is the persisted shape of one domain's contribution to
// a verdict.
type domainOutcomeJSON struct {
	FQDN     string `json:"fqdn"`
	Outcome  string `json:"outcome"`
	NotAfter string `json:"not_after,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

// RecordRun persists a finished scan and every verdict that needs
// attention. OK verdicts are counted but not stored row-by-row; the run
// summary is enough to show a clean bill of health.
func (s *Store) RecordRun(_ context.Context, meta scan.Meta, verdicts []scan.CertificateVerdict) error {
	flagged := 0
	for _, v := range verdicts {
		if v.Kind != scan.VerdictOK {
			flagged++
		}
	}

	run := &models.ScanRun{
		ID:            meta.RunID,
		StartedAt:     meta.StartedAt,
		FinishedAt:    meta.FinishedAt,
		DomainsProbed: meta.DomainsProbed,
		ProbeFailures: meta.ProbeFailures,
		Flagged:       flagged,
	}
	if err := models.CreateScanRun(s.DB, run); err != nil {
		return err
	}

	for _, v := range verdicts {
		if v.Kind == scan.VerdictOK {
			continue
		}

		outcomes := make([]domainOutcomeJSON, 0, len(v.Domains))
		for _, d := range v.Domains {
			o := domainOutcomeJSON{FQDN: d.FQDN, Outcome: d.Outcome.String(), Reason: d.Reason}
			if !d.NotAfter.IsZero() {
				o.NotAfter = d.NotAfter.Format(time.RFC3339)
			}
			outcomes = append(outcomes, o)
		}
		encoded, err := json.Marshal(outcomes)
		if err != nil {
			return fmt.Errorf("failed to encode domain outcomes: %w", err)
		}

		row := &models.ScanVerdict{
			RunID:           meta.RunID,
			CertificateID:   v.CertificateID,
			CertificateName: v.CertificateName,
			Verdict:         v.Kind.String(),
			Domains:         string(encoded),
		}
		if v.HasExpiry {
			row.NotAfter = sql.NullTime{Time: v.NotAfter, Valid: true}
			row.DaysLeft = sql.NullInt64{Int64: int64(v.DaysLeft), Valid: true}
		}
		if err := models.CreateScanVerdict(s.DB, row); err != nil {
			return err
		}
	}

	return nil
}
