package models

import (
	"database/sql"
	"fmt"
	"time"
)

// ScanRun is the persisted summary of one scan; Verdicts are stored
// separately in scan_verdicts, one row per certificate needing attention.
type ScanRun struct {
	ID            string
	StartedAt     time.Time
	FinishedAt    time.Time
	DomainsProbed int
	ProbeFailures int
	Flagged       int
}

// ScanVerdict is a persisted per-certificate verdict. Domains holds the
// JSON-encoded contributing domain outcomes for diagnostic display.
type ScanVerdict struct {
	ID              int
	RunID           string
	CertificateID   int
	CertificateName string
	Verdict         string
	NotAfter        sql.NullTime
	DaysLeft        sql.NullInt64
	Domains         string
}

func CreateScanRun(db *sql.DB, run *ScanRun) error {
	_, err := db.Exec(
		`INSERT INTO scan_runs (id, started_at, finished_at, domains_probed, probe_failures, flagged)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.DomainsProbed, run.ProbeFailures, run.Flagged,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan run: %w", err)
	}
	return nil
}

func CreateScanVerdict(db *sql.DB, v *ScanVerdict) error {
	result, err := db.Exec(
		`INSERT INTO scan_verdicts (run_id, certificate_id, certificate_name, verdict, not_after, days_left, domains)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		v.RunID, v.CertificateID, v.CertificateName, v.Verdict, v.NotAfter, v.DaysLeft, v.Domains,
	)
	if err != nil {
		return fmt.Errorf("failed to create scan verdict: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	v.ID = int(id)
	return nil
}

func GetRecentScanRuns(db *sql.DB, limit int) ([]ScanRun, error) {
	rows, err := db.Query(
		`SELECT id, started_at, finished_at, domains_probed, probe_failures, flagged
		 FROM scan_runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query scan runs: %w", err)
	}
	defer rows.Close()

	var runs []ScanRun
	for rows.Next() {
		var r ScanRun
		if err := rows.Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.DomainsProbed, &r.ProbeFailures, &r.Flagged); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

func GetScanRunByID(db *sql.DB, id string) (*ScanRun, error) {
	r := &ScanRun{}
	err := db.QueryRow(
		`SELECT id, started_at, finished_at, domains_probed, probe_failures, flagged
		 FROM scan_runs WHERE id = ?`,
		id,
	).Scan(&r.ID, &r.StartedAt, &r.FinishedAt, &r.DomainsProbed, &r.ProbeFailures, &r.Flagged)
	if err != nil {
		return nil, fmt.Errorf("scan run not found: %w", err)
	}
	return r, nil
}

func GetVerdictsByRunID(db *sql.DB, runID string) ([]ScanVerdict, error) {
	rows, err := db.Query(
		`SELECT id, run_id, certificate_id, certificate_name, verdict, not_after, days_left, COALESCE(domains,'')
		 FROM scan_verdicts WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query verdicts: %w", err)
	}
	defer rows.Close()

	var verdicts []ScanVerdict
	for rows.Next() {
		var v ScanVerdict
		if err := rows.Scan(&v.ID, &v.RunID, &v.CertificateID, &v.CertificateName, &v.Verdict, &v.NotAfter, &v.DaysLeft, &v.Domains); err != nil {
			return nil, fmt.Errorf("failed to scan verdict row: %w", err)
		}
		verdicts = append(verdicts, v)
	}
	return verdicts, rows.Err()
}

// GetLatestVerdictForCertificate returns the certificate's verdict from the
// most recent run, if it was flagged there. Only flagged verdicts are
// persisted, so no row in the latest run means that scan found the
// certificate healthy; older runs must not leak through, or a recovered
// certificate would look flagged forever.
func GetLatestVerdictForCertificate(db *sql.DB, certID int) (*ScanVerdict, error) {
	v := &ScanVerdict{}
	err := db.QueryRow(
		`SELECT v.id, v.run_id, v.certificate_id, v.certificate_name, v.verdict, v.not_after, v.days_left, COALESCE(v.domains,'')
		 FROM scan_verdicts v
		 WHERE v.certificate_id = ?
		   AND v.run_id = (SELECT id FROM scan_runs ORDER BY started_at DESC LIMIT 1)
		 LIMIT 1`,
		certID,
	).Scan(&v.ID, &v.RunID, &v.CertificateID, &v.CertificateName, &v.Verdict, &v.NotAfter, &v.DaysLeft, &v.Domains)
	if err != nil {
		return nil, fmt.Errorf("verdict not found: %w", err)
	}
	return v, nil
}

// PruneScanRuns removes runs older than the retention window, cascading to
// their verdicts.
func PruneScanRuns(db *sql.DB, retentionDays int) {
	db.Exec(
		"DELETE FROM scan_runs WHERE started_at < datetime('now', ?)",
		fmt.Sprintf("-%d days", retentionDays),
	)
}
