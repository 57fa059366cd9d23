package metrics

import "testing"

func TestRecordScan_CleanRunResetsFlaggedGauge(t *testing.T) {
	c := &Collector{}

	c.RecordScan(5, 2, 3)
	if got := c.ScanRuns.Load(); got != 1 {
		t.Errorf("expected 1 scan run, got %d", got)
	}
	if got := c.CertificatesFlagged.Load(); got != 3 {
		t.Errorf("expected flagged gauge 3, got %d", got)
	}

	// A clean follow-up run counts and drops the gauge back to zero.
	c.RecordScan(5, 0, 0)
	if got := c.ScanRuns.Load(); got != 2 {
		t.Errorf("expected 2 scan runs, got %d", got)
	}
	if got := c.ProbesTotal.Load(); got != 10 {
		t.Errorf("expected 10 probes total, got %d", got)
	}
	if got := c.ProbeFailures.Load(); got != 2 {
		t.Errorf("expected 2 probe failures total, got %d", got)
	}
	if got := c.CertificatesFlagged.Load(); got != 0 {
		t.Errorf("expected flagged gauge to reset to 0, got %d", got)
	}
	if got := c.LastScanUnix.Load(); got == 0 {
		t.Error("expected last scan timestamp to be set")
	}
}
