package scan

import (
	"context"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Settings is the configuration surface the scan engine consumes. All
// values are validated before any probing begins.
type Settings struct {
	ThresholdDays   int
	ProbeTimeout    time.Duration
	OverallDeadline time.Duration
	Concurrency     int
	DefaultPort     int
}

func (s Settings) Validate() error {
	if s.ThresholdDays < 0 {
		return fmt.Errorf("expiry threshold must be >= 0 days, got %d", s.ThresholdDays)
	}
	if s.ProbeTimeout <= 0 {
		return fmt.Errorf("probe timeout must be positive, got %s", s.ProbeTimeout)
	}
	if s.OverallDeadline <= 0 {
		return fmt.Errorf("overall deadline must be positive, got %s", s.OverallDeadline)
	}
	if s.ProbeTimeout > s.OverallDeadline {
		return fmt.Errorf("probe timeout %s exceeds overall deadline %s", s.ProbeTimeout, s.OverallDeadline)
	}
	if s.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", s.Concurrency)
	}
	if s.DefaultPort < 1 || s.DefaultPort > 65535 {
		return fmt.Errorf("default port must be in 1..65535, got %d", s.DefaultPort)
	}
	return nil
}

// ErrScanInFlight is returned when Run is called while another run on the
// same Runner has not finished.
var ErrScanInFlight = fmt.Errorf("a scan is already running")

// Runner wires the scan pipeline together: inventory snapshot, bounded
// probing, reconciliation, report building, then notification and run
// recording. It is directly invocable without any scheduler present.
type Runner struct {
	Settings  Settings
	Inventory Inventory
	Notifier  Notifier
	Recorder  Recorder

	// Now is swappable for tests; nil means time.Now.
	Now func() time.Time

	running atomic.Bool
}

// Run performs one full scan. It returns the built report (nil when no
// certificate needs attention) along with the run metadata, which is
// populated for every completed run so callers can account for clean runs
// too. Configuration and inventory failures abort the run before any
// probing; notification and recording failures are logged and do not
// affect the scan's own result.
func (r *Runner) Run(ctx context.Context) (*Report, Meta, error) {
	if err := r.Settings.Validate(); err != nil {
		return nil, Meta{}, fmt.Errorf("invalid scan settings: %w", err)
	}
	if !r.running.CompareAndSwap(false, true) {
		return nil, Meta{}, ErrScanInFlight
	}
	defer r.running.Store(false)

	snap, err := r.Inventory.Snapshot(ctx)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to load inventory: %w", err)
	}

	targets := Targets(snap, r.Settings.DefaultPort)
	started := r.now()

	sched := NewScheduler(r.Settings.Concurrency, r.Settings.ProbeTimeout, r.Settings.OverallDeadline)
	results := sched.Run(ctx, targets)

	verdicts := Reconcile(snap, results, r.Settings.ThresholdDays, r.now())

	meta := Meta{
		RunID:         uuid.NewString(),
		StartedAt:     started,
		FinishedAt:    r.now(),
		DomainsProbed: len(targets),
		ProbeFailures: CountFailures(results),
	}

	if r.Recorder != nil {
		if err := r.Recorder.RecordRun(ctx, meta, verdicts); err != nil {
			log.Printf("scan %s: failed to record run: %v", meta.RunID, err)
		}
	}

	report := BuildReport(verdicts, meta)
	if report == nil {
		log.Printf("scan %s: %d domains probed, no expiring certificates", meta.RunID, len(targets))
		return nil, meta, nil
	}

	log.Printf("scan %s: %d domains probed, %d certificates flagged", meta.RunID, len(targets), len(report.Verdicts))

	if r.Notifier != nil {
		if err := r.Notifier.Send(ctx, report); err != nil {
			log.Printf("scan %s: failed to deliver report: %v", meta.RunID, err)
		}
	}

	return report, meta, nil
}

// Running reports whether a scan is currently in flight.
func (r *Runner) Running() bool {
	return r.running.Load()
}

func (r *Runner) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now().UTC()
}

// Targets extracts probe targets from a snapshot. Domains with no assigned
// certificate are excluded: there is nothing to attribute their results to.
func Targets(snap *Snapshot, defaultPort int) []Target {
	targets := make([]Target, 0, len(snap.Domains))
	for _, d := range snap.Domains {
		if d.CertificateID == 0 {
			continue
		}
		port := d.Port
		if port == 0 {
			port = defaultPort
		}
		targets = append(targets, Target{DomainID: d.ID, FQDN: d.FQDN, Port: port})
	}
	return targets
}
