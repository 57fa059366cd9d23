package scan

import (
	"context"
	"sync"
	"time"
)

// Target is one domain the scheduler should probe.
type Target struct {
	DomainID int
	FQDN     string
	Port     int
}

// Scheduler fans probes across a fixed-size worker pool. Each probe gets
// its own timeout; the whole run is bounded by Deadline so a scheduled job
// finishes inside its execution window regardless of inventory size.
type Scheduler struct {
	Concurrency  int
	ProbeTimeout time.Duration
	Deadline     time.Duration

	// probe is swappable for tests; nil means Probe.
	probe func(ctx context.Context, fqdn string, port int, timeout time.Duration) ProbeResult
}

func NewScheduler(concurrency int, probeTimeout, deadline time.Duration) *Scheduler {
	return &Scheduler{
		Concurrency:  concurrency,
		ProbeTimeout: probeTimeout,
		Deadline:     deadline,
	}
}

// Run probes every target and returns one ProbeResult per target. Targets
// not yet dispatched when the deadline passes are recorded as timeouts
// without being attempted. Result order is not significant.
func (s *Scheduler) Run(ctx context.Context, targets []Target) []ProbeResult {
	ctx, cancel := context.WithTimeout(ctx, s.Deadline)
	defer cancel()

	jobs := make(chan Target)
	// Buffered to len(targets) so neither workers nor the feeder can
	// block on delivery after the deadline fires.
	results := make(chan ProbeResult, len(targets))

	var wg sync.WaitGroup
	for i := 0; i < s.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for t := range jobs {
				results <- s.probeOne(ctx, t)
			}
		}()
	}

	feeder := make(chan struct{})
	go func() {
		defer close(feeder)
		defer close(jobs)
		for _, t := range targets {
			select {
			case jobs <- t:
			case <-ctx.Done():
				results <- timeoutResult(t)
			}
		}
	}()

	<-feeder
	wg.Wait()
	close(results)

	out := make([]ProbeResult, 0, len(targets))
	for r := range results {
		out = append(out, r)
	}
	return out
}

func (s *Scheduler) probeOne(ctx context.Context, t Target) ProbeResult {
	if err := ctx.Err(); err != nil {
		// Deadline passed while the target sat in the queue.
		return timeoutResult(t)
	}

	probe := s.probe
	if probe == nil {
		probe = Probe
	}

	// The probe context is a child of the deadline context, so the
	// per-probe timeout never extends past the overall deadline.
	r := probe(ctx, t.FQDN, t.Port, s.ProbeTimeout)
	r.DomainID = t.DomainID
	return r
}

func timeoutResult(t Target) ProbeResult {
	return ProbeResult{
		DomainID:   t.DomainID,
		FQDN:       t.FQDN,
		Port:       t.Port,
		Outcome:    OutcomeTimeout,
		ObservedAt: time.Now().UTC(),
	}
}
