package metrics

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gofiber/fiber/v2"
)

type Collector struct {
	RequestCount    atomic.Int64
	ErrorCount      atomic.Int64
	RequestDuration atomic.Int64 // nanoseconds total
	ActiveRequests  atomic.Int64

	ScanRuns            atomic.Int64
	ProbesTotal         atomic.Int64
	ProbeFailures       atomic.Int64
	CertificatesFlagged atomic.Int64 // gauge: flagged count of the latest run
	LastScanUnix        atomic.Int64

	startTime time.Time
}

var Default = &Collector{startTime: time.Now()}

// RecordScan updates the scan counters after a finished run.
func (c *Collector) RecordScan(probes, failures, flagged int) {
	c.ScanRuns.Add(1)
	c.ProbesTotal.Add(int64(probes))
	c.ProbeFailures.Add(int64(failures))
	c.CertificatesFlagged.Store(int64(flagged))
	c.LastScanUnix.Store(time.Now().Unix())
}

func Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		Default.ActiveRequests.Add(1)
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		Default.ActiveRequests.Add(-1)
		Default.RequestCount.Add(1)
		Default.RequestDuration.Add(duration.Nanoseconds())

		if c.Response().StatusCode() >= 500 {
			Default.ErrorCount.Add(1)
		}

		return err
	}
}

func Handler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		uptime := time.Since(Default.startTime).Seconds()
		totalRequests := Default.RequestCount.Load()
		totalErrors := Default.ErrorCount.Load()
		activeReqs := Default.ActiveRequests.Load()
		totalDuration := Default.RequestDuration.Load()

		var avgDuration float64
		if totalRequests > 0 {
			avgDuration = float64(totalDuration) / float64(totalRequests) / 1e6 // milliseconds
		}

		c.Set("Content-Type", "text/plain; version=0.0.4")

		body := fmt.Sprintf(`# HELP certwatch_uptime_seconds Time since server start
# TYPE certwatch_uptime_seconds gauge
certwatch_uptime_seconds %.2f

# HELP certwatch_http_requests_total Total HTTP requests
# TYPE certwatch_http_requests_total counter
certwatch_http_requests_total %d

# HELP certwatch_http_errors_total Total HTTP 5xx errors
# TYPE certwatch_http_errors_total counter
certwatch_http_errors_total %d

# HELP certwatch_http_active_requests Current active requests
# TYPE certwatch_http_active_requests gauge
certwatch_http_active_requests %d

# HELP certwatch_http_request_duration_avg_ms Average request duration in milliseconds
# TYPE certwatch_http_request_duration_avg_ms gauge
certwatch_http_request_duration_avg_ms %.2f

# HELP certwatch_scan_runs_total Completed scan runs
# TYPE certwatch_scan_runs_total counter
certwatch_scan_runs_total %d

# HELP certwatch_probes_total TLS probes attempted
# TYPE certwatch_probes_total counter
certwatch_probes_total %d

# HELP certwatch_probe_failures_total Probes that did not observe an expiry
# TYPE certwatch_probe_failures_total counter
certwatch_probe_failures_total %d

# HELP certwatch_certificates_flagged Certificates needing attention in the latest run
# TYPE certwatch_certificates_flagged gauge
certwatch_certificates_flagged %d

# HELP certwatch_last_scan_timestamp_seconds Unix time of the latest finished scan
# TYPE certwatch_last_scan_timestamp_seconds gauge
certwatch_last_scan_timestamp_seconds %d
`, uptime, totalRequests, totalErrors, activeReqs, avgDuration,
			Default.ScanRuns.Load(), Default.ProbesTotal.Load(), Default.ProbeFailures.Load(),
			Default.CertificatesFlagged.Load(), Default.LastScanUnix.Load())

		return c.SendString(body)
	}
}
