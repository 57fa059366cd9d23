package scan

import (
	"context"
	"time"
)

// The scan engine reads the inventory through these flat records rather
// than the storage layer's models, so it stays independent of any
// particular store.

type Host struct {
	ID   int
	Name string
}

// Certificate is a named certificate record. HostID and HostName are zero
// when the certificate is not assigned to a host.
type Certificate struct {
	ID       int
	Name     string
	Public   bool
	HostID   int
	HostName string
}

// Domain is a DNS name expected to serve a certificate. Port 0 means the
// configured default port. CertificateID 0 means unassigned; unassigned
// domains are excluded from probing.
type Domain struct {
	ID            int
	FQDN          string
	Port          int
	CertificateID int
}

type Snapshot struct {
	Hosts        []Host
	Certificates []Certificate
	Domains      []Domain
}

// Inventory supplies a read-only snapshot of hosts, certificates, and
// domains at scan start.
type Inventory interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// Notifier delivers a finished report. It is never invoked with a nil
// report.
type Notifier interface {
	Send(ctx context.Context, report *Report) error
}

// Recorder persists a finished run for later inspection. Implementations
// receive every run, including runs with nothing to report.
type Recorder interface {
	RecordRun(ctx context.Context, meta Meta, verdicts []CertificateVerdict) error
}

// Meta describes a single scan run.
type Meta struct {
	RunID         string
	StartedAt     time.Time
	FinishedAt    time.Time
	DomainsProbed int
	ProbeFailures int
}
