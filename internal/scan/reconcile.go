package scan

import (
	"math"
	"sort"
	"time"
)

type VerdictKind int

const (
	VerdictOK VerdictKind = iota
	VerdictExpiringSoon
	VerdictExpired
	// VerdictUnknown means no domain of the certificate produced a
	// successful expiry observation this run.
	VerdictUnknown
)

func (k VerdictKind) String() string {
	switch k {
	case VerdictOK:
		return "ok"
	case VerdictExpiringSoon:
		return "expiring_soon"
	case VerdictExpired:
		return "expired"
	case VerdictUnknown:
		return "unknown"
	}
	return "invalid"
}

// DomainOutcome records one domain's contribution to a verdict, kept for
// diagnostic detail in reports.
type DomainOutcome struct {
	DomainID int
	FQDN     string
	Outcome  OutcomeKind
	NotAfter time.Time
	Reason   string
}

// CertificateVerdict is the reconciler's judgement for one certificate.
// HasExpiry is false (and NotAfter/DaysLeft meaningless) when Kind is
// VerdictUnknown.
type CertificateVerdict struct {
	CertificateID   int
	CertificateName string
	Public          bool
	HostName        string
	Kind            VerdictKind
	HasExpiry       bool
	NotAfter        time.Time
	DaysLeft        int
	Domains         []DomainOutcome
}

// Reconcile groups probe results by owning certificate and classifies each
// certificate against the expiry threshold. The effective expiry is the
// earliest successfully observed NotAfter across the certificate's domains:
// a certificate is only as good as its soonest-expiring deployed instance,
// which guards against partially rotated rollouts. Certificates with no
// associated domains are skipped; domains with no assigned certificate were
// never probed and contribute nothing.
//
// Pure computation: no I/O, deterministic for a given result batch and now.
func Reconcile(snap *Snapshot, results []ProbeResult, thresholdDays int, now time.Time) []CertificateVerdict {
	byCert := make(map[int][]ProbeResult)
	certOf := make(map[int]int, len(snap.Domains))
	for _, d := range snap.Domains {
		if d.CertificateID != 0 {
			certOf[d.ID] = d.CertificateID
		}
	}
	for _, r := range results {
		certID, ok := certOf[r.DomainID]
		if !ok {
			continue
		}
		byCert[certID] = append(byCert[certID], r)
	}

	verdicts := make([]CertificateVerdict, 0, len(byCert))
	for _, cert := range snap.Certificates {
		group, ok := byCert[cert.ID]
		if !ok {
			continue
		}

		// Deterministic regardless of probe arrival order.
		sort.Slice(group, func(i, j int) bool { return group[i].FQDN < group[j].FQDN })

		v := CertificateVerdict{
			CertificateID:   cert.ID,
			CertificateName: cert.Name,
			Public:          cert.Public,
			HostName:        cert.HostName,
			Kind:            VerdictUnknown,
		}

		var observedAt time.Time
		for _, r := range group {
			v.Domains = append(v.Domains, DomainOutcome{
				DomainID: r.DomainID,
				FQDN:     r.FQDN,
				Outcome:  r.Outcome,
				NotAfter: r.NotAfter,
				Reason:   r.Reason,
			})
			if r.Outcome != OutcomeExpiry {
				continue
			}
			switch {
			case !v.HasExpiry, r.NotAfter.Before(v.NotAfter):
				v.HasExpiry = true
				v.NotAfter = r.NotAfter
				observedAt = r.ObservedAt
			case r.NotAfter.Equal(v.NotAfter) && r.ObservedAt.Before(observedAt):
				// Equal expiries: earliest observation wins. Arbitrary
				// but deterministic; both carry the same NotAfter.
				observedAt = r.ObservedAt
			}
		}

		if v.HasExpiry {
			v.DaysLeft = daysUntil(v.NotAfter, now)
			switch {
			case v.DaysLeft < 0:
				v.Kind = VerdictExpired
			case v.DaysLeft <= thresholdDays:
				v.Kind = VerdictExpiringSoon
			default:
				v.Kind = VerdictOK
			}
		}

		verdicts = append(verdicts, v)
	}
	return verdicts
}

// daysUntil is the floor of the exact duration in 24-hour days, so a
// certificate that expired 12 days ago yields -12.
func daysUntil(expiry, now time.Time) int {
	return int(math.Floor(expiry.Sub(now).Hours() / 24))
}
