package scan

import "sort"

// Report is the consolidated scan output handed to the notification
// transport: only verdicts that require attention, in a stable order, one
// entry per certificate.
type Report struct {
	Meta     Meta
	Verdicts []CertificateVerdict
}

// BuildReport filters verdicts to Expired, ExpiringSoon, and Unknown and
// orders them: Expired first, then ExpiringSoon ascending by days left,
// then Unknown sorted by certificate name. Returns nil when nothing needs
// attention; the caller must not invoke the transport in that case.
func BuildReport(verdicts []CertificateVerdict, meta Meta) *Report {
	seen := make(map[int]bool)
	flagged := make([]CertificateVerdict, 0, len(verdicts))
	for _, v := range verdicts {
		if v.Kind == VerdictOK || seen[v.CertificateID] {
			continue
		}
		seen[v.CertificateID] = true
		flagged = append(flagged, v)
	}

	if len(flagged) == 0 {
		return nil
	}

	sort.SliceStable(flagged, func(i, j int) bool {
		a, b := flagged[i], flagged[j]
		if ra, rb := severityRank(a.Kind), severityRank(b.Kind); ra != rb {
			return ra < rb
		}
		if a.Kind == VerdictUnknown {
			return a.CertificateName < b.CertificateName
		}
		if a.DaysLeft != b.DaysLeft {
			return a.DaysLeft < b.DaysLeft
		}
		return a.CertificateName < b.CertificateName
	})

	return &Report{Meta: meta, Verdicts: flagged}
}

func severityRank(k VerdictKind) int {
	switch k {
	case VerdictExpired:
		return 0
	case VerdictExpiringSoon:
		return 1
	default:
		return 2
	}
}

// CountFailures tallies results that did not observe an expiry, for run
// metadata.
func CountFailures(results []ProbeResult) int {
	n := 0
	for _, r := range results {
		if r.Outcome != OutcomeExpiry {
			n++
		}
	}
	return n
}
