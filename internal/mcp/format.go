package mcptools

import (
	"time"

	"certwatch/internal/models"
)

type HostDTO struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CertCount int    `json:"cert_count"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type CertificateDTO struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Public      bool   `json:"public"`
	HostID      *int64 `json:"host_id,omitempty"`
	HostName    string `json:"host_name,omitempty"`
	DomainCount int    `json:"domain_count"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

type DomainDTO struct {
	ID              int    `json:"id"`
	FQDN            string `json:"fqdn"`
	Port            int    `json:"port"`
	CertificateID   *int64 `json:"certificate_id,omitempty"`
	CertificateName string `json:"certificate_name,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type ScanRunDTO struct {
	ID            string `json:"id"`
	StartedAt     string `json:"started_at"`
	FinishedAt    string `json:"finished_at"`
	DomainsProbed int    `json:"domains_probed"`
	ProbeFailures int    `json:"probe_failures"`
	Flagged       int    `json:"flagged"`
}

type VerdictDTO struct {
	CertificateID   int    `json:"certificate_id"`
	CertificateName string `json:"certificate_name"`
	Verdict         string `json:"verdict"`
	NotAfter        string `json:"not_after,omitempty"`
	DaysLeft        *int64 `json:"days_left,omitempty"`
	Domains         string `json:"domains,omitempty"`
}

type ActivityDTO struct {
	ID         int    `json:"id"`
	EntityType string `json:"entity_type"`
	EntityID   int    `json:"entity_id"`
	Action     string `json:"action"`
	Details    string `json:"details,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func HostToDTO(h models.Host) HostDTO {
	return HostDTO{
		ID:        h.ID,
		Name:      h.Name,
		CertCount: h.CertCount,
		CreatedAt: formatTime(h.CreatedAt),
		UpdatedAt: formatTime(h.UpdatedAt),
	}
}

func CertificateToDTO(c models.Certificate) CertificateDTO {
	dto := CertificateDTO{
		ID:          c.ID,
		Name:        c.Name,
		Public:      c.Public,
		HostName:    c.HostName,
		DomainCount: c.DomainCount,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
	if c.HostID.Valid {
		dto.HostID = &c.HostID.Int64
	}
	return dto
}

func DomainToDTO(d models.Domain) DomainDTO {
	dto := DomainDTO{
		ID:              d.ID,
		FQDN:            d.FQDN,
		Port:            d.Port,
		CertificateName: d.CertificateName,
		CreatedAt:       formatTime(d.CreatedAt),
		UpdatedAt:       formatTime(d.UpdatedAt),
	}
	if d.CertificateID.Valid {
		dto.CertificateID = &d.CertificateID.Int64
	}
	return dto
}

func ScanRunToDTO(r models.ScanRun) ScanRunDTO {
	return ScanRunDTO{
		ID:            r.ID,
		StartedAt:     formatTime(r.StartedAt),
		FinishedAt:    formatTime(r.FinishedAt),
		DomainsProbed: r.DomainsProbed,
		ProbeFailures: r.ProbeFailures,
		Flagged:       r.Flagged,
	}
}

func VerdictToDTO(v models.ScanVerdict) VerdictDTO {
	dto := VerdictDTO{
		CertificateID:   v.CertificateID,
		CertificateName: v.CertificateName,
		Verdict:         v.Verdict,
		Domains:         v.Domains,
	}
	if v.NotAfter.Valid {
		dto.NotAfter = formatTime(v.NotAfter.Time)
	}
	if v.DaysLeft.Valid {
		dto.DaysLeft = &v.DaysLeft.Int64
	}
	return dto
}

func ActivityToDTO(a models.Activity) ActivityDTO {
	return ActivityDTO{
		ID:         a.ID,
		EntityType: a.EntityType,
		EntityID:   a.EntityID,
		Action:     a.Action,
		Details:    a.Details,
		CreatedAt:  a.CreatedAt,
	}
}
