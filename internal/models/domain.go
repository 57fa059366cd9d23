package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Domain is a DNS name (optionally carrying an explicit port, either in
// the port column or as a ":port" suffix on the FQDN) expected to serve a
// certificate. CertificateID is NULL for unassigned domains, which are
// excluded from scans.
type Domain struct {
	ID              int
	FQDN            string
	Port            int
	CertificateID   sql.NullInt64
	CertificateName string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

const domainSelect = `
	SELECT d.id, d.fqdn, d.port, d.certificate_id, COALESCE(c.name,''),
	       d.created_at, d.updated_at
	FROM domains d
	LEFT JOIN certificates c ON c.id = d.certificate_id`

func GetAllDomains(db *sql.DB) ([]Domain, error) {
	rows, err := db.Query(domainSelect + " ORDER BY d.fqdn")
	if err != nil {
		return nil, fmt.Errorf("failed to query domains: %w", err)
	}
	defer rows.Close()

	var domains []Domain
	for rows.Next() {
		var d Domain
		if err := rows.Scan(&d.ID, &d.FQDN, &d.Port, &d.CertificateID, &d.CertificateName, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan domain row: %w", err)
		}
		domains = append(domains, d)
	}
	return domains, rows.Err()
}

func GetDomainByID(db *sql.DB, id int) (*Domain, error) {
	d := &Domain{}
	err := db.QueryRow(domainSelect+" WHERE d.id = ?", id).
		Scan(&d.ID, &d.FQDN, &d.Port, &d.CertificateID, &d.CertificateName, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("domain not found: %w", err)
	}
	return d, nil
}

func CreateDomain(db *sql.DB, d *Domain) error {
	result, err := db.Exec(
		"INSERT INTO domains (fqdn, port, certificate_id) VALUES (?, ?, ?)",
		d.FQDN, d.Port, d.CertificateID,
	)
	if err != nil {
		return fmt.Errorf("failed to create domain: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	d.ID = int(id)
	return nil
}

func UpdateDomain(db *sql.DB, d *Domain) error {
	_, err := db.Exec(
		"UPDATE domains SET fqdn = ?, port = ?, certificate_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		d.FQDN, d.Port, d.CertificateID, d.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update domain: %w", err)
	}
	return nil
}

func DeleteDomain(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM domains WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete domain: %w", err)
	}
	return nil
}

func CountDomains(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM domains").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count domains: %w", err)
	}
	return count, nil
}
