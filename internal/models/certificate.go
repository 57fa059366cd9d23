package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Certificate is a named certificate record. HostID is NULL when the
// certificate is not assigned to a host; HostName is joined in for display
// and empty for unassigned certificates. Names are not required to be
// unique: two hosts may each carry a "wildcard" entry.
type Certificate struct {
	ID          int
	Name        string
	Public      bool
	HostID      sql.NullInt64
	HostName    string
	DomainCount int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

const certificateSelect = `
	SELECT c.id, c.name, c.public, c.host_id, COALESCE(h.name,''),
	       (SELECT COUNT(*) FROM domains d WHERE d.certificate_id = c.id),
	       c.created_at, c.updated_at
	FROM certificates c
	LEFT JOIN hosts h ON h.id = c.host_id`

func scanCertificate(row interface{ Scan(...any) error }) (*Certificate, error) {
	c := &Certificate{}
	err := row.Scan(&c.ID, &c.Name, &c.Public, &c.HostID, &c.HostName, &c.DomainCount, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func GetAllCertificates(db *sql.DB) ([]Certificate, error) {
	rows, err := db.Query(certificateSelect + " ORDER BY c.name, c.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query certificates: %w", err)
	}
	defer rows.Close()

	var certs []Certificate
	for rows.Next() {
		c, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate row: %w", err)
		}
		certs = append(certs, *c)
	}
	return certs, rows.Err()
}

func GetCertificateByID(db *sql.DB, id int) (*Certificate, error) {
	c, err := scanCertificate(db.QueryRow(certificateSelect+" WHERE c.id = ?", id))
	if err != nil {
		return nil, fmt.Errorf("certificate not found: %w", err)
	}
	return c, nil
}

func CreateCertificate(db *sql.DB, c *Certificate) error {
	result, err := db.Exec(
		"INSERT INTO certificates (name, public, host_id) VALUES (?, ?, ?)",
		c.Name, c.Public, c.HostID,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	c.ID = int(id)
	return nil
}

func UpdateCertificate(db *sql.DB, c *Certificate) error {
	_, err := db.Exec(
		"UPDATE certificates SET name = ?, public = ?, host_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		c.Name, c.Public, c.HostID, c.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update certificate: %w", err)
	}
	return nil
}

func DeleteCertificate(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM certificates WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete certificate: %w", err)
	}
	return nil
}

func CountCertificates(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM certificates").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count certificates: %w", err)
	}
	return count, nil
}
