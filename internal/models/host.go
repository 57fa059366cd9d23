package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Host is a logical machine certificates are grouped under. It carries no
// connection details; it exists so reports can say where a certificate is
// deployed.
type Host struct {
	ID        int
	Name      string
	CertCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func GetAllHosts(db *sql.DB) ([]Host, error) {
	rows, err := db.Query(
		`SELECT h.id, h.name, COUNT(c.id), h.created_at, h.updated_at
		 FROM hosts h
		 LEFT JOIN certificates c ON c.host_id = h.id
		 GROUP BY h.id
		 ORDER BY h.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query hosts: %w", err)
	}
	defer rows.Close()

	var hosts []Host
	for rows.Next() {
		var h Host
		if err := rows.Scan(&h.ID, &h.Name, &h.CertCount, &h.CreatedAt, &h.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan host row: %w", err)
		}
		hosts = append(hosts, h)
	}
	return hosts, rows.Err()
}

func GetHostByID(db *sql.DB, id int) (*Host, error) {
	h := &Host{}
	err := db.QueryRow(
		"SELECT id, name, created_at, updated_at FROM hosts WHERE id = ?",
		id,
	).Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("host not found: %w", err)
	}
	return h, nil
}

func CreateHost(db *sql.DB, h *Host) error {
	result, err := db.Exec("INSERT INTO hosts (name) VALUES (?)", h.Name)
	if err != nil {
		return fmt.Errorf("failed to create host: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	h.ID = int(id)
	return nil
}

func UpdateHost(db *sql.DB, h *Host) error {
	_, err := db.Exec(
		"UPDATE hosts SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		h.Name, h.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update host: %w", err)
	}
	return nil
}

func DeleteHost(db *sql.DB, id int) error {
	_, err := db.Exec("DELETE FROM hosts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete host: %w", err)
	}
	return nil
}

func CountHosts(db *sql.DB) (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM hosts").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count hosts: %w", err)
	}
	return count, nil
}
