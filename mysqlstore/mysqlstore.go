// Package mysqlstore provides a MySQL backed hubx.Store using
// database/sql and go-sql-driver/mysql directly.
//
// Values live in a "client_values" table created on first use.
package mysqlstore

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/go-sql-driver/mysql"
)

type MySQLStore struct {
	db *sql.DB
}

// Open opens a MySQL connection pool for dsn, e.g.
// "user:pass@tcp(localhost:3306)/hubx".
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}
	return db, nil
}

// New creates a MySQLStore on db, creating its table if needed.
func New(db *sql.DB) (*MySQLStore, error) {
	err := createTable(db)
	return &MySQLStore{db: db}, err
}

// Get retrieves the data stored under key. Returns the data, a boolean
// indicating whether the key was found, and an error.
func (s *MySQLStore) Get(key string) ([]byte, bool, error) {
	stmt := "SELECT data FROM client_values WHERE value_key = ?"
	row := s.db.QueryRow(stmt, key)

	var data []byte
	err := row.Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores data under key. If a value with the same key already
// exists, it is overwritten.
func (s *MySQLStore) Set(key string, data []byte) error {
	stmt := "INSERT INTO client_values(value_key, data) VALUES (?, ?) ON DUPLICATE KEY UPDATE data = VALUES(data)"
	_, err := s.db.Exec(stmt, key, data)
	return err
}

// Delete removes the value stored under key.
func (s *MySQLStore) Delete(key string) error {
	stmt := "DELETE FROM client_values WHERE value_key = ?"
	_, err := s.db.Exec(stmt, key)
	return err
}

func createTable(db *sql.DB) error {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS client_values (
			value_key VARCHAR(255) COLLATE utf8mb4_bin PRIMARY KEY,
			data BLOB NOT NULL
		)`)
	if err != nil {
		return fmt.Errorf("failed to create table: %w", err)
	}
	return nil
}
