// Package gormstore provides a GORM backed hubx.Store.
//
// GORMStore keeps values in a "client_values" table keyed by a string.
// With the default SQLite dialect the table lives in a local database
// file, which is how the client keeps its credential across restarts.
// Postgres and MySQL are available for shared deployments.
package gormstore

import (
	"fmt"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// GORMStore is a gorm backed key-value store.
type GORMStore struct {
	db *gorm.DB
}

// value is a single stored entry.
type value struct {
	Key  string `gorm:"primaryKey;column:value_key;size:255"`
	Data []byte
}

func (value) TableName() string {
	return "client_values"
}

// Open opens a database for the given dialect ("sqlite", "postgres" or
// "mysql") and dsn. GORM's own logging is silenced; errors are returned
// to the caller.
func Open(dialect, dsn string) (*gorm.DB, error) {
	var d gorm.Dialector
	switch dialect {
	case "sqlite", "":
		d = sqlite.Open(dsn)
	case "postgres":
		d = postgres.Open(dsn)
	case "mysql":
		d = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("gormstore: unsupported dialect %q", dialect)
	}

	return gorm.Open(d, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
}

// New creates and returns a new GORMStore instance.
// If the values table doesn't exist it is created.
func New(db *gorm.DB) (*GORMStore, error) {
	s := &GORMStore{db: db}
	return s, db.AutoMigrate(&value{})
}

// Get retrieves the data stored under key. Returns the data, a boolean
// indicating whether the key was found, and an error.
func (s *GORMStore) Get(key string) ([]byte, bool, error) {
	v := &value{}
	tx := s.db.Where("value_key = ?", key).Limit(1).Find(v)
	if tx.Error != nil || tx.RowsAffected == 0 {
		return nil, false, tx.Error
	}

	return v.Data, true, nil
}

// Set stores data under key. If a value with the same key already
// exists, it is overwritten.
func (s *GORMStore) Set(key string, data []byte) error {
	v := &value{}
	tx := s.db.Where(value{Key: key}).Assign(value{Data: data}).FirstOrCreate(v)
	return tx.Error
}

// Delete removes the value stored under key.
func (s *GORMStore) Delete(key string) error {
	tx := s.db.Delete(&value{}, "value_key = ?", key)
	return tx.Error
}
