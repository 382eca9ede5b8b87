package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// ErrNotFound is returned when a record does not exist for the owner.
var ErrNotFound = errors.New("record not found")

type Database struct {
	db *gorm.DB
}

// NewDatabase opens (and creates if needed) the sqlite database at dbPath.
func NewDatabase(dbPath string) (*Database, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	return open(dbPath + "?_foreign_keys=on&_busy_timeout=5000&_journal_mode=WAL")
}

// NewTestDB opens a private in-memory database with the schema applied.
func NewTestDB() (*Database, error) {
	d, err := open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", uuid.NewString()))
	if err != nil {
		return nil, err
	}
	if err := d.RunMigrations(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

func open(dsn string) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	// sqlite allows one writer; a single connection serializes writes
	// instead of failing them with "database is locked".
	sqlDB.SetMaxOpenConns(1)

	return &Database{db: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (d *Database) GetDB() *gorm.DB {
	return d.db
}
