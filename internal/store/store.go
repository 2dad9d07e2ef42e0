// Package store is the relational persistence layer. It is the
// authoritative record for topics, subtopics, questions, answers and quiz
// sessions; the graph store mirrors a subset of it and may lag behind.
package store

import (
	"fmt"
	"os"
	"path/filepath"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/abhisek/inkling/internal/config"
	"github.com/abhisek/inkling/internal/logger"
	"github.com/abhisek/inkling/internal/types"
)

// Store wraps the relational database. All methods are safe for concurrent
// use; writes that must be atomic run inside a single transaction.
type Store struct {
	db  *gorm.DB
	log *logger.Logger
}

// Open connects to the configured database and runs migrations.
func Open(cfg config.StorageConfig, log *logger.Logger) (*Store, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	case "sqlite", "":
		path := cfg.Path
		if path != ":memory:" {
			if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
				return nil, fmt.Errorf("create db directory: %w", err)
			}
		}
		dialector = sqlite.Open(path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.AutoMigrate(
		&types.Topic{},
		&types.Subtopic{},
		&types.Relationship{},
		&types.Question{},
		&types.Answer{},
		&types.QuizSession{},
		&types.LLMCall{},
	); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// OpenMemory opens a throwaway in-memory sqlite database. Used by tests.
func OpenMemory(log *logger.Logger) (*Store, error) {
	return Open(config.StorageConfig{Driver: "sqlite", Path: ":memory:"}, log)
}

// DB exposes the underlying handle for callers that need raw access.
func (s *Store) DB() *gorm.DB { return s.db }

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
