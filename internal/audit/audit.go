// Package audit persists station lifecycle events to SQLite via GORM.
// Only observable lifecycle events are stored; key material and replay
// counters never leave memory (spec: "Persistent state: none" for keys).
package audit

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"
)

// EventType names a station lifecycle transition worth recording.
type EventType string

const (
	EventAuthenticated  EventType = "authenticated"
	EventAssociated     EventType = "associated"
	EventHandshakeDone  EventType = "handshake_completed"
	EventMICFailure     EventType = "mic_failure"
	EventDeauthenticated EventType = "deauthenticated"
	EventDisassociated  EventType = "disassociated"
)

// EventModel is the GORM model for one audit entry.
type EventModel struct {
	ID        uint      `gorm:"primaryKey"`
	Timestamp time.Time `gorm:"index"`
	BSSID     string    `gorm:"index"`
	Station   string    `gorm:"index"`
	Event     string    `gorm:"index"`
	Reason    string
}

// Log writes station lifecycle events to a SQLite database.
type Log struct {
	db *gorm.DB
}

// Open creates (or reuses) the database at path, creating parent
// directories as needed, and migrates the schema.
func Open(path string) (*Log, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(&EventModel{}); err != nil {
		return nil, err
	}

	if err := db.Use(tracing.NewPlugin()); err != nil {
		return nil, err
	}

	db.Exec("PRAGMA journal_mode=WAL;")
	db.Exec("PRAGMA busy_timeout=5000;")
	db.Exec("PRAGMA synchronous=NORMAL;")
	db.Exec("CREATE INDEX IF NOT EXISTS idx_events_station ON event_models(station)")

	return &Log{db: db}, nil
}

// Record inserts one lifecycle event.
func (l *Log) Record(ctx context.Context, bssid, station string, event EventType, reason string) error {
	model := EventModel{
		Timestamp: time.Now(),
		BSSID:     bssid,
		Station:   station,
		Event:     string(event),
		Reason:    reason,
	}
	return l.db.WithContext(ctx).Create(&model).Error
}

// Recent returns the most recent events, newest first.
func (l *Log) Recent(ctx context.Context, limit int) ([]EventModel, error) {
	var events []EventModel
	err := l.db.WithContext(ctx).Order("timestamp desc").Limit(limit).Find(&events).Error
	return events, err
}

// Close releases the underlying database handle.
func (l *Log) Close() error {
	sqlDB, err := l.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
