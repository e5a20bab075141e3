// Package journal persists monitor events to SQLite.
package journal

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/GriffinCanCode/screencue/internal/errors"
	"github.com/GriffinCanCode/screencue/internal/monitor"
)

// Memory opens a private in-memory journal.
const Memory = ":memory:"

// Entry is one persisted monitor event.
type Entry struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SessionID string    `gorm:"column:session_id;not null;index" json:"session_id"`
	Kind      string    `gorm:"column:kind;not null" json:"kind"`
	FromPhase string    `gorm:"column:from_phase;not null;default:''" json:"from"`
	ToPhase   string    `gorm:"column:to_phase;not null;default:''" json:"to"`
	Color     string    `gorm:"column:color;not null;default:''" json:"color"`
	Enable    bool      `gorm:"column:enable;not null;default:false" json:"enable"`
	Result    string    `gorm:"column:result;not null;default:''" json:"result,omitempty"`
	Error     string    `gorm:"column:error;not null;default:''" json:"error,omitempty"`
	At        time.Time `gorm:"column:at;not null;index" json:"at"`
}

func (Entry) TableName() string { return "events" }

// Store appends events for one process session.
type Store struct {
	db      *gorm.DB
	session string
}

// Open creates or opens the journal at path.
func Open(path string) (*Store, error) {
	if path != Memory {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, apperrors.Wrapf(err, apperrors.CodeConfiguration, "journal dir for %s", path)
		}
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, apperrors.Wrapf(err, apperrors.CodeUnavailable, "open journal %s", path)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "journal handle")
	}
	// one connection keeps :memory: databases shared and writes serialized
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if path != Memory {
		if err := db.Exec(`PRAGMA journal_mode=WAL;`).Error; err != nil {
			_ = sqlDB.Close()
			return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "journal pragma")
		}
	}
	if err := db.AutoMigrate(&Entry{}); err != nil {
		_ = sqlDB.Close()
		return nil, apperrors.Wrap(err, apperrors.CodeUnavailable, "migrate journal")
	}
	return &Store{db: db, session: uuid.NewString()}, nil
}

// Session identifies this process run in stored entries.
func (s *Store) Session() string { return s.session }

// Record stores ev.
func (s *Store) Record(ctx context.Context, ev monitor.Event) error {
	e := Entry{
		SessionID: s.session,
		Kind:      string(ev.Kind),
		Color:     ev.Color.Hex(),
		Enable:    ev.Enable,
		Result:    ev.Result,
		Error:     ev.Error,
		At:        ev.At.UTC(),
	}
	if ev.Kind != monitor.EventStarted {
		e.FromPhase = ev.From.String()
	}
	if ev.Kind != monitor.EventStopped {
		e.ToPhase = ev.To.String()
	}
	if err := s.db.WithContext(ctx).Create(&e).Error; err != nil {
		return apperrors.Wrap(err, apperrors.CodeInternal, "record event")
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	var out []Entry
	err := s.db.WithContext(ctx).Order("id DESC").Limit(limit).Find(&out).Error
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "query events")
	}
	return out, nil
}

// Count returns how many entries of kind this session has recorded.
func (s *Store) Count(ctx context.Context, kind monitor.EventKind) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&Entry{}).
		Where("session_id = ? AND kind = ?", s.session, string(kind)).
		Count(&n).Error
	return n, err
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
