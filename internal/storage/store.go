package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"projecthub/internal/models"
)

// Store wraps access to the relational database and exposes high level helpers.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger
	now    func() time.Time
}

// Open connects to dsn and runs the required migrations. A postgres:// or
// postgresql:// URL selects PostgreSQL, anything else is a SQLite file path.
func Open(dsn string, logger *zap.Logger) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty database path")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	dialector, err := dialectorFor(dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         newGormLogger(logger),
		NowFunc:        func() time.Time { return time.Now().UTC() },
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &Store{db: db, logger: logger, now: func() time.Time { return time.Now().UTC() }}
	if err := s.migrate(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the database resources.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	conn, err := s.db.DB()
	if err != nil {
		return err
	}
	return conn.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	conn, err := s.db.DB()
	if err != nil {
		return err
	}
	return conn.PingContext(ctx)
}

func isPostgres(dsn string) bool {
	return strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://")
}

func dialectorFor(dsn string) (gorm.Dialector, error) {
	if isPostgres(dsn) {
		return postgres.Open(dsn), nil
	}

	if err := ensureDir(dsn); err != nil {
		return nil, err
	}
	conn, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=ON", dsn))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)
	conn.SetConnMaxLifetime(0)
	return &sqlite.Dialector{DriverName: "sqlite3", Conn: conn}, nil
}

func ensureDir(dbPath string) error {
	dir := filepath.Dir(dbPath)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func (s *Store) migrate() error {
	err := s.db.AutoMigrate(
		&models.User{},
		&models.ProjectStatus{},
		&models.TaskStatus{},
		&models.TaskPriority{},
		&models.Technology{},
		&models.Project{},
		&models.ProjectDeveloper{},
		&models.ProjectTechnology{},
		&models.Task{},
		&models.TaskProgress{},
		&models.TaskComment{},
		&models.Notification{},
	)
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return s.ensureLookups()
}

// tx runs fn in one transaction; any error rolls everything back.
func (s *Store) tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return s.db.WithContext(ctx).Transaction(fn)
}

// lookupErr converts a missing row into models.ErrNotFound.
func lookupErr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, models.ErrNotFound)
	}
	return fmt.Errorf("get %s: %w", what, err)
}

// isDuplicate reports a unique index violation. The uniqueness checks run
// before every insert, so this only fires when two writers race.
func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// exists reports a missing row of model with id as models.ErrNotFound.
func exists(tx *gorm.DB, model any, id int64, what string) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("check %s: %w", what, err)
	}
	if count == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}

// requireRole checks that the referenced user exists and holds role.
func requireRole(tx *gorm.DB, id int64, role models.Role, field string) (models.User, error) {
	var u models.User
	err := tx.First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return u, models.Invalid(field, "user %d does not exist", id)
	}
	if err != nil {
		return u, fmt.Errorf("get user: %w", err)
	}
	if u.Role != role {
		return u, models.Invalid(field, "user %d is not a %s", id, role)
	}
	return u, nil
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
