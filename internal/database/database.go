package database

import (
	"context"
	"strings"
	"time"

	"example.com/backstage/foodshare/config"
	"example.com/backstage/foodshare/internal/metrics"

	"github.com/glebarez/sqlite"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect names as reported by gorm
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// ErrConnectivity marks a failure to reach the storage backend
var ErrConnectivity = errors.New("storage backend unreachable")

// Handles carries the write and read connections every component is given.
// Read equals Write unless a separate read-only URL is configured.
type Handles struct {
	Write *gorm.DB
	Read  *gorm.DB
}

// Connect opens the configured storage backend and verifies it is reachable.
// A nil collector disables query metrics.
func Connect(cfg config.DatabaseConfig, collector *metrics.MetricsCollector) (*Handles, error) {
	db, err := open(cfg.URL, cfg, collector)
	if err != nil {
		return nil, err
	}

	handles := &Handles{Write: db, Read: db}
	if cfg.ReadOnlyURL != "" {
		readDB, err := open(cfg.ReadOnlyURL, cfg, collector)
		if err != nil {
			_ = handles.Close()
			return nil, errors.Wrap(err, "failed to connect to read-only database")
		}
		handles.Read = readDB
	}

	return handles, nil
}

// Close releases both connections
func (h *Handles) Close() error {
	var firstErr error
	for i, db := range []*gorm.DB{h.Write, h.Read} {
		if db == nil || (i == 1 && h.Read == h.Write) {
			continue
		}
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.Close()
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Ping checks that the write connection is alive
func (h *Handles) Ping(ctx context.Context) error {
	sqlDB, err := h.Write.DB()
	if err != nil {
		return errors.Wrap(err, "failed to get database connection")
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return errors.Wrap(ErrConnectivity, err.Error())
	}
	return nil
}

func open(url string, cfg config.DatabaseConfig, collector *metrics.MetricsCollector) (*gorm.DB, error) {
	dialector, embedded, err := dialectorFor(url, cfg.Path)
	if err != nil {
		return nil, err
	}

	logLevel := logger.Error
	if cfg.Debug {
		logLevel = logger.Info
	}
	slow := cfg.SlowThreshold
	if slow == 0 {
		slow = time.Second
	}

	gormLogger := logger.New(
		&logAdapter{},
		logger.Config{
			SlowThreshold:             slow,
			LogLevel:                  logLevel,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   gormLogger,
		TranslateError:                           true,
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, errors.Wrap(ErrConnectivity, err.Error())
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get database connection")
	}

	if embedded {
		// One connection serializes writers and keeps in-memory stores alive
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, errors.Wrap(ErrConnectivity, err.Error())
	}

	if collector != nil {
		RegisterDurationHooks(db)
		RegisterMetricsHooks(db, collector)
	}

	log.Debug().Str("dialect", db.Dialector.Name()).Bool("embedded", embedded).Msg("Database connected")
	return db, nil
}

// dialectorFor selects the engine from the connection URL. An empty URL
// selects the embedded store at path.
func dialectorFor(url, path string) (gorm.Dialector, bool, error) {
	switch {
	case url == "":
		return sqlite.Open(sqliteDSN(path)), true, nil
	case strings.HasPrefix(url, "sqlite:///"):
		return sqlite.Open(sqliteDSN(strings.TrimPrefix(url, "sqlite:///"))), true, nil
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return postgres.Open(url), false, nil
	default:
		return nil, false, errors.Errorf("unsupported database url scheme in %q", redact(url))
	}
}

func sqliteDSN(path string) string {
	if path == "" {
		path = "food.db"
	}
	if path == ":memory:" || strings.Contains(path, "?") {
		return path
	}
	return path + "?_pragma=busy_timeout(5000)"
}

// redact hides credentials in a connection URL for error messages
func redact(url string) string {
	at := strings.LastIndex(url, "@")
	scheme := strings.Index(url, "://")
	if at < 0 || scheme < 0 || at < scheme {
		return url
	}
	return url[:scheme+3] + "***" + url[at:]
}

// Dialect returns the engine name of a connection
func Dialect(db *gorm.DB) string {
	return db.Dialector.Name()
}

// logAdapter routes gorm's logger into zerolog
type logAdapter struct{}

func (l *logAdapter) Printf(format string, args ...interface{}) {
	log.Debug().Str("component", "gorm").Msgf(format, args...)
}
