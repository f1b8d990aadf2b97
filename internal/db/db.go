package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/knograph/knograph-backend/internal/platform/envutil"
	"github.com/knograph/knograph-backend/internal/platform/logger"
	"github.com/knograph/knograph-backend/internal/types"
)

// Service wraps the gorm handle used by the repos layer. The driver is
// picked from DB_DRIVER: sqlite (default, file path from SQLITE_PATH)
// or postgres (connection pieces from POSTGRES_* vars).
type Service struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewService(baseLog *logger.Logger) (*Service, error) {
	serviceLog := baseLog.With("service", "DBService")

	driver := envutil.String("DB_DRIVER", "sqlite")
	var (
		db  *gorm.DB
		err error
	)
	switch driver {
	case "postgres":
		host := envutil.String("POSTGRES_HOST", "localhost")
		port := envutil.String("POSTGRES_PORT", "5432")
		user := envutil.String("POSTGRES_USER", "postgres")
		password := envutil.String("POSTGRES_PASSWORD", "")
		name := envutil.String("POSTGRES_NAME", "knograph")
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", user, password, host, port, name)
		serviceLog.Info("Connecting to Postgres...", "host", host, "database", name)
		db, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
		})
	case "sqlite":
		path := envutil.String("SQLITE_PATH", "knograph.db")
		serviceLog.Info("Opening SQLite database...", "path", path)
		db, err = gorm.Open(sqlite.Open(path), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unknown DB_DRIVER %q", driver)
	}
	if err != nil {
		serviceLog.Error("Failed to connect to database", "driver", driver, "error", err)
		return nil, fmt.Errorf("failed to connect to %s: %w", driver, err)
	}

	return &Service{db: db, log: serviceLog}, nil
}

// NewWithDB wraps an already-open handle. Used by tests running
// against an in-memory sqlite database.
func NewWithDB(db *gorm.DB, baseLog *logger.Logger) *Service {
	return &Service{db: db, log: baseLog.With("service", "DBService")}
}

func (s *Service) AutoMigrateAll() error {
	s.log.Info("Auto migrating tables...")
	err := s.db.AutoMigrate(
		&types.LearningSession{},
		&types.KnownConcept{},
		&types.LearnerProfile{},
		&types.UnknownQuery{},
	)
	if err != nil {
		s.log.Error("Auto migration failed", "error", err)
		return err
	}
	return nil
}

func (s *Service) DB() *gorm.DB {
	return s.db
}
