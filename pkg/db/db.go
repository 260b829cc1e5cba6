package db

import (
	"context"
	"fmt"
	"time"

	puresqlite "github.com/glebarez/sqlite"
	"github.com/smallbiznis/catalog/internal/config"
	"github.com/uptrace/opentelemetry-go-extra/otelgorm"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	gormprometheus "gorm.io/plugin/prometheus"
)

var Module = fx.Module("db",
	fx.Provide(New),
)

type Params struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     config.Config
	GormLogger gormlogger.Interface `optional:"true"`
	Log        *zap.Logger
}

func New(p Params) (*gorm.DB, error) {
	cfg := ConfigFrom(p.Config)

	dialector, err := Dialect(cfg)
	if err != nil {
		return nil, err
	}

	gormCfg := &gorm.Config{TranslateError: true}
	if p.GormLogger != nil {
		gormCfg.Logger = p.GormLogger
	}

	conn, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	applyPool(cfg, sqlDB.SetMaxIdleConns, sqlDB.SetMaxOpenConns, sqlDB.SetConnMaxLifetime, sqlDB.SetConnMaxIdleTime)

	if err := conn.Use(otelgorm.NewPlugin(otelgorm.WithDBName(cfg.Name))); err != nil {
		return nil, fmt.Errorf("register otelgorm: %w", err)
	}
	if err := conn.Use(gormprometheus.New(gormprometheus.Config{
		DBName:          metricsDBName(cfg),
		RefreshInterval: 15,
	})); err != nil {
		return nil, fmt.Errorf("register gorm prometheus: %w", err)
	}

	log := p.Log.Named("db")
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := sqlDB.PingContext(ctx); err != nil {
				return fmt.Errorf("ping %s database: %w", cfg.Type, err)
			}
			log.Info("database connected", zap.String("type", cfg.Type))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return sqlDB.Close()
		},
	})

	return conn, nil
}

func applyPool(cfg Config, idle, open func(int), lifetime, idleTime func(time.Duration)) {
	if cfg.Type == TypeSQLite || cfg.Type == TypeSQLitePure {
		// sqlite serializes writers; one connection avoids SQLITE_BUSY.
		open(1)
		idle(1)
		return
	}
	if cfg.MaxIdleConn > 0 {
		idle(cfg.MaxIdleConn)
	}
	if cfg.MaxOpenConn > 0 {
		open(cfg.MaxOpenConn)
	}
	if cfg.ConnMaxLifetime > 0 {
		lifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)
	}
	if cfg.ConnMaxIdleTime > 0 {
		idleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Second)
	}
}

func metricsDBName(cfg Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}
	return cfg.Type
}

// NewTest opens an isolated in-memory sqlite database. name should be unique
// per test so shared-cache databases do not leak between tests.
func NewTest(name string) (*gorm.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	conn, err := gorm.Open(puresqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Discard,
	})
	if err != nil {
		return nil, err
	}
	sqlDB, err := conn.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	return conn, nil
}
