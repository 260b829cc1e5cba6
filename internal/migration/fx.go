package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/catalog/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, node *snowflake.Node, log *zap.Logger) error {
		if err := Run(conn); err != nil {
			return err
		}

		created, err := seed.EnsureDefaultUser(context.Background(), conn, node)
		if err != nil {
			return err
		}
		if created {
			log.Info("default user created", zap.String("email", seed.DefaultUserEmail))
		}
		return nil
	}),
)
