package auth

import (
	"github.com/smallbiznis/catalog/internal/auth/repository"
	"github.com/smallbiznis/catalog/internal/auth/service"
	"github.com/smallbiznis/catalog/internal/auth/token"
	"go.uber.org/fx"
)

var Module = fx.Module("auth.service",
	fx.Provide(repository.New),
	fx.Provide(token.New),
	fx.Provide(service.New),
)
