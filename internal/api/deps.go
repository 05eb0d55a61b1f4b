package api

import (
	"go.uber.org/zap"

	"github.com/statuskit/statuskit/internal/config"
	"github.com/statuskit/statuskit/internal/notify"
	"github.com/statuskit/statuskit/internal/provider"
	"github.com/statuskit/statuskit/internal/store"
)

type Deps struct {
	Logger   *zap.Logger
	Store    store.Store
	Fetcher  *provider.Fetcher
	Notifier *notify.Dispatcher
	Config   *config.Config
}
