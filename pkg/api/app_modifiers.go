package api

import (
	"github.com/instarepo/instarepo-api/internal/shared/cache"
	"github.com/instarepo/instarepo-api/internal/shared/config"
	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers"
)

type Modifier func(a *App)

func SetProviderFactory(pf providers.Factory) Modifier {
	return func(a *App) {
		a.providerFactory = pf
	}
}

func SetCache(c cache.Cache) Modifier {
	return func(a *App) {
		a.cache = c
	}
}

func SetConfig(cfg config.Config) Modifier {
	return func(a *App) {
		a.cfg = cfg
	}
}

func SetLog(log logutil.Log) Modifier {
	return func(a *App) {
		a.log = log
	}
}
