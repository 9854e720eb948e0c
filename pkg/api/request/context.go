package request

import (
	"context"
	"time"

	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
)

type Context interface {
	RequestStartedAt() time.Time
	Logger() logutil.Log
}

type BaseContext struct {
	Ctx  context.Context
	Log  logutil.Log
	Lctx logutil.Context

	StartedAt time.Time
}

func (ctx BaseContext) RequestStartedAt() time.Time {
	return ctx.StartedAt
}

func (ctx BaseContext) Logger() logutil.Log {
	return ctx.Log
}

type AnonymousContext struct {
	BaseContext
}

type AuthorizedContext struct {
	BaseContext

	Auth *provider.Auth
}
