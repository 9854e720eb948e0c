package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/urfave/negroni"

	"github.com/instarepo/instarepo-api/internal/api/transportutil"
	"github.com/instarepo/instarepo-api/internal/shared/apperrors"
	"github.com/instarepo/instarepo-api/internal/shared/cache"
	"github.com/instarepo/instarepo-api/internal/shared/config"
	"github.com/instarepo/instarepo-api/internal/shared/logutil"
	"github.com/instarepo/instarepo-api/internal/shared/providers"
	"github.com/instarepo/instarepo-api/internal/shared/providers/provider"
	"github.com/instarepo/instarepo-api/pkg/api/request"
	"github.com/instarepo/instarepo-api/pkg/api/services/repolist"
	"github.com/instarepo/instarepo-api/pkg/repofetch"
)

type appServices struct {
	repoList repolist.Service
}

type App struct {
	cfg             config.Config
	log             logutil.Log
	trackedLog      logutil.Log
	errTracker      apperrors.Tracker
	cache           cache.Cache
	providerFactory providers.Factory
	sessionStore    *repofetch.Store
	services        appServices

	fetchCtx       context.Context
	cancelFetchCtx context.CancelFunc
}

//nolint:gocyclo
func (a *App) buildDeps() {
	if a.log == nil {
		slog := logutil.NewStderrLog("instarepo-api")
		slog.SetLevel(logutil.LogLevelInfo)
		a.log = slog
	}

	if a.cfg == nil {
		a.cfg = config.NewEnvConfig(a.log)
	}

	if a.errTracker == nil {
		a.errTracker = apperrors.GetTracker(a.cfg, a.log)
	}
	if a.trackedLog == nil {
		a.trackedLog = apperrors.WrapLogWithTracker(a.log, nil, a.errTracker)
	}

	if a.cache == nil {
		redisURL := a.cfg.GetString("REDIS_URL")
		if redisURL != "" {
			a.cache = cache.NewRedis(redisURL)
		} else {
			a.log.Warnf("No REDIS_URL configured, using in-memory cache")
			a.cache = cache.NewMemory()
		}
	}

	if a.providerFactory == nil {
		a.providerFactory = providers.NewBasicFactory(a.trackedLog)
	}

	if a.sessionStore == nil {
		a.sessionStore = repofetch.NewStore(a.cfg, a.trackedLog.Child("sessions"))
	}

	if a.fetchCtx == nil {
		a.fetchCtx, a.cancelFetchCtx = context.WithCancel(context.Background())
	}
}

func (a *App) buildServices() {
	a.services.repoList = repolist.BasicService{
		ProviderFactory: a.providerFactory,
		SessionStore:    a.sessionStore,
		Cache:           a.cache,
		Cfg:             a.cfg,
		FetchCtx:        a.fetchCtx,
	}
}

func NewApp(modifiers ...Modifier) *App {
	a := App{}
	for _, m := range modifiers {
		m(&a)
	}

	a.buildDeps()
	a.buildServices()

	return &a
}

func (a *App) buildBaseContext(r *http.Request) request.BaseContext {
	lctx := logutil.Context{}
	log := apperrors.WrapLogWithTracker(a.log, lctx, a.errTracker.WithHTTPRequest(r))
	log = logutil.WrapLogWithContext(log, lctx)

	return request.BaseContext{
		Ctx:       r.Context(),
		Log:       log,
		Lctx:      lctx,
		StartedAt: time.Now(),
	}
}

func (a *App) buildAnonymousRequestContext(r *http.Request) *request.AnonymousContext {
	return &request.AnonymousContext{
		BaseContext: a.buildBaseContext(r),
	}
}

func (a *App) buildRequestContext(r *http.Request) (*request.AuthorizedContext, error) {
	auth := buildAuthFromRequest(r)
	if auth == nil {
		return nil, provider.ErrUnauthorized
	}

	return &request.AuthorizedContext{
		BaseContext: a.buildBaseContext(r),
		Auth:        auth,
	}, nil
}

func buildAuthFromRequest(r *http.Request) *provider.Auth {
	token := ""
	header := r.Header.Get("Authorization")
	for _, scheme := range []string{"token ", "Bearer "} {
		if strings.HasPrefix(header, scheme) {
			token = strings.TrimPrefix(header, scheme)
			break
		}
	}
	if token == "" {
		return nil
	}

	return &provider.Auth{
		Provider:           "github.com",
		AccessToken:        token,
		PrivateAccessToken: r.Header.Get("X-Private-Access-Token"),
	}
}

func (a *App) handleListRepos(w http.ResponseWriter, r *http.Request) {
	rc, err := a.buildRequestContext(r)
	if err != nil {
		transportutil.EncodeError(w, err)
		return
	}

	req := &repolist.ListRequest{
		Refresh: r.URL.Query().Get("refresh") == "1",
	}
	req.FillLogContext(rc.Lctx)

	resp, err := a.services.repoList.List(rc, req)
	if err != nil {
		rc.Log.Errorf("GET /v1/repositories failed: %s", err)
		transportutil.EncodeError(w, err)
		return
	}

	if err = transportutil.SendJSON(w, resp); err != nil {
		rc.Log.Warnf("Can't send repo list response: %s", err)
	}
}

func (a *App) handleListInstallations(w http.ResponseWriter, r *http.Request) {
	rc, err := a.buildRequestContext(r)
	if err != nil {
		transportutil.EncodeError(w, err)
		return
	}

	resp, err := a.services.repoList.ListInstallations(rc)
	if err != nil {
		rc.Log.Errorf("GET /v1/installations failed: %s", err)
		transportutil.EncodeError(w, err)
		return
	}

	if err = transportutil.SendJSON(w, resp); err != nil {
		rc.Log.Warnf("Can't send installation list response: %s", err)
	}
}

func (a *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	rc := a.buildAnonymousRequestContext(r)

	if err := transportutil.SendJSON(w, map[string]bool{"ok": true}); err != nil {
		rc.Log.Warnf("Can't send health response: %s", err)
	}
}

func (a *App) registerHandlers(r *mux.Router) {
	r.Methods(http.MethodGet).Path("/v1/repositories").HandlerFunc(a.handleListRepos)
	r.Methods(http.MethodGet).Path("/v1/installations").HandlerFunc(a.handleListInstallations)
	r.Methods(http.MethodGet).Path("/v1/health").HandlerFunc(a.handleHealth)
}

func (a *App) RunEnvironment() {
	go a.sessionStore.RunGC(a.fetchCtx)
}

func (a *App) RunForever() {
	a.RunEnvironment()

	http.Handle("/", a.GetHTTPHandler())

	addr := fmt.Sprintf(":%d", a.cfg.GetInt("PORT", 3000))
	a.log.Infof("Listening on %s...", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		a.log.Errorf("Can't listen HTTP on %s: %s", addr, err)
		os.Exit(1)
	}
}

func (a *App) GetHTTPHandler() http.Handler {
	r := mux.NewRouter()
	a.registerHandlers(r)

	c := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(a.cfg.GetString("ALLOWED_ORIGINS"), ","),
		AllowCredentials: true,
		AllowedMethods:   []string{"GET"},
	})

	n := negroni.Classic()
	n.Use(c)
	n.UseHandler(r)
	return n
}

// Shutdown stops background fetching and session GC.
func (a *App) Shutdown() {
	if a.cancelFetchCtx != nil {
		a.cancelFetchCtx()
	}
}
