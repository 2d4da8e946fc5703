package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"calotrack-server-go/internal/analysis"
	domainauth "calotrack-server-go/internal/domain/auth"
	"calotrack-server-go/internal/domain/eventbus"
	domainimage "calotrack-server-go/internal/domain/image"
	"calotrack-server-go/internal/domain/meal"
	refstore "calotrack-server-go/internal/domain/meal/store"
	"calotrack-server-go/internal/persistence"
	platformconfig "calotrack-server-go/internal/platform/config"
	platformerrors "calotrack-server-go/internal/platform/errors"
	platformlogging "calotrack-server-go/internal/platform/logging"
	platformstorage "calotrack-server-go/internal/platform/storage"
	httptransport "calotrack-server-go/internal/transport/http"
	httpmeals "calotrack-server-go/internal/transport/http/meals"
)

type stepFn func(context.Context, *appState) error

type initStep struct {
	ID        string
	Title     string
	DependsOn []string
	Kind      platformerrors.Kind
	Execute   stepFn
}

type appState struct {
	configPath string
	config     *platformconfig.Config
	logger     *platformlogging.Logger
	db         *gorm.DB
	refStore   refstore.Store
	provider   *analysis.Provider
	repo       *persistence.Repository
	controller *meal.Controller
}

// Options parameterizes a service run.
type Options struct {
	ConfigPath string
}

// Run drives the whole service lifecycle: configuration, dependency
// initialisation, HTTP serving and graceful shutdown.
func Run(ctx context.Context, opts Options) error {
	state := &appState{configPath: opts.ConfigPath}

	steps := InitGraph()
	if err := executeInitSteps(ctx, steps, state); err != nil {
		return err
	}

	config := state.config
	logger := state.logger
	if config == nil || logger == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"config/logger not initialised",
		)
	}
	if state.controller == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"bootstrap state validation",
			"meal controller not initialised",
		)
	}

	logBootstrapGraph(steps, logger)

	defer func() {
		if state.refStore != nil {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := state.refStore.Close(closeCtx); err != nil {
				logger.WarnTag("Bootstrap", "reference store did not close cleanly: %v", err)
			}
		}
	}()

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.InfoTag("Bootstrap", "service stopped")
	logger.Close()
	return nil
}

func logBootstrapGraph(steps []initStep, logger *platformlogging.Logger) {
	if logger == nil {
		return
	}
	for _, step := range steps {
		logger.InfoTag("Bootstrap", "%s ready", step.Title)
	}
}

func executeInitSteps(ctx context.Context, steps []initStep, state *appState) error {
	if state == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"execute init steps",
			"nil bootstrap state",
		)
	}

	completed := make(map[string]struct{}, len(steps))
	for _, step := range steps {
		for _, dep := range step.DependsOn {
			if _, ok := completed[dep]; !ok {
				return platformerrors.New(
					platformerrors.KindBootstrap,
					step.ID,
					fmt.Sprintf("dependency %s not satisfied", dep),
				)
			}
		}
		if step.Execute == nil {
			return platformerrors.New(
				platformerrors.KindBootstrap,
				step.ID,
				"missing execute function",
			)
		}
		if err := step.Execute(ctx, state); err != nil {
			var typed *platformerrors.Error
			if errors.As(err, &typed) {
				return err
			}

			kind := step.Kind
			if kind == "" {
				kind = platformerrors.KindBootstrap
			}
			return platformerrors.Wrap(kind, step.ID, "bootstrap step failed", err)
		}
		completed[step.ID] = struct{}{}
	}
	return nil
}

// InitGraph declares the ordered initialisation steps with their
// dependencies.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "refstore:init",
			Title:     "Posted meal reference store",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindStorage,
			Execute:   initRefStoreStep,
		},
		{
			ID:        "analysis:init-provider",
			Title:     "Analysis provider",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindConfig,
			Execute:   initAnalysisStep,
		},
		{
			ID:        "persistence:init-repository",
			Title:     "Meal repository",
			DependsOn: []string{"storage:init-database"},
			Kind:      platformerrors.KindPersistence,
			Execute:   initRepositoryStep,
		},
		{
			ID:        "meal:init-controller",
			Title:     "Meal lifecycle controller",
			DependsOn: []string{"refstore:init", "analysis:init-provider", "persistence:init-repository"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initControllerStep,
		},
	}
}

func loadConfigStep(_ context.Context, state *appState) error {
	loader := platformconfig.NewLoader()
	if state.configPath != "" {
		loader = loader.WithPath(state.configPath)
	}

	config, err := loader.Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}
	state.config = config
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state == nil || state.config == nil {
		return platformerrors.New(
			platformerrors.KindBootstrap,
			"logging:init-provider",
			"config not loaded",
		)
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialise logging", err)
	}

	state.logger = logger
	platformlogging.DefaultLogger = logger

	logger.InfoTag("Bootstrap", "logging ready [%s]", state.config.Log.Level)

	eventbus.SetupEventHandlers(logger)

	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	db, err := platformstorage.Open(state.config.Database.Path)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to open database", err)
	}
	state.db = db
	return nil
}

func initRefStoreStep(_ context.Context, state *appState) error {
	store, err := buildRefStore(state.config, state.db)
	if err != nil {
		return err
	}
	state.refStore = store
	return nil
}

func buildRefStore(config *platformconfig.Config, db *gorm.DB) (refstore.Store, error) {
	driver := strings.ToLower(strings.TrimSpace(config.RefStore.Type))
	storeCfg := refstore.Config{
		Driver: driver,
		Key:    config.RefStore.Key,
	}

	switch driver {
	case "", "database", refstore.DriverSQLite:
		storeCfg.Driver = refstore.DriverSQLite
		storeCfg.SQLite = &refstore.SQLiteConfig{
			DSN: config.RefStore.SQLite.DSN,
		}
	case refstore.DriverRedis:
		storeCfg.Redis = &refstore.RedisConfig{
			Addr:     config.RefStore.Redis.Addr,
			Username: config.RefStore.Redis.Username,
			Password: config.RefStore.Redis.Password,
			DB:       config.RefStore.Redis.DB,
			Prefix:   config.RefStore.Redis.Prefix,
		}
		if storeCfg.Redis.Addr == "" {
			return nil, platformerrors.New(
				platformerrors.KindConfig,
				"refstore:init",
				"redis reference store requires an address",
			)
		}
	case refstore.DriverMemory:
		// Explicit opt-in only; the reference will not survive restarts.
	default:
		return nil, platformerrors.New(
			platformerrors.KindConfig,
			"refstore:init",
			fmt.Sprintf("unsupported reference store type: %s", driver),
		)
	}

	store, err := refstore.New(storeCfg, refstore.Dependencies{SQLiteDB: db})
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindStorage, "refstore:init", "failed to create reference store", err)
	}
	return store, nil
}

func initAnalysisStep(_ context.Context, state *appState) error {
	selected := state.config.Selected.Analysis
	if selected == "" {
		return platformerrors.New(
			platformerrors.KindConfig,
			"analysis:init-provider",
			"no analysis provider selected",
		)
	}

	providerCfg, ok := state.config.Analysis[selected]
	if !ok {
		return platformerrors.New(
			platformerrors.KindConfig,
			"analysis:init-provider",
			fmt.Sprintf("analysis provider %q not configured", selected),
		)
	}

	provider, err := analysis.NewProvider(selected, &providerCfg, state.logger)
	if err != nil {
		return err
	}
	state.provider = provider
	return nil
}

func initRepositoryStep(_ context.Context, state *appState) error {
	language := ""
	if cfg, ok := state.config.Analysis[state.config.Selected.Analysis]; ok {
		language = cfg.Language
	}

	repo, err := persistence.NewRepository(state.db, state.logger, language)
	if err != nil {
		return err
	}
	state.repo = repo
	return nil
}

func initControllerStep(ctx context.Context, state *appState) error {
	language := ""
	if cfg, ok := state.config.Analysis[state.config.Selected.Analysis]; ok {
		language = cfg.Language
	}

	controller, err := meal.NewController(meal.Options{
		Analyzer:  state.provider,
		Persister: state.repo,
		Refs:      state.refStore,
		Validator: domainimage.NewValidator(&state.config.Image, state.logger),
		Logger:    state.logger,
		Language:  language,
	})
	if err != nil {
		return err
	}

	if err := controller.Restore(ctx); err != nil {
		return err
	}

	state.controller = controller
	return nil
}

func startHTTPServer(
	state *appState,
	g *errgroup.Group,
	groupCtx context.Context,
) (*http.Server, error) {
	config := state.config
	logger := state.logger

	var authMiddleware gin.HandlerFunc
	if config.Server.Auth.Enabled {
		token := domainauth.NewAuthToken(config.Server.Auth.Secret).
			WithTTL(config.Server.Auth.TokenTTL)
		authMiddleware = httptransport.AuthMiddleware(token)
	}

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config:         config,
		Logger:         logger,
		AuthMiddleware: authMiddleware,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine

	router.NoRoute(func(c *gin.Context) {
		httptransport.RespondError(c, http.StatusNotFound, "not found", gin.H{})
	})

	mealService, err := httpmeals.NewService(config, logger, state.controller, state.repo)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "meals:new-service", "failed to create meal service", err)
	}

	routeGroup := httpRouter.API
	if httpRouter.Secured != nil {
		routeGroup = httpRouter.Secured
	}
	if err := mealService.Register(groupCtx, routeGroup); err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "meals:register", "failed to register meal routes", err)
	}

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on %s", httpServer.Addr)

		go func() {
			<-groupCtx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				logger.ErrorTag("HTTP", "server shutdown failed: %v", err)
			} else {
				logger.InfoTag("HTTP", "server shut down cleanly")
			}
		}()

		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.ErrorTag("HTTP", "server failed: %v", err)
			return err
		}
		return nil
	})

	return httpServer, nil
}

func waitForShutdown(
	ctx context.Context,
	cancel context.CancelFunc,
	logger *platformlogging.Logger,
	g *errgroup.Group,
) error {
	<-ctx.Done()
	logger.InfoTag("Bootstrap", "shutdown signal received: %v", context.Cause(ctx))

	cancel()

	done := make(chan error, 1)
	go func() {
		done <- g.Wait()
	}()

	select {
	case err := <-done:
		if err != nil {
			logger.ErrorTag("Bootstrap", "error during shutdown: %v", err)
			return err
		}
		logger.InfoTag("Bootstrap", "all services stopped")
	case <-time.After(15 * time.Second):
		timeoutErr := errors.New("shutdown timed out")
		logger.ErrorTag("Bootstrap", "shutdown timed out, forcing exit")
		return timeoutErr
	}
	return nil
}
