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

	"stitchsense-server-go/internal/domain/eventbus"
	"stitchsense-server-go/internal/domain/orchestrator"
	platformconfig "stitchsense-server-go/internal/platform/config"
	platformerrors "stitchsense-server-go/internal/platform/errors"
	platformlogging "stitchsense-server-go/internal/platform/logging"
	platformstorage "stitchsense-server-go/internal/platform/storage"
	httptransport "stitchsense-server-go/internal/transport/http"
	httpdiagnose "stitchsense-server-go/internal/transport/http/diagnose"
	httppreview "stitchsense-server-go/internal/transport/http/preview"

	// Provider adapters register themselves with the capability registries.
	_ "stitchsense-server-go/internal/domain/providers/imagegen/gemini"
	_ "stitchsense-server-go/internal/domain/providers/imagegen/replicate"
	_ "stitchsense-server-go/internal/domain/providers/reason/gemini"
	_ "stitchsense-server-go/internal/domain/providers/reason/groq"
	_ "stitchsense-server-go/internal/domain/providers/transcribe/groq"
	_ "stitchsense-server-go/internal/domain/providers/vision/gemini"
	_ "stitchsense-server-go/internal/domain/providers/vision/openai"
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
	config     *platformconfig.Config
	configPath string
	logger     *platformlogging.Logger
	db         *gorm.DB
	records    *platformstorage.DiagnosisRepository
	orch       *orchestrator.Orchestrator
}

// Run starts the whole service lifecycle: configuration, logging, storage,
// provider construction and the HTTP server, then blocks until a signal or
// a fatal server error.
func Run(ctx context.Context) error {
	state := &appState{}

	if err := executeInitSteps(ctx, InitGraph(), state); err != nil {
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

	rootCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	signalCtx, stop := signal.NotifyContext(rootCtx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	group, groupCtx := errgroup.WithContext(rootCtx)

	if _, err := startHTTPServer(state, group, groupCtx); err != nil {
		cancel()
		return err
	}

	logger.InfoTag("Bootstrap", "all services started")

	if err := waitForShutdown(signalCtx, cancel, logger, group); err != nil {
		return err
	}

	logger.Close()
	return nil
}

// InitGraph returns the ordered initialisation steps. Dependencies are
// validated as the steps execute.
func InitGraph() []initStep {
	return []initStep{
		{
			ID:      "config:load",
			Title:   "Load configuration",
			Kind:    platformerrors.KindConfig,
			Execute: loadConfigStep,
		},
		{
			ID:        "logging:init-provider",
			Title:     "Initialise logging provider",
			DependsOn: []string{"config:load"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initLoggingStep,
		},
		{
			ID:        "storage:init-database",
			Title:     "Initialise database",
			DependsOn: []string{"config:load", "logging:init-provider"},
			Kind:      platformerrors.KindStorage,
			Execute:   initDatabaseStep,
		},
		{
			ID:        "orchestrator:init",
			Title:     "Initialise provider orchestrator",
			DependsOn: []string{"config:load", "logging:init-provider", "storage:init-database"},
			Kind:      platformerrors.KindBootstrap,
			Execute:   initOrchestratorStep,
		},
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

func loadConfigStep(_ context.Context, state *appState) error {
	result, err := platformconfig.NewLoader().Load()
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindConfig, "config:load", "failed to load configuration", err)
	}

	state.config = result.Config
	state.configPath = result.Path
	return nil
}

func initLoggingStep(_ context.Context, state *appState) error {
	if state.config == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "logging:init-provider", "config not loaded")
	}

	logger, err := platformlogging.New(platformlogging.Config{
		Level:    state.config.Log.Level,
		Dir:      state.config.Log.Dir,
		Filename: state.config.Log.File,
	})
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to initialize logging provider", err)
	}

	state.logger = logger
	platformlogging.DefaultLogger = logger

	logger.InfoTag("Bootstrap", "logging ready [%s] %s", state.config.Log.Level, state.configPath)

	if err := eventbus.SetupEventHandlers(logger); err != nil {
		return platformerrors.Wrap(platformerrors.KindBootstrap, "logging:init-provider", "failed to attach event handlers", err)
	}

	return nil
}

func initDatabaseStep(_ context.Context, state *appState) error {
	if state.config == nil || state.logger == nil {
		return platformerrors.New(platformerrors.KindStorage, "storage:init-database", "missing config/logger")
	}

	if !state.config.Storage.Enabled {
		state.logger.InfoTag("Storage", "persistence disabled, diagnoses will not be stored")
		state.records = platformstorage.NewDiagnosisRepository(nil, state.logger)
		return nil
	}

	db, err := platformstorage.Open(state.config.Storage.DSN)
	if err != nil {
		return platformerrors.Wrap(platformerrors.KindStorage, "storage:init-database", "failed to initialize database", err)
	}

	state.db = db
	state.records = platformstorage.NewDiagnosisRepository(db, state.logger)
	return nil
}

func initOrchestratorStep(_ context.Context, state *appState) error {
	if state.config == nil || state.logger == nil {
		return platformerrors.New(platformerrors.KindBootstrap, "orchestrator:init", "missing config/logger")
	}

	orch, err := orchestrator.New(state.config, state.records, state.logger)
	if err != nil {
		return err
	}

	state.orch = orch
	return nil
}

func startHTTPServer(state *appState, g *errgroup.Group, groupCtx context.Context) (*http.Server, error) {
	config := state.config
	logger := state.logger

	httpRouter, err := httptransport.Build(httptransport.Options{
		Config: config,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	router := httpRouter.Engine
	apiGroup := httpRouter.API

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, httptransport.APIResponse{
				Success: false,
				Data:    gin.H{},
				Message: "api not found",
				Code:    http.StatusNotFound,
			})
			return
		}
		c.Status(http.StatusNotFound)
	})

	diagnoseService, err := httpdiagnose.NewService(config, logger, state.orch)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "diagnose:new-service", "failed to create diagnosis service", err)
	}

	previewService, err := httppreview.NewService(config, logger, state.orch)
	if err != nil {
		return nil, platformerrors.Wrap(platformerrors.KindTransport, "preview:new-service", "failed to create preview service", err)
	}

	diagnoseService.Register(groupCtx, apiGroup)
	previewService.Register(groupCtx, apiGroup)

	apiGroup.GET("/health", func(c *gin.Context) {
		httptransport.RespondSuccess(c, http.StatusOK, gin.H{"status": "ok"}, "")
	})

	httpServer := &http.Server{
		Addr:    config.Server.IP + ":" + strconv.Itoa(config.Server.Port),
		Handler: router,
	}

	g.Go(func() error {
		logger.InfoTag("HTTP", "server listening on http://%s", httpServer.Addr)

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
	logger.InfoTag("Bootstrap", "received %v, shutting down", context.Cause(ctx))

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
		logger.ErrorTag("Bootstrap", "shutdown timed out")
		return errors.New("shutdown timed out")
	}
	return nil
}
