package relay

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/cors"
	"github.com/tanwk/relay/core"
	"github.com/tanwk/relay/pkg/router"
)

type App struct {
	config      *Config
	context     context.Context
	server      *http.Server
	logger      *slog.Logger
	router      *router.Router
	eventRouter *core.EventRouter
	wsManager   *core.ConnManager

	chatLog     core.ChatLog
	rooms       *core.RoomRegistry
	broadcaster *core.Broadcaster

	historyHandler *HistoryHandler

	exit chan int

	cleanupFuncs []func(context.Context)

	wg sync.WaitGroup
}

func New(ctx context.Context, config *Config) *App {
	app := &App{
		exit: make(chan int),
	}
	if ctx == nil {
		ctx, _ = signal.NotifyContext(
			context.Background(),
			syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)
	}
	app.context = ctx

	if config == nil {
		var err error
		config, err = LoadConfig()
		if err != nil {
			failed(1, "failed to load config: %v\n", err)
		}
	}
	if err := config.Validate(); err != nil {
		failed(1, FormatValidationErrors(err))
	}
	app.config = config

	app.logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug,
		AddSource: true,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.SourceKey {
				source, _ := a.Value.Any().(*slog.Source)
				if source != nil {
					source.File = filepath.Base(source.File)
				}
			}
			return a
		},
	}))

	app.chatLog = core.NewFileChatLog(app.config.Log.File)
	app.rooms = core.NewRoomRegistry()
	app.broadcaster = core.NewBroadcaster(app.chatLog, app.rooms, app.logger)

	app.wsManager = core.NewConnManager(app.context, &app.wg, app.logger,
		core.WithCheckOrigin(originChecker(app.config.AllowedOrigins)))
	app.wsManager.OnConnect(app.onConnect)
	app.wsManager.OnDisconnect(app.onDisconnect)

	app.eventRouter = core.NewEventRouter(app.context, app.logger, app.wsManager)
	app.eventRouter.On(core.LoginEvent, app.LoginEventHandler)
	app.eventRouter.On(core.ChatMessageEvent, app.MessageEventHandler)

	app.historyHandler = NewHistoryHandler(app.chatLog)

	app.router = router.New(router.WithLogger(app.logger))

	app.router.Router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   app.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	wsRouter := app.router
	if len(app.config.Auth.Secret) > 0 {
		wsRouter = app.router.With(BearerMiddleware(app.config.Auth.Secret))
	}
	wsRouter.Router.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
		if err := app.wsManager.Connect(w, r); err != nil {
			app.logger.Error(fmt.Sprintf("websocket connect: %v", err))
		}
	})

	api := router.New(router.WithLogger(app.logger))
	api.Get("/messages", app.historyHandler.GetMessagesHandler)

	app.router.Mount("/api", api)

	app.server = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", app.config.Hostname, app.config.Port),
		Handler: app.router.Router,
		BaseContext: func(listener net.Listener) context.Context {
			return app.context
		},
	}
	if app.config.Mode == ProdMode {
		app.server.TLSConfig = &defaultTLSConfig
	}

	return app
}

func (app *App) Start() {
	app.eventRouter.Listen()
	app.AddCleanupFunc(func(ctx context.Context) {
		app.eventRouter.Close(ctx)
	})

	// listen for shutdown signal
	go func() {
		<-app.context.Done()
		closeCtx, closeCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer closeCancel()
		var wg sync.WaitGroup

		for _, f := range app.cleanupFuncs {
			wg.Add(1)
			func(wg *sync.WaitGroup) {
				defer wg.Done()
				f(closeCtx)
			}(&wg)
		}

		done := make(chan struct{})
		go func() {
			wg.Wait()
			close(done)
		}()

		select {
		case <-done:
			app.logger.Info("app shutdown gracefully")
			app.exit <- 0
		case <-closeCtx.Done():
			app.logger.Info("app shutdown timed out")
			app.exit <- 1
		}
	}()

	app.AddCleanupFunc(func(ctx context.Context) {
		app.server.Shutdown(ctx)
	})
	app.logger.Info(fmt.Sprintf("app running in %s mode on: %s:%d",
		app.config.Mode, app.config.Hostname, app.config.Port))

	var err error
	if app.config.TLS.Key != "" && app.config.TLS.Crt != "" {
		err = app.server.ListenAndServeTLS(app.config.TLS.Crt, app.config.TLS.Key)
	} else {
		err = app.server.ListenAndServe()
	}
	if err != nil && err != http.ErrServerClosed {
		failed(1, "server error: %v\n", err)
	}

	code := <-app.exit
	if code != 0 {
		failed(code, "app exit with code: %d\n", code)
	} else {
		os.Exit(code)
	}
}

func (app *App) AddCleanupFunc(f func(context.Context)) {
	app.cleanupFuncs = append(app.cleanupFuncs, f)
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if slices.Contains(allowed, "*") {
		return func(r *http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			// non-browser client
			return true
		}
		return slices.Contains(allowed, origin)
	}
}

func failed(code int, s string, args ...interface{}) {
	fmt.Printf(s, args...)
	os.Exit(code)
}
