package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	guardinadapter "pomoguard/internal/modules/guard/adapter/in"
	guardoutadapter "pomoguard/internal/modules/guard/adapter/out"
	guarddomain "pomoguard/internal/modules/guard/domain"
	guardin "pomoguard/internal/modules/guard/port/in"
	guardservice "pomoguard/internal/modules/guard/service"
	guardusecase "pomoguard/internal/modules/guard/usecase"
	settingsinadapter "pomoguard/internal/modules/settings/adapter/in"
	settingsoutadapter "pomoguard/internal/modules/settings/adapter/out"
	settingsin "pomoguard/internal/modules/settings/port/in"
	settingsservice "pomoguard/internal/modules/settings/service"
	settingsusecase "pomoguard/internal/modules/settings/usecase"
	timerinadapter "pomoguard/internal/modules/timer/adapter/in"
	timeroutadapter "pomoguard/internal/modules/timer/adapter/out"
	timerin "pomoguard/internal/modules/timer/port/in"
	timerout "pomoguard/internal/modules/timer/port/out"
	timerservice "pomoguard/internal/modules/timer/service"
	timerusecase "pomoguard/internal/modules/timer/usecase"
	"pomoguard/internal/platform/clock"
	"pomoguard/internal/platform/config"
	"pomoguard/internal/platform/httpserver"
	"pomoguard/internal/platform/id"
	"pomoguard/internal/platform/kv"
	"pomoguard/internal/platform/logger"
	uiapp "pomoguard/internal/ui/app"
	"pomoguard/internal/ui/push"
)

type App struct {
	Config config.Config
	Log    logger.Logger

	TimerCLI    timerinadapter.CLIHandler
	SettingsCLI settingsinadapter.CLIHandler
	GuardCLI    guardinadapter.CLIHandler

	timer    timerin.Usecase
	settings settingsin.Usecase
	guard    guardin.Usecase
	closers  []io.Closer
}

func New(cfg config.Config, log logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	app := &App{Config: cfg, Log: log}

	db, err := kv.OpenDB(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	app.closers = append(app.closers, db)

	store, err := openStore(cfg, db)
	if err != nil {
		_ = app.Close()
		return nil, err
	}
	app.closers = append(app.closers, store)

	settingsUC := settingsusecase.NewInteractor(settingsservice.NewSettingsService(
		settingsoutadapter.NewKVSettingsStore(store),
		settingsoutadapter.NewYAMLCodec(),
	))

	history, err := timeroutadapter.NewSQLiteHistoryStore(db)
	if err != nil {
		_ = app.Close()
		return nil, fmt.Errorf("new history store: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	clk := clock.SystemClock{}
	ids := id.UUID{}
	bridge := timeroutadapter.NewSettingsBridge(settingsUC)
	engine := timerservice.NewEngine(timerservice.EngineDeps{
		Clock:    clk,
		Tickers:  clk,
		Store:    timeroutadapter.NewKVSnapshotStore(store),
		Settings: bridge,
		Notifier: newNotifier(cfg, log),
		Badge:    timeroutadapter.NewFileBadge(cfg.BadgePath()),
		History:  history,
		Metrics:  timeroutadapter.NewPrometheusMetrics(reg),
		IDs:      ids,
		Log:      log,
	})

	daemonSvc := timerservice.NewDaemonService(timerservice.DaemonConfig{
		HomePath:  cfg.HomePath,
		HTTPAddr:  cfg.HTTPAddr,
		Engine:    engine,
		Installer: bridge,
		History:   history,
		Daemon:    timeroutadapter.NewFileDaemonStore(cfg.DaemonDir()),
		IPCServer: timeroutadapter.NewJSONRPCServer(),
		IPCClient: timeroutadapter.NewJSONRPCClient(),
		Log:       log,
	})
	timerUC := timerusecase.NewInteractor(daemonSvc)

	guardSvc := guardservice.NewService(guardservice.Config{
		State:    guardoutadapter.NewTimerStateAdapter(timerUC),
		Sites:    guardoutadapter.NewSettingsSitesAdapter(settingsUC),
		Metrics:  guardoutadapter.NewPrometheusMetrics(reg),
		Clock:    clk,
		Tickers:  clk,
		IDs:      ids,
		BlockURL: blockURL(cfg.HTTPAddr),
		Log:      log,
	})
	guardUC := guardusecase.NewInteractor(guardSvc)

	components := []timerout.Component{guardSvc}
	if cfg.HTTPAddr != "" {
		httpSrv := httpserver.New(httpserver.Config{
			Addr:      cfg.HTTPAddr,
			RateLimit: cfg.RateLimit,
			RateBurst: cfg.RateBurst,
			Gatherer:  reg,
		}, log)
		timerinadapter.NewHTTPHandler(timerUC, log).Register(httpSrv.API())
		guardinadapter.NewHTTPHandler(guardUC, log).Register(httpSrv.Router(), httpSrv.API())
		components = append(components, httpSrv)
	}
	daemonSvc.Attach(components...)

	app.timer = timerUC
	app.settings = settingsUC
	app.guard = guardUC
	app.TimerCLI = timerinadapter.NewCLIHandler(timerUC)
	app.SettingsCLI = settingsinadapter.NewCLIHandler(settingsUC)
	app.GuardCLI = guardinadapter.NewCLIHandler(guardUC)
	return app, nil
}

// Close releases stores in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func RunTUI(app *App) error {
	var stream uiapp.StreamFunc
	if app.Config.HTTPAddr != "" {
		stream = push.New(app.Config.HTTPAddr).Stream
	}
	model := uiapp.NewModel(app.timer, app.settings, app.guard, stream)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}

func openStore(cfg config.Config, db *sql.DB) (kv.Store, error) {
	switch cfg.Store {
	case config.StoreRedis:
		store, err := kv.NewRedis(context.Background(), kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Profile:  cfg.Profile,
		})
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return store, nil
	case config.StoreMemory:
		return kv.NewMemory(), nil
	default:
		store, err := kv.NewSQLite(db)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}

func newNotifier(cfg config.Config, log logger.Logger) timerout.Notifier {
	if cfg.Notifier == config.NotifierLog {
		return timeroutadapter.NewLogNotifier(log)
	}
	return timeroutadapter.NewDesktopNotifier(log)
}

func blockURL(httpAddr string) string {
	addr := strings.TrimSpace(httpAddr)
	if addr == "" {
		return guarddomain.DefaultBlockURL
	}
	return "http://" + addr + guarddomain.BlockPath
}
