package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"github.com/hrygo/alfred/internal/profile"
	"github.com/hrygo/alfred/internal/version"
	"github.com/hrygo/alfred/plugin/ai"
	"github.com/hrygo/alfred/plugin/ai/agent"
	"github.com/hrygo/alfred/plugin/ai/agent/tools"
	"github.com/hrygo/alfred/plugin/ai/aitime"
	"github.com/hrygo/alfred/plugin/ai/memory"
	"github.com/hrygo/alfred/plugin/ai/metrics"
	"github.com/hrygo/alfred/plugin/ai/router"
	"github.com/hrygo/alfred/plugin/ai/timeout"
	"github.com/hrygo/alfred/plugin/weather"
	"github.com/hrygo/alfred/server/middleware"
	v1 "github.com/hrygo/alfred/server/router/api/v1"
	"github.com/hrygo/alfred/server/runner/background"
	"github.com/hrygo/alfred/server/service/chat"
	"github.com/hrygo/alfred/store"
	"github.com/hrygo/alfred/store/db"
)

var (
	rootCmd = &cobra.Command{
		Use:   "alfred",
		Short: "A personal assistant digital butler.",
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			// A missing .env is normal in production.
			_ = godotenv.Load()
		},
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx)
		},
	}

	historyCmd = &cobra.Command{
		Use:   "history",
		Short: "Print a user's recent chat history.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd.Context(), viper.GetString("user"), viper.GetInt("limit"))
		},
	}
)

func init() {
	viper.SetDefault("mode", "dev")
	viper.SetDefault("addr", "")
	viper.SetDefault("port", 8000)
	viper.SetDefault("driver", "sqlite")

	rootCmd.PersistentFlags().String("mode", "dev", `mode of server, can be "prod" or "dev" or "demo"`)
	rootCmd.PersistentFlags().String("addr", "", "address of server")
	rootCmd.PersistentFlags().Int("port", 8000, "port of server")
	rootCmd.PersistentFlags().String("data", "", "data directory")
	rootCmd.PersistentFlags().String("driver", "sqlite", "database driver, sqlite or postgres")
	rootCmd.PersistentFlags().String("dsn", "", "database source name")

	historyCmd.Flags().String("user", "default", "user id")
	historyCmd.Flags().Int("limit", chat.DefaultHistoryLimit, "number of entries")

	for _, name := range []string{"mode", "addr", "port", "data", "driver", "dsn"} {
		if err := viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name)); err != nil {
			panic(err)
		}
	}
	for _, name := range []string{"user", "limit"} {
		if err := viper.BindPFlag(name, historyCmd.Flags().Lookup(name)); err != nil {
			panic(err)
		}
	}

	viper.SetEnvPrefix("alfred")
	viper.AutomaticEnv()

	rootCmd.AddCommand(serveCmd, historyCmd)
}

func loadProfile() (*profile.Profile, error) {
	p := &profile.Profile{
		Mode:    viper.GetString("mode"),
		Addr:    viper.GetString("addr"),
		Port:    viper.GetInt("port"),
		Data:    viper.GetString("data"),
		Driver:  viper.GetString("driver"),
		DSN:     viper.GetString("dsn"),
		Version: version.GetCurrentVersion(),
	}
	p.FromEnv()
	if err := p.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return p, nil
}

func setupLogger(p *profile.Profile) {
	var handler slog.Handler
	if p.IsDev() {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func openStore(ctx context.Context, p *profile.Profile) (*store.Store, error) {
	dbDriver, err := db.NewDBDriver(p)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create db driver")
	}
	s := store.New(dbDriver, p)
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, errors.Wrap(err, "failed to migrate")
	}
	return s, nil
}

func runServe(ctx context.Context) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	setupLogger(p)

	s, err := openStore(ctx, p)
	if err != nil {
		return err
	}

	llmConfig := ai.NewConfigFromProfile(p)
	if err := llmConfig.Validate(); err != nil {
		_ = s.Close()
		return errors.Wrap(err, "LLM is not configured")
	}
	llm, err := ai.NewLLMService(llmConfig)
	if err != nil {
		_ = s.Close()
		return err
	}
	if !p.IsWeatherConfigured() {
		slog.Warn("weather API keys are not set, weather tools will answer as not configured")
	}

	loc := p.Location()
	clock := aitime.NewService(loc)
	metricsService := metrics.NewService()

	weatherService := weather.NewService(
		weather.NewOpenCageClient(p.OpenCageAPIKey),
		weather.NewOpenWeatherClient(p.OpenWeatherAPIKey),
		p.DefaultLocation,
		loc,
	)

	registry := agent.NewToolRegistry(tools.NewResilientToolExecutor(metricsService,
		tools.WithTimeout(p.ToolTimeout),
		tools.WithFallbackRules(tools.NewServerFallbacks(p.IsWeatherConfigured()).GetAll()),
	))
	for _, t := range tools.NewTaskTools(s, clock, tools.NewTaskResolver(llm)).All() {
		registry.MustRegister(t)
	}
	for _, t := range tools.NewMemoryTools(s).All() {
		registry.MustRegister(t)
	}
	for _, t := range tools.NewWeatherTools(weatherService).All() {
		registry.MustRegister(t)
	}

	nodes := agent.DefaultNodes(agent.NodeConfig{
		LLM:             llm,
		Now:             clock.Now,
		DefaultLocation: p.DefaultLocation,
	})
	executor, err := agent.NewExecutor(router.NewService(llm), registry, nodes,
		agent.WithStepBudget(p.StepBudget),
		agent.WithMetrics(metricsService),
	)
	if err != nil {
		_ = s.Close()
		return err
	}

	pool := background.NewPool(p.BackgroundWorkers, background.WithTaskTimeout(timeout.BackgroundTaskTimeout))
	pipeline := memory.NewPipeline(memory.NewClassifier(llm), s, pool)
	chatService := chat.NewService(s, executor, pipeline, pool, chat.WithHistoryWindow(p.HistoryWindow))

	api := v1.NewAPIV1Service(chatService, metricsService, pool, middleware.NewRateLimiter(p.RateLimitPerSec, 0), p.Version)
	e := v1.NewEchoServer()
	api.RegisterRoutes(e)

	addr := net.JoinHostPort(p.Addr, strconv.Itoa(p.Port))
	slog.Info("alfred started",
		"version", p.Version,
		"mode", p.Mode,
		"addr", addr,
		"driver", p.Driver,
		"llm", llmConfig.Provider+"/"+llmConfig.Model,
		"step_budget", executor.StepBudget())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server")
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := e.Shutdown(shutdownCtx); err != nil {
			slog.Error("http shutdown failed", "error", err)
		}

		// Pending history and memory writes finish before the store closes.
		drainCtx, cancelDrain := context.WithTimeout(context.Background(), timeout.ShutdownDrainTimeout)
		defer cancelDrain()
		if err := pool.Drain(drainCtx); err != nil {
			slog.Error("background pool did not drain", "error", err, "stats", pool.Stats())
		}
		return s.Close()
	})
	return g.Wait()
}

func runHistory(ctx context.Context, userID string, limit int) error {
	p, err := loadProfile()
	if err != nil {
		return err
	}
	setupLogger(p)

	s, err := openStore(ctx, p)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := chat.NewService(s, nil, nil, nil).History(ctx, userID, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.Timestamp.Local().Format(time.DateTime), e.Role, e.Content)
	}
	return w.Flush()
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
