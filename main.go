package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/gdamore/tcell/v2"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/flock/config"
	"github.com/pthm-cable/flock/experiment"
	"github.com/pthm-cable/flock/renderer"
	"github.com/pthm-cable/flock/server"
	"github.com/pthm-cable/flock/telemetry"
	"github.com/pthm-cable/flock/tui"
)

// perfLogFrames is the number of viewer frames between perf log lines.
const perfLogFrames = 300

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	headless := flag.Bool("headless", false, "Run the scenario sweep without graphics")
	terminal := flag.Bool("tui", false, "Run the terminal viewer")
	serve := flag.Bool("serve", false, "Stream the swarm over WebSocket")
	addr := flag.String("addr", "", "Listen address for -serve (empty = use config)")
	logStats := flag.Bool("log-stats", false, "Output stats via slog")
	outputDir := flag.String("output-dir", "", "Output directory for CSV logs and config snapshot")
	seed := flag.Int64("seed", 0, "RNG seed (0 = config seed for -headless, time-based otherwise)")
	trials := flag.Int("trials", 0, "Trials per scenario (0 = use config)")
	maxSteps := flag.Int("max-steps", 0, "Step cap per run (0 = use config)")

	flag.Parse()

	// Initialize config before anything else
	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()

	if *trials > 0 {
		cfg.Experiment.Trials = *trials
	}
	if *maxSteps > 0 {
		cfg.Experiment.MaxSteps = *maxSteps
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	cfg.Refresh()
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Structured JSON to stdout for machine-read modes, text to stderr next to a UI
	if *headless || *serve {
		slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))
	} else {
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	var err error
	switch {
	case *headless:
		if *seed != 0 {
			cfg.Experiment.Seed = *seed
		}
		err = runHeadless(ctx, cfg, *outputDir, *logStats)
	case *serve:
		err = runServer(ctx, cfg, viewerSeed(*seed))
	case *terminal:
		err = runTerminal(ctx, cfg, viewerSeed(*seed))
	default:
		err = runWindow(cfg, viewerSeed(*seed), *logStats)
	}
	if err != nil {
		slog.Error("exiting", "error", err)
		os.Exit(1)
	}
}

func viewerSeed(seed int64) int64 {
	if seed == 0 {
		return time.Now().UnixNano()
	}
	return seed
}

func runHeadless(ctx context.Context, cfg *config.Config, outputDir string, logStats bool) error {
	out, err := telemetry.NewOutputManager(outputDir)
	if err != nil {
		return err
	}
	defer out.Close()

	slog.Info("starting scenario sweep",
		"scenarios", len(cfg.Derived.Scenarios),
		"trials", cfg.Experiment.Trials,
		"seed", cfg.Experiment.Seed,
		"max_steps", cfg.Experiment.MaxSteps,
		"predator", cfg.Predator.Enabled,
		"output_dir", out.Dir(),
	)

	res, err := experiment.NewRunner(cfg, out, logStats).Run(ctx)
	if err != nil {
		return err
	}
	for _, s := range res.Summaries {
		if s.Metric == telemetry.MetricSteps.Name {
			s.LogStats()
		}
	}
	return out.Close()
}

func runServer(ctx context.Context, cfg *config.Config, seed int64) error {
	srv, err := server.New(cfg, seed)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	httpSrv := &http.Server{Addr: cfg.Server.Addr, Handler: srv.Handler()}
	errc := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Server.Addr, "path", cfg.Server.Path)
		err := httpSrv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errc <- err
		// A listener failure stops the stream loop too
		cancel()
	}()

	runErr := srv.Run(ctx)

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	if err := <-errc; err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return runErr
}

func runTerminal(ctx context.Context, cfg *config.Config, seed int64) error {
	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("creating terminal screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("initializing terminal screen: %w", err)
	}
	defer screen.Fini()
	screen.EnableMouse()

	v, err := tui.NewViewer(screen, cfg, seed)
	if err != nil {
		return err
	}
	defer v.Close()

	if err := v.Run(ctx, cfg.Screen.TargetFPS); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runWindow(cfg *config.Config, seed int64, logStats bool) error {
	rl.SetConfigFlags(rl.FlagWindowResizable)
	rl.InitWindow(int32(cfg.Screen.Width), int32(cfg.Screen.Height), "Flock")
	defer rl.CloseWindow()

	rl.SetTargetFPS(int32(cfg.Screen.TargetFPS))

	var perf *telemetry.PerfCollector
	if logStats {
		perf = telemetry.NewPerfCollector(cfg.Telemetry.PerfWindow)
	}

	v, err := renderer.NewViewer(cfg, seed, perf)
	if err != nil {
		return err
	}
	defer v.Unload()

	for frame := 1; !rl.WindowShouldClose(); frame++ {
		if err := v.Update(); err != nil {
			return err
		}
		v.Draw()

		if perf == nil {
			continue
		}
		perf.RecordFrame()
		if frame%perfLogFrames == 0 {
			perf.Stats().LogStats()
		}
	}
	return nil
}
