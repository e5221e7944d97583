package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/iburimskiy/matrix-rain/internal/config"
	"github.com/iburimskiy/matrix-rain/internal/game"
	"github.com/iburimskiy/matrix-rain/internal/logging"
	"github.com/iburimskiy/matrix-rain/internal/metrics"
	"github.com/iburimskiy/matrix-rain/internal/preset"
	"github.com/iburimskiy/matrix-rain/internal/rain"
	"github.com/iburimskiy/matrix-rain/internal/terminal"
)

type fixedParams rain.Params

func (p fixedParams) Snapshot() (rain.Params, error) { return rain.Params(p), nil }

func main() {
	var (
		configPath  = flag.String("config", "", "YAML config file (optional)")
		backend     = flag.String("backend", "window", "output: window, terminal or headless")
		frames      = flag.Int("frames", 300, "ticks to render in headless mode")
		outPath     = flag.String("out", "matrix.png", "PNG written in headless mode")
		presetPath  = flag.String("presets", "", "preset file, overrides the config")
		metricsAddr = flag.String("metrics-addr", "", "serve Prometheus metrics on this address, overrides the config")
		seed        = flag.Int64("seed", 0, "random seed, 0 picks one")
		verbose     = flag.Bool("verbose", false, "debug logging")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	if *presetPath != "" {
		cfg.Presets.Path = *presetPath
	}
	if *metricsAddr != "" {
		cfg.Metrics.Addr = *metricsAddr
	}
	if *seed != 0 {
		cfg.Engine.Seed = *seed
	}
	if *verbose {
		cfg.Log.Level = "debug"
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, *backend, *frames, *outPath, logger); err != nil {
		logger.Error("matrix rain failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(cfg *config.Config, backend string, frames int, outPath string, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	font, err := rain.LoadFont(cfg.Glyphs.FontPath)
	if err != nil {
		return err
	}
	var symbols []rune
	if cfg.Glyphs.Symbols != "" {
		symbols = []rune(cfg.Glyphs.Symbols)
	}
	glyphs := rain.NewGlyphSet(font, symbols)
	logger.Debug("glyph set ready", zap.Int("symbols", len(glyphs.Symbols())))

	seed := cfg.Engine.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	engine, err := rain.NewEngine(cfg.RainEngine(), glyphs, rand.New(rand.NewSource(seed)))
	if err != nil {
		return err
	}

	book, err := openBook(ctx, cfg, logger)
	if err != nil {
		return err
	}

	frameMetrics := metrics.New()
	if cfg.Metrics.Addr != "" {
		frameMetrics.Serve(ctx, cfg.Metrics.Addr, logger)
	}

	logger.Info("starting", zap.String("backend", backend), zap.Int64("seed", seed))
	switch backend {
	case "window":
		g := game.New(ctx, game.Options{
			Config:   cfg,
			Engine:   engine,
			Book:     book,
			Observer: frameMetrics,
			Logger:   logger,
		})
		return game.Run(g)

	case "terminal":
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("failed to open terminal: %w", err)
		}
		defer screen.Fini()
		return terminal.Run(ctx, screen, engine, terminal.Options{
			Params:   cfg.InitialParams(),
			Book:     book,
			Observer: frameMetrics,
			Logger:   logger,
			Interval: time.Second / time.Duration(cfg.Engine.TPS),
		})

	case "headless":
		return renderHeadless(ctx, engine, cfg.InitialParams(), frames, outPath, logger)

	default:
		return fmt.Errorf("unknown backend %q", backend)
	}
}

func openBook(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*preset.Book, error) {
	var store preset.Store
	switch cfg.Presets.Backend {
	case "gdata":
		s, err := preset.OpenGDataStore(cfg.Presets.AppName)
		if err != nil {
			return nil, err
		}
		store = s
	default:
		store = preset.NewFileStore(cfg.Presets.Path, logger)
	}

	book := preset.NewBook(store, logger)
	if err := book.Reload(); err != nil {
		logger.Warn("presets unavailable, starting empty", zap.Error(err))
	}
	if cfg.Presets.Watch && cfg.Presets.Backend == "file" {
		if _, err := preset.WatchBook(ctx, cfg.Presets.Path, book, logger); err != nil {
			logger.Warn("not watching preset file", zap.Error(err))
		}
	}
	return book, nil
}

// renderHeadless runs frames ticks with no display and writes the last
// composited frame as a PNG.
func renderHeadless(ctx context.Context, engine *rain.Engine, params rain.Params, frames int, outPath string, logger *zap.Logger) error {
	out := rain.NewSoftwareCompositor()
	sched := rain.NewScheduler(engine, fixedParams(params), nil, out, rain.WithLogger(logger))
	for i := 0; i < frames; i++ {
		if err := sched.Step(ctx); err != nil {
			if errors.Is(err, rain.ErrStopped) {
				break
			}
			return err
		}
	}
	img := out.Output()
	if img == nil {
		return errors.New("no frame rendered")
	}

	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	logger.Info("frame written", zap.String("file", outPath), zap.Uint64("ticks", sched.Ticks()))
	sched.Stop()
	return nil
}
