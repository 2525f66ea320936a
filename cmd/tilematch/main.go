package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/kushgupta-hiver/tilematch/internal/audio"
	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/session"
	"github.com/kushgupta-hiver/tilematch/internal/tui"
)

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func main() {
	def := engine.DefaultRules()

	rows := flag.Int("rows", def.Rows, "board rows")
	cols := flag.Int("cols", def.Cols, "board columns")
	moves := flag.Int("moves", def.Moves, "moves per game")
	seed := flag.Uint64("seed", 0, "board seed, 0 for random")
	sound := flag.Bool("sound", true, "play audio cues")
	idle := flag.Duration("idle-interval", session.DefaultIdleInterval, "idle cascade check period, 0 disables")
	levelStr := flag.String("log-level", "info", "debug|info|warn|error")
	logPath := flag.String("log-file", "", "write logs here; the terminal belongs to the game")
	flag.Parse()

	var out io.Writer = io.Discard
	if *logPath != "" {
		f, err := os.OpenFile(*logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open log: %v\n", err)
			os.Exit(1)
		}
		defer f.Close()
		out = f
	}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: parseLevel(*levelStr)}))
	slog.SetDefault(logger)

	if err := run(logger, *rows, *cols, *moves, *seed, *sound, *idle); err != nil {
		fmt.Fprintf(os.Stderr, "tilematch: %v\n", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger, rows, cols, moves int, seed uint64, sound bool, idle time.Duration) error {
	rules := engine.DefaultRules()
	rules.Rows, rules.Cols, rules.Moves = rows, cols, moves

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := session.NewRegistry(idle, logger)
	defer reg.Close()

	sess, err := reg.Create(ctx, session.Options{Rules: rules, Seed: seed, Logger: logger})
	if err != nil {
		return fmt.Errorf("create game: %w", err)
	}

	cfg := audio.DefaultConfig()
	cfg.Enabled = sound
	player := audio.New(cfg, logger)
	defer player.Close()

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("screen init: %w", err)
	}
	defer screen.Fini()

	ui := tui.New(screen, sess, tui.WithLogger(logger), tui.WithListener(player.OnEvent))
	defer ui.Close()

	logger.Info("game started", "session", sess.ID(), "rows", rules.Rows, "cols", rules.Cols, "moves", rules.Moves, "sound", player.Active())
	if err := ui.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	logger.Info("game finished", "score", sess.State().Score)
	return nil
}
