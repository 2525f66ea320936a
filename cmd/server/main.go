package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/kushgupta-hiver/tilematch/internal/engine"
	"github.com/kushgupta-hiver/tilematch/internal/session"
	"github.com/kushgupta-hiver/tilematch/internal/transport/ws"
)

// statusWriter captures HTTP status and bytes written.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Hijack lets websocket upgrades pass through the logger.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hj, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	w.status = http.StatusSwitchingProtocols
	return hj.Hijack()
}

func requestLogger(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w}
		next.ServeHTTP(sw, r)
		logger.Info("http",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sw.status,
			"bytes", sw.bytes,
			"dur", time.Since(start).Round(time.Millisecond),
		)
	})
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return def
}

func envInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return n
	}
	return def
}

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

	addr := flag.String("addr", envOr("ADDR", ":8000"), "listen address")
	levelStr := flag.String("log-level", envOr("LOG_LEVEL", "info"), "debug|info|warn|error")
	idle := flag.Duration("idle-interval", envDuration("IDLE_INTERVAL", session.DefaultIdleInterval), "idle cascade check period, 0 disables")
	rows := flag.Int("rows", envInt("ROWS", def.Rows), "board rows")
	cols := flag.Int("cols", envInt("COLS", def.Cols), "board columns")
	moves := flag.Int("moves", envInt("MOVES", def.Moves), "moves per game")
	seed := flag.Uint64("seed", 0, "board seed shared by every game, 0 for random")
	origins := flag.String("origins", envOr("ORIGINS", ""), "comma separated websocket origin patterns")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(*levelStr)}))
	slog.SetDefault(logger)

	rules := def
	rules.Rows, rules.Cols, rules.Moves = *rows, *cols, *moves
	if _, err := rules.Validate(); err != nil {
		logger.Error("invalid rules", "err", err)
		os.Exit(2)
	}

	reg := session.NewRegistry(*idle, logger)
	defer reg.Close()

	cfg := ws.Config{Rules: rules, Seed: *seed, Logger: logger}
	if *origins != "" {
		cfg.OriginPatterns = strings.Split(*origins, ",")
	}
	wsHandler := ws.NewServer(cfg, reg)

	mux := http.NewServeMux()
	mux.Handle("/ws", wsHandler)  // new game
	mux.Handle("/ws/", wsHandler) // attach: /ws/<id>
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "ok games=%d\n", reg.Len())
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("tilematch WS server.\nTry: ws://<host>/ws  (new game)\nOr:  ws://<host>/ws/<id>  (attach)\n"))
	})

	srv := &http.Server{
		Addr:              *addr,
		Handler:           requestLogger(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", *addr, "rows", rules.Rows, "cols", rules.Cols, "moves", rules.Moves, "idle", *idle)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", "err", err)
		os.Exit(1)
	}
}
