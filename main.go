// main.go
//
// HTTP solver service.
// Responsibilities:
//   - Load configuration and set up logging.
//   - Build the shared dictionary loader (and the pattern table when configured).
//   - Serve sessions over HTTP, sweep idle ones, shut down gracefully on SIGINT/SIGTERM.

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Storm-fyre/silversolver/internal/config"
	"github.com/Storm-fyre/silversolver/internal/feedback"
	"github.com/Storm-fyre/silversolver/internal/httpserver"
	"github.com/Storm-fyre/silversolver/internal/pattern"
	"github.com/Storm-fyre/silversolver/internal/session"
	"github.com/Storm-fyre/silversolver/internal/store"
	"github.com/Storm-fyre/silversolver/internal/worker"
	"github.com/Storm-fyre/silversolver/internal/words"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	cfg.SetupLogging()
	if cfg.TokenSecret == config.DevTokenSecret {
		log.Warn().Msg("TOKEN_SECRET not set, using development secret")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.EmbeddedWords() {
		log.Warn().Msg("no WORDS_DB or WORDS_GUESSES_FILE set, using the embedded sample word lists")
	}
	loader := words.NewLoader(words.SourceFor(cfg.WordsDB, cfg.WordsGuessesFile, cfg.WordsSolutionsFile))
	enc := loadEncoder(ctx, loader, cfg.PatternTable)

	sessions := store.NewMemoryStore(func(id string) *worker.Worker {
		return worker.Start(session.New(loader,
			session.WithLogger(log.With().Str("session", id).Logger()),
			session.WithHardMode(cfg.HardMode),
			session.WithEncoder(enc),
			session.WithWorkers(cfg.ScoreWorkers),
		))
	})
	defer sessions.Close()
	go store.RunSweeper(ctx, sessions, time.Minute, cfg.SessionIdle)

	tokens := httpserver.NewTokens(cfg.TokenSecret, cfg.TokenTTL)
	tokens.Secure = strings.HasPrefix(cfg.ClientOrigin, "https://")

	srv := httpserver.New(httpserver.Options{
		Store:        sessions,
		Loader:       loader,
		Tokens:       tokens,
		ClientOrigin: cfg.ClientOrigin,
		RateLimitRPS: cfg.RateLimitRPS,
		RateBurst:    cfg.RateLimitBurst,
	})

	hs := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	idleConnsClosed := make(chan struct{})
	go func() {
		<-ctx.Done()
		log.Info().Msg("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			log.Warn().Err(err).Msg("http shutdown")
		}
		close(idleConnsClosed)
	}()

	log.Info().Str("port", cfg.Port).Bool("hard", cfg.HardMode).Msg("starting silversolver")
	if err := hs.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("server exited")
	}
	<-idleConnsClosed
	log.Info().Int("sessions", sessions.Len()).Msg("server stopped")
}

// loadEncoder returns a pattern-table lookup when path names a table that
// matches the dictionary, and feedback.Encode otherwise.
func loadEncoder(ctx context.Context, loader *words.Loader, path string) feedback.Func {
	if path == "" {
		return feedback.Encode
	}
	dict, err := loader.Load(ctx)
	if err != nil {
		// Sessions will report the failure themselves.
		return feedback.Encode
	}
	tbl, err := pattern.LoadFile(path, dict.Guesses, dict.Solutions)
	if err != nil {
		log.Warn().Err(err).Str("path", path).Msg("pattern table unusable, computing feedback directly")
		return feedback.Encode
	}
	g, s := tbl.Size()
	log.Info().Str("path", path).Int("guesses", g).Int("solutions", s).Msg("pattern table loaded")
	return tbl.Encode
}
