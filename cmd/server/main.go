package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/studyhive/studyhive/internal/adapters/http"
	"github.com/studyhive/studyhive/internal/app"
	"github.com/studyhive/studyhive/internal/config"
	"github.com/studyhive/studyhive/internal/domain"
	"github.com/studyhive/studyhive/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open room store")
	}
	defer st.Close()

	if err := seedRooms(ctx, st, cfg.SeedRooms); err != nil {
		log.Fatal().Err(err).Msg("failed to seed rooms")
	}

	reg := app.NewRegistry()
	rooms := app.NewDirectory(st)
	if err := rooms.Hydrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to hydrate room directory")
	}
	orch := app.NewOrchestrator(reg, rooms, st)

	r := router.SetupRouter(ctx, cfg, orch)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("StudyHive server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}

// seedRooms inserts the configured rooms when the store is empty so the
// listing view has something to show on first run.
func seedRooms(ctx context.Context, st store.RoomStore, seeds []config.SeedRoom) error {
	count, err := st.CountRooms(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, seed := range seeds {
		room := &domain.Room{
			ID:        domain.NewRoomID(),
			Name:      seed.Name,
			Topic:     seed.Topic,
			Targets:   []string{},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := st.InsertRoom(ctx, room); err != nil {
			return err
		}
		log.Info().Str("room", seed.Name).Msg("seeded room")
	}
	return nil
}
