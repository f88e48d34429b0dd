package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"

	"peervod/internal/config"
	"peervod/internal/httpapi"
	"peervod/internal/search"
	"peervod/internal/session"
)

func main() {
	_ = godotenv.Load(".env")

	config.Load()
	config.SetupLogging()

	reg, err := session.NewRegistry(config.CacheDir(), config.WaitMetadata(), config.IdleTimeout())
	if err != nil {
		log.Fatal(err)
	}
	eng := search.NewEngineFromConfig()
	api := httpapi.New(reg, eng)

	addr := config.ListenAddr()
	log.Printf("[boot] peervod listening on %s cache=%s waitMetadata=%s idleTimeout=%s trackersMode=%s wipe=%02d:00 %s",
		addr, config.CacheDir(), config.WaitMetadata(), config.IdleTimeout(),
		config.TrackersMode(), config.WipeHour(), config.WipeTZ())

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// daily cache wipe
	go session.RunWipeScheduler(rootCtx, reg, config.WipeHour(), config.WipeTZ())

	srv := &http.Server{
		Addr:     addr,
		Handler:  api.Routes(),
		ErrorLog: log.New(log.Writer(), "[http] ", 0),
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-rootCtx.Done()
	log.Printf("[boot] shutdown requested")

	shCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)

	reg.Close()
	log.Printf("[boot] shutdown complete")
}
