package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mbolis/survey-forms/app"
	"github.com/mbolis/survey-forms/config"
	"github.com/mbolis/survey-forms/database"
	"github.com/mbolis/survey-forms/httpx"
	"github.com/mbolis/survey-forms/log"
	"github.com/mbolis/survey-forms/model"
	"github.com/mbolis/survey-forms/routes"
	"github.com/mbolis/survey-forms/store"
)

func main() {
	cfg, err := config.ParseFlags()
	if err != nil {
		log.Fatal("main.config:", err)
	}
	level := log.InfoLevel
	if cfg.Debug {
		level = log.DebugLevel
	}
	log.SetLevel(level)

	db, err := database.Open(cfg)
	if err != nil {
		log.Fatal("main.db.open:", err)
	}
	st := store.New(db)
	defer st.Close()

	if cfg.AdminUser != "" {
		admin := model.User{Username: cfg.AdminUser, IsAdmin: true}
		created, err := st.EnsureUser(context.Background(), &admin, cfg.AdminPassword)
		if err != nil {
			log.Fatal("main.admin:", err)
		}
		if created {
			log.Infof("created administrator %q", admin.Username)
		}
	}

	app := app.App{
		Store:        st,
		BearerServer: httpx.NewBearerServer(st, cfg),
		Config:       cfg,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	handler := routes.Wire(ctx, app)

	err = runServer(ctx, cfg, handler)
	if !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("main.server:", err)
	}
}

// runServer serves until ctx is done, then drains open requests.
func runServer(ctx context.Context, cfg config.Config, handler http.Handler) error {
	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      handler,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Errorf("main.server.shutdown: %s", err)
		}
	}()

	log.Info("Listening on " + cfg.Url())
	return srv.ListenAndServe()
}
