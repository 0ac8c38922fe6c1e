package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nestlist/internal/blob"
	"nestlist/internal/config"
	"nestlist/internal/server"
	"nestlist/internal/store"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	cfg, err := config.Load(os.Getenv("NESTLIST_CONFIG"))
	if err != nil {
		log.Error("config", "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	st, err := store.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Error("db open", "err", err)
		os.Exit(1)
	}
	defer st.Close()

	if err := st.Migrate(context.Background()); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}

	blobs, err := blob.New(cfg.DataDir, cfg.BaseURL, cfg.MaxUploadBytes)
	if err != nil {
		log.Error("blob store", "err", err)
		os.Exit(1)
	}

	mux := http.NewServeMux()

	// App shell and assets. The SPA handles its own routing, so anything
	// outside /api/ and /files/ gets index.html.
	webFS := http.FileServer(http.Dir(cfg.WebDir))
	mux.Handle("GET /assets/", webFS)
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			webFS.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, cfg.WebDir+"/index.html")
	})

	// Uploaded attachment files.
	mux.Handle("GET /files/", http.StripPrefix("/files/", http.FileServer(http.Dir(blobs.Dir()))))

	api := server.New(cfg, st, blobs, log)
	api.Routes(mux)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           server.WithLogging(log, mux),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      0, // SSE streams stay open
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		log.Info("listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) && err != nil {
			log.Error("listen", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")
	ctxSh, cancelSh := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelSh()
	if err := srv.Shutdown(ctxSh); err != nil {
		log.Error("shutdown", "err", err)
	}
}
