package http

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"time"

	"github.com/mind-engage/mindengage-qti/internal/auth"
	"github.com/mind-engage/mindengage-qti/internal/config"
	"github.com/mind-engage/mindengage-qti/internal/db"
	"github.com/mind-engage/mindengage-qti/internal/project"
	"github.com/mind-engage/mindengage-qti/internal/scoring"
	"github.com/mind-engage/mindengage-qti/internal/storage"
)

// Run opens the project database and blob store described by cfg and serves
// the API until ctx is cancelled.
func Run(ctx context.Context, cfg config.Config) error {
	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	// --- DB ---
	dbh, err := db.Open(openCtx, db.ParseDriver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		return err
	}
	defer dbh.Close()

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		return err
	}

	s := &Server{
		Config:   cfg,
		Projects: project.NewSQLStore(dbh),
		Blobs:    bs,
		Auth:     auth.NewAuthService(cfg.AuthHMACSecret, cfg.AdminUser, cfg.AdminPassHash),
		Scorer:   scoring.New(),
		Log:      slog.Default().With("component", "api"),
		Ready:    func(r *http.Request) error { return dbh.PingContext(r.Context()) },
	}
	if !cfg.RequireAuth {
		log.Printf("auth disabled: editor API is open (mode=%s)", cfg.Mode)
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Printf("listening on %s (mode=%s, db=%s)", cfg.HTTPAddr, cfg.Mode, cfg.DBDriver)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
