package main

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	"finca-manager/internal/adapters/auth/hstoken"
	pg "finca-manager/internal/adapters/storage/postgres"
	"finca-manager/internal/platform/config"
	"finca-manager/internal/platform/logger"
	"finca-manager/internal/ports/auth"
	"finca-manager/internal/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.LogLevel),
		Format: logger.ParseFormat(cfg.LogFormat),
		App:    cfg.AppName,
	})

	var db *sql.DB
	if cfg.DBDSN != "" {
		db, err = pg.Open(cfg.DBDSN)
		if err != nil {
			log.Error("postgres connect failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		defer db.Close()
		log.Info("postgres connected", nil)
	} else {
		log.Warn("no db_dsn: using in-memory repos (dev mode)", nil)
	}

	// Sin secret no hay tokens: modo dev con X-Debug-User-ID.
	var verifier auth.AuthVerifier
	var issuer auth.TokenIssuer
	if cfg.TokenSecret != "" {
		tokenSvc, err := hstoken.New(hstoken.Options{
			Secret: cfg.TokenSecret,
			TTL:    cfg.TokenTTL,
		})
		if err != nil {
			log.Error("token service init failed", map[string]any{"error": err.Error()})
			os.Exit(1)
		}
		verifier = tokenSvc
		issuer = tokenSvc
	} else {
		log.Warn("no token_secret: auth disabled (dev mode)", nil)
	}

	h := router.NewRouter(router.Options{
		AuthVerifier: verifier,
		TokenIssuer:  issuer,
		DB:           db,
	})

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log.Info("starting server", map[string]any{"addr": cfg.Addr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", map[string]any{"error": err.Error()})
		os.Exit(1)
	}
}
