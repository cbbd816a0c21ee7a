package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/mindengage-authoring/internal/api/http"
	auth "github.com/mind-engage/mindengage-authoring/internal/auth/middleware"
	"github.com/mind-engage/mindengage-authoring/internal/config"
	"github.com/mind-engage/mindengage-authoring/internal/db"
	"github.com/mind-engage/mindengage-authoring/internal/extract"
	"github.com/mind-engage/mindengage-authoring/internal/gateway"
	"github.com/mind-engage/mindengage-authoring/internal/gateway/httpgw"
	"github.com/mind-engage/mindengage-authoring/internal/gateway/sqlgw"
	"github.com/mind-engage/mindengage-authoring/internal/logger"
	"github.com/mind-engage/mindengage-authoring/internal/rbac"
	"github.com/mind-engage/mindengage-authoring/internal/storage"
	syncx "github.com/mind-engage/mindengage-authoring/internal/sync"
	"github.com/mind-engage/mindengage-authoring/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		// logger not up yet
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(2)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", "driver", cfg.DBDriver, "error", err)
	}
	defer dbh.Close()

	var gw gateway.Gateway
	switch cfg.GatewayDriver {
	case "http":
		gw = httpgw.New(httpgw.Config{
			BaseURL:      cfg.BackendURL,
			Token:        cfg.BackendToken,
			TokenURL:     cfg.BackendTokenURL,
			ClientID:     cfg.BackendClientID,
			ClientSecret: cfg.BackendClientSecret,
			Timeout:      cfg.BackendTimeout,
		})
	default:
		gw = sqlgw.New(dbh)
	}
	ex := extract.New(extract.Config{
		BaseURL: cfg.ExtractorURL,
		Token:   cfg.BackendToken,
		Timeout: cfg.BackendTimeout,
	})

	bs, err := storage.NewFSStore(cfg.BlobBasePath)
	if err != nil {
		log.Fatal("blob store", "path", cfg.BlobBasePath, "error", err)
	}

	reg := wizard.NewRegistry(wizard.Config{
		Gateway: gw,
		Journal: syncx.NewEventRepo(dbh),
		Logger:  log,
	})

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.BackendTimeout + 30*time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins(),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, credentials(cfg)))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require(rbac.PermContentAuthor)).Route("/wizards", func(wr chi.Router) {
			api.MountWizards(wr, reg, ex, bs, log)
		})
		pr.With(rbac.Require(rbac.PermContentAuthor)).
			Post("/slides/segment", api.SegmentHandler())
		pr.With(rbac.Require(rbac.PermContentAuthor)).
			Post("/slides/assemble", api.AssembleHandler())
		pr.With(rbac.Require(rbac.PermContentView)).Route("/uploads", func(ur chi.Router) {
			api.MountUploads(ur, bs)
		})
	})

	r.Get("/healthz", api.HealthHandler())
	r.Get("/readyz", api.ReadyHandler(dbh))

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	log.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver, "gateway", cfg.GatewayDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("server failed", "error", err)
	}
}

// credentials is the admin login plus any extra users from the config file.
func credentials(cfg config.Config) []auth.Credential {
	creds := []auth.Credential{{Username: cfg.AdminUser, PassHash: cfg.AdminPassHash, Role: "admin"}}
	for _, u := range cfg.Users {
		creds = append(creds, auth.Credential{Username: u.Username, PassHash: u.PassHash, Role: u.Role})
	}
	return creds
}
