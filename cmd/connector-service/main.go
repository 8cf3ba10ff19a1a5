// cmd/connector-service/main.go
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chiaconnector/internal/connector"
	"chiaconnector/internal/connector/oas"
	"chiaconnector/pkg/authz"
	"chiaconnector/pkg/config"
	"chiaconnector/pkg/db"
	"chiaconnector/pkg/logger"
	"chiaconnector/pkg/middleware"
	"chiaconnector/pkg/webservice"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	defer func() { _ = log.Sync() }()

	var store connector.DeploymentStore
	if pool := db.MustConnect(cfg, log); pool != nil {
		defer pool.Close()
		pg := connector.NewPostgresStore(pool)
		if err := pg.EnsureSchema(context.Background()); err != nil {
			log.Fatalw("schema", "err", err)
		}
		store = pg
	}
	var locker connector.Locker
	if rdb := db.MustRedis(cfg, log); rdb != nil {
		defer rdb.Close()
		locker = connector.NewRedisLocker(rdb)
	}

	ledger, err := connector.NewHTTPLedgerClient(connector.HTTPLedgerClientOptions{
		GatewayURL:  cfg.LedgerGatewayURL,
		Timeout:     cfg.LedgerTimeout,
		TxIDPath:    cfg.TxIDPath,
		AddressPath: cfg.AddressPath,
	})
	if err != nil {
		log.Fatalw("ledger client", "err", err)
	}
	plugin, err := connector.NewPluginLedgerConnectorChia(connector.Options{
		InstanceID: cfg.InstanceID,
		LogLevel:   cfg.LogLevel,
		Ledger:     ledger,
		Store:      store,
		Locker:     locker,
		LockTTL:    cfg.DeployLockTTL,
		Registerer: prometheus.DefaultRegisterer,
	})
	if err != nil {
		log.Fatalw("connector", "err", err)
	}

	appOpts := []webservice.AppOption{
		webservice.WithLogger(log),
		webservice.WithMetrics(webservice.NewMetrics(prometheus.DefaultRegisterer)),
	}
	if cfg.AuthzPolicyFile != "" {
		policy, err := authz.LoadPolicyFile(context.Background(), cfg.AuthzPolicyFile)
		if err != nil {
			log.Fatalw("authz policy", "file", cfg.AuthzPolicyFile, "err", err)
		}
		appOpts = append(appOpts, webservice.WithPolicy(policy))
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID())
	r.Use(middleware.Recover(log))
	r.Use(middleware.DebugWriteHeader(log))
	// Public services: allow cross-origin for development/tooling.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Vary", "Origin")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Request-ID")
			w.Header().Set("Access-Control-Max-Age", "86400")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
	r.Use(middleware.Tracing("chia-connector", log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.Write([]byte("ok")) })
	r.Get("/metrics", promhttp.Handler().ServeHTTP)
	r.Get("/api/v1/plugins/"+oas.PackageName+"/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(plugin.GetOpenAPISpec())
	})

	// Plugin endpoints decide per operation whether a principal is required.
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.JWTAuth(middleware.NewTokenVerifier(cfg), cfg.AllowAnonymous, log))
		eps, err := plugin.RegisterWebServices(webservice.NewApp(pr, appOpts...))
		if err != nil {
			log.Fatalw("register web services", "err", err)
		}
		for _, ep := range eps {
			log.Infow("endpoint mounted", "operationId", ep.OperationID(), "verb", ep.VerbLowerCase(), "path", ep.Path())
		}
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}
	go func() {
		log.Infow("chia connector listening", "addr", cfg.HTTPAddr, "instanceId", plugin.GetInstanceID(), "package", plugin.GetPackageName())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("ListenAndServe", "err", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
	fmt.Println("chia connector stopped")
}
