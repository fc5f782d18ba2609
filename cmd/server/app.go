package main

import (
	"context"
	"database/sql"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"healthtrack/internal/config"
	"healthtrack/internal/consultation"
	"healthtrack/internal/ledger"
	"healthtrack/internal/platform/db"
	"healthtrack/internal/platform/httpx"
	"healthtrack/internal/platform/logging"
	"healthtrack/internal/platform/telemetry"
	"healthtrack/internal/report"
	"healthtrack/internal/user"
)

const metricsNamespace = "healthtrack"

// stores bundles the persistence backends selected by STORAGE_DRIVER.
type stores struct {
	users         user.Repository
	queue         consultation.Queue
	ledger        ledger.Ledger
	prescriptions ledger.Prescriptions
	db            *sql.DB
}

func (s *stores) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func openStores(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*stores, error) {
	if cfg.StorageDriver == config.DriverPostgres {
		conn, err := db.Open(ctx, cfg.DatabaseURL, cfg.DBConnAttempts, log)
		if err != nil {
			return nil, err
		}
		if err := db.MigrateUp(cfg.DatabaseURL); err != nil {
			conn.Close()
			return nil, err
		}
		log.Info().Msg("migrations applied")
		return &stores{
			users:         user.NewPostgresRepository(conn),
			queue:         consultation.NewPostgresQueue(conn),
			ledger:        ledger.NewPostgresLedger(conn),
			prescriptions: ledger.NewPostgresPrescriptions(conn),
			db:            conn,
		}, nil
	}

	users, err := user.NewFileRepository(cfg.UsersPath())
	if err != nil {
		return nil, err
	}
	queue, err := consultation.NewFileQueue(cfg.QueuePath())
	if err != nil {
		return nil, err
	}
	l, err := ledger.NewFileLedger(cfg.LedgerPath())
	if err != nil {
		return nil, err
	}
	log.Info().Str("dir", cfg.DataDir).Msg("using file storage")
	return &stores{
		users:         users,
		queue:         queue,
		ledger:        l,
		prescriptions: ledger.NewFilePrescriptions(cfg.PrescriptionsDir()),
	}, nil
}

func newRouter(cfg *config.Config, st *stores, log zerolog.Logger) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := telemetry.NewMetrics(reg, metricsNamespace)

	userSvc := user.NewService(st.users, metrics, log)
	consultationSvc := consultation.NewService(st.users, st.queue, st.ledger, st.prescriptions, metrics, log)
	reportSvc := report.NewService(cfg.ReportFontPath, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(logging.Requests(log))
	r.Use(middleware.Recoverer)

	// CORS for frontend
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, "+user.HeaderUsername+", "+user.HeaderRole)
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if st.db != nil {
			if err := st.db.PingContext(r.Context()); err != nil {
				log.Error().Err(err).Msg("health check failed")
				httpx.Error(w, err)
				return
			}
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	r.Route("/api", func(r chi.Router) {
		user.RegisterRoutes(r, user.NewHandler(userSvc))
		consultation.RegisterRoutes(r, consultation.NewHandler(consultationSvc))
		ledger.RegisterRoutes(r, ledger.NewHandler(st.ledger, st.prescriptions, reportSvc))
	})
	return r
}
