package main

import (
	"context"
	"fmt"
	"time"

	"github.com/havenmind/syncd/internal/adapter"
	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/handler"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/server"
	"github.com/havenmind/syncd/internal/service"
	"github.com/havenmind/syncd/internal/sla"
	"github.com/havenmind/syncd/internal/workers"
	"github.com/havenmind/syncd/models"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("syncd")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	backend, err := adapter.NewHTTPBackendAdapter(cfg.Adapter, cfg.App, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create backend adapter")
	}

	recorder, err := newRecorder(cfg.Storage, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create audit recorder")
	}

	services, err := service.NewServices(cfg, backend, recorder, escalationSink(log), crisisNotifier(log), log)
	if err != nil {
		log.Fatal().Err(err).Msg("create services")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services.Engine.Start(ctx)
	defer services.Engine.Stop()

	maintenance := workers.NewWorkers(cfg.Workers, services.Keyring, rotationPolicy(cfg.Crypto), recorder, services.Registry, log)
	maintenance.Run()
	defer maintenance.Stop()

	handlers, err := handler.NewHandlers(services, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("create server")
	}

	srv.RunServer()
}

// newRecorder picks the audit backend: PostgreSQL when a compliance
// database is configured, the device-local SQLite mirror when only a local
// DSN is given, and the in-memory recorder otherwise.
func newRecorder(cfg config.Storage, log *logger.Logger) (audit.Recorder, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	switch {
	case cfg.DB.DSN != "":
		return audit.NewConnectPostgres(ctx, cfg.DB.DSN, log)
	case cfg.Local.DSN != "":
		return audit.NewConnectSQLite(ctx, cfg.Local.DSN, log)
	default:
		log.Warn().Msg("no audit storage configured, falling back to in-memory recorder")
		return audit.NewMemoryRecorder(log), nil
	}
}

// escalationSink receives SLA violations and crisis deadline expiries.
// Delivery to an on-call channel is an integration concern; here the
// escalation is logged at error level so operators page off the log stream.
func escalationSink(log *logger.Logger) sla.Sink {
	return sla.SinkFunc(func(_ context.Context, req models.EscalationRequest) error {
		log.Error().
			Str("operation_id", req.OperationID).
			Str("level", string(req.Level)).
			Str("reason", string(req.Reason)).
			Dur("elapsed", req.Elapsed).
			Bool("immediate_risk", req.ImmediateRisk).
			Msg("SLA escalation")
		return nil
	})
}

// crisisNotifier delivers crisis alerts to a user's other devices. Push
// transport is deployment-specific; the default notifier records the alert
// so downstream delivery agents can relay it.
func crisisNotifier(log *logger.Logger) device.Notifier {
	return device.NotifierFunc(func(_ context.Context, target models.DeviceRecord, alert device.CrisisAlert) error {
		log.Warn().
			Str("user_id", alert.UserID).
			Str("target_device_id", target.ID).
			Str("source_device_id", alert.SourceDeviceID).
			Str("crisis_level", alert.Level.String()).
			Msg("crisis alert")
		return nil
	})
}

func rotationPolicy(cfg config.Crypto) crypto.RotationPolicy {
	policy := crypto.DefaultRotationPolicy()
	if cfg.RotationClinical > 0 {
		policy.Clinical = cfg.RotationClinical
	}
	if cfg.RotationPremium > 0 {
		policy.Premium = cfg.RotationPremium
	}
	if cfg.RotationFree > 0 {
		policy.Free = cfg.RotationFree
	}
	return policy
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
