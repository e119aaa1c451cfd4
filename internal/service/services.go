package service

import (
	"context"
	"fmt"

	"github.com/havenmind/syncd/internal/adapter"
	"github.com/havenmind/syncd/internal/audit"
	"github.com/havenmind/syncd/internal/config"
	"github.com/havenmind/syncd/internal/conflict"
	"github.com/havenmind/syncd/internal/crypto"
	"github.com/havenmind/syncd/internal/device"
	"github.com/havenmind/syncd/internal/logger"
	"github.com/havenmind/syncd/internal/sanitize"
	"github.com/havenmind/syncd/internal/scheduler"
	"github.com/havenmind/syncd/internal/sla"
	"github.com/havenmind/syncd/models"
)

// Services bundles every constructed component of the sync pipeline. The
// HTTP handler layer talks to Engine, Handoff, Recorder, and Registry; the
// maintenance workers talk to Keyring and Recorder.
type Services struct {
	Engine   SyncEngine
	Registry *device.Registry
	Handoff  *device.HandoffBroker
	Fanout   *device.Fanout
	Recorder audit.Recorder
	Keyring  crypto.Keyring
	Monitor  *sla.Monitor
}

// NewServices wires the full pipeline from configuration. The backend
// adapter, audit recorder, escalation sink, and crisis notifier are passed
// in so callers choose the transport and storage; everything else is
// constructed here.
func NewServices(cfg *config.StructuredConfig, backend adapter.BackendAdapter, recorder audit.Recorder, sink sla.Sink, notifier device.Notifier, log *logger.Logger) (*Services, error) {
	policy := rotationPolicy(cfg.Crypto)

	ring, err := crypto.NewKeyring(cfg.App.MasterSecret, policy)
	if err != nil {
		return nil, fmt.Errorf("build keyring: %w", err)
	}
	gate, err := crypto.NewEncryptionGate(ring, policy, log)
	if err != nil {
		return nil, fmt.Errorf("build encryption gate: %w", err)
	}

	monitor := sla.NewMonitor(sink, log)
	registry := device.NewRegistry(log)
	fanout := device.NewFanout(registry, notifier, log)
	handoff := device.NewHandoffBroker(registry, cfg.App.TokenIssuer, cfg.App.TokenSignKey, cfg.App.HandoffTimeout, log)
	resolver := conflict.NewResolver(conflict.NewFieldMergeAdvisor(), cfg.Conflict.MergeConfidence, log)

	engine := NewSyncEngine(EngineDeps{
		Sanitizer: sanitize.NewSanitizer(),
		Gate:      gate,
		Monitor:   monitor,
		Detector:  conflict.NewDetector(log),
		Resolver:  resolver,
		Registry:  registry,
		Fanout:    fanout,
		Recorder:  recorder,
		Backend:   backend,
	}, cfg.Scheduler, cfg.App.HashKey, poolEscalate(sink, log), log)

	return &Services{
		Engine:   engine,
		Registry: registry,
		Handoff:  handoff,
		Fanout:   fanout,
		Recorder: recorder,
		Keyring:  ring,
		Monitor:  monitor,
	}, nil
}

// poolEscalate forwards pool-raised deadline escalations to the same sink
// the SLA monitor delivers to. The pool already calls this off the
// worker's hot path.
func poolEscalate(sink sla.Sink, log *logger.Logger) scheduler.EscalateFunc {
	return func(req models.EscalationRequest) {
		if sink == nil {
			return
		}
		if err := sink.Escalate(context.Background(), req); err != nil {
			log.Error().Err(err).Str("operation_id", req.OperationID).Msg("pool escalation delivery failed")
		}
	}
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
