// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

// validate checks that the final merged [StructuredConfig] satisfies the
// invariants the engine relies on at startup. Most fields have usable
// defaults applied by their consumers; validation only rejects states the
// engine cannot run in.
//
// Returns nil if the configuration is valid, or a descriptive error
// otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Scheduler.Workers < 0 || cfg.Scheduler.CrisisWorkers < 0 || cfg.Scheduler.QueueCapacity < 0 {
		return ErrInvalidSchedulerConfigs
	}

	if cfg.Adapter.HTTPAddress == "" && cfg.Adapter.RequestTimeout != 0 {
		return ErrInvalidAdapterConfigs
	}

	return nil
}
