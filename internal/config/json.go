package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

type StructuredJSONConfig struct {
	App struct {
		MasterSecret   string   `json:"master_secret"`
		TokenSignKey   string   `json:"token_sign_key"`
		TokenIssuer    string   `json:"token_issuer"`
		HandoffTimeout Duration `json:"handoff_timeout"`
		HashKey        string   `json:"hash_key"`
		Version        string   `json:"version"`
	} `json:"app,omitempty"`

	Scheduler struct {
		QueueCapacity int `json:"queue_capacity"`
		Workers       int `json:"workers"`
		CrisisWorkers int `json:"crisis_workers"`
		BatchSize     int `json:"batch_size"`
	} `json:"scheduler,omitempty"`

	Conflict struct {
		MergeConfidence float64 `json:"merge_confidence"`
	} `json:"conflict,omitempty"`

	Crypto struct {
		RotationClinical Duration `json:"rotation_clinical"`
		RotationPremium  Duration `json:"rotation_premium"`
		RotationFree     Duration `json:"rotation_free"`
	} `json:"crypto,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Local struct {
			DSN string `json:"dsn"`
		} `json:"local,omitempty"`
	} `json:"storage,omitempty"`

	Server struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"server,omitempty"`

	Adapter struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"adapter,omitempty"`

	Workers struct {
		RotationInterval  Duration `json:"rotation_interval"`
		RetentionInterval Duration `json:"retention_interval"`
		SweepInterval     Duration `json:"sweep_interval"`
		DeviceIdleHorizon Duration `json:"device_idle_horizon"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*StructuredConfig, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg StructuredJSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &StructuredConfig{
		App: App{
			MasterSecret:   jsonCfg.App.MasterSecret,
			TokenSignKey:   jsonCfg.App.TokenSignKey,
			TokenIssuer:    jsonCfg.App.TokenIssuer,
			HandoffTimeout: time.Duration(jsonCfg.App.HandoffTimeout),
			HashKey:        jsonCfg.App.HashKey,
			Version:        jsonCfg.App.Version,
		},
		Scheduler: Scheduler{
			QueueCapacity: jsonCfg.Scheduler.QueueCapacity,
			Workers:       jsonCfg.Scheduler.Workers,
			CrisisWorkers: jsonCfg.Scheduler.CrisisWorkers,
			BatchSize:     jsonCfg.Scheduler.BatchSize,
		},
		Conflict: Conflict{
			MergeConfidence: jsonCfg.Conflict.MergeConfidence,
		},
		Crypto: Crypto{
			RotationClinical: time.Duration(jsonCfg.Crypto.RotationClinical),
			RotationPremium:  time.Duration(jsonCfg.Crypto.RotationPremium),
			RotationFree:     time.Duration(jsonCfg.Crypto.RotationFree),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Local: Local{
				DSN: jsonCfg.Storage.Local.DSN,
			},
		},
		Server: Server{
			HTTPAddress:    jsonCfg.Server.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Server.RequestTimeout),
		},
		Adapter: Adapter{
			HTTPAddress:    jsonCfg.Adapter.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Adapter.RequestTimeout),
		},
		Workers: Workers{
			RotationInterval:  time.Duration(jsonCfg.Workers.RotationInterval),
			RetentionInterval: time.Duration(jsonCfg.Workers.RetentionInterval),
			SweepInterval:     time.Duration(jsonCfg.Workers.SweepInterval),
			DeviceIdleHorizon: time.Duration(jsonCfg.Workers.DeviceIdleHorizon),
		},
		JSONFilePath: "",
	}

	return cfg, nil
}

// Duration is a wrapper around time.Duration that supports JSON unmarshaling from strings like "1h", "30s"
type Duration time.Duration

func (d *Duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	switch value := v.(type) {
	case float64:
		*d = Duration(time.Duration(value))
		return nil
	case string:
		tmp, err := time.ParseDuration(value)
		if err != nil {
			return err
		}
		*d = Duration(tmp)
		return nil
	default:
		return json.Unmarshal(b, (*time.Duration)(d))
	}
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}
