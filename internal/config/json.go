package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// JSONConfig mirrors [Config] for file-based configuration. Durations accept
// both "30s"-style strings and raw nanosecond numbers.
type JSONConfig struct {
	App struct {
		Version       string  `json:"version"`
		Admins        []int64 `json:"admins"`
		Owners        []int64 `json:"owners"`
		CredentialKey string  `json:"credential_key"`
	} `json:"app,omitempty"`

	API struct {
		BaseURL        string   `json:"base_url"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"api,omitempty"`

	Storage struct {
		DB struct {
			DSN string `json:"dsn"`
		} `json:"db,omitempty"`

		Configs struct {
			Dir         string `json:"dir"`
			FilePrefix  string `json:"file_prefix"`
			DNSFilePath string `json:"dns_file"`
		} `json:"configs,omitempty"`
	} `json:"storage,omitempty"`

	Bot struct {
		Token   string   `json:"token"`
		APIURL  string   `json:"api_url"`
		FlowTTL Duration `json:"flow_ttl"`
	} `json:"bot,omitempty"`

	Ops struct {
		HTTPAddress    string   `json:"http_address"`
		RequestTimeout Duration `json:"request_timeout"`
	} `json:"ops,omitempty"`

	Workers struct {
		JanitorInterval Duration `json:"janitor_interval"`
		ArtifactTTL     Duration `json:"artifact_ttl"`
	} `json:"workers,omitempty"`
}

func parseJSON(jsonFilePath string) (*Config, error) {
	jsonFile, err := os.Open(jsonFilePath)
	if err != nil {
		return nil, fmt.Errorf("error reading a json file: %w", err)
	}
	defer jsonFile.Close()

	var jsonCfg JSONConfig
	if err := json.NewDecoder(jsonFile).Decode(&jsonCfg); err != nil {
		return nil, fmt.Errorf("error decoding json configs: %w", err)
	}

	cfg := &Config{
		App: App{
			Version:       jsonCfg.App.Version,
			Admins:        jsonCfg.App.Admins,
			Owners:        jsonCfg.App.Owners,
			CredentialKey: jsonCfg.App.CredentialKey,
		},
		API: API{
			BaseURL:        jsonCfg.API.BaseURL,
			RequestTimeout: time.Duration(jsonCfg.API.RequestTimeout),
		},
		Storage: Storage{
			DB: DB{
				DSN: jsonCfg.Storage.DB.DSN,
			},
			Configs: Configs{
				Dir:         jsonCfg.Storage.Configs.Dir,
				FilePrefix:  jsonCfg.Storage.Configs.FilePrefix,
				DNSFilePath: jsonCfg.Storage.Configs.DNSFilePath,
			},
		},
		Bot: Bot{
			Token:   jsonCfg.Bot.Token,
			APIURL:  jsonCfg.Bot.APIURL,
			FlowTTL: time.Duration(jsonCfg.Bot.FlowTTL),
		},
		Ops: Ops{
			HTTPAddress:    jsonCfg.Ops.HTTPAddress,
			RequestTimeout: time.Duration(jsonCfg.Ops.RequestTimeout),
		},
		Workers: Workers{
			JanitorInterval: time.Duration(jsonCfg.Workers.JanitorInterval),
			ArtifactTTL:     time.Duration(jsonCfg.Workers.ArtifactTTL),
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
