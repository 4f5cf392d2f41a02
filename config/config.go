// Package config loads ticket-conductor configuration from the
// environment, following the teacher's pattern of typed config structs
// populated by explicit env-var lookups rather than a generic viper/
// struct-tag binder (spec §6 "CONFIGURATION (environment variables)").
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the process-wide configuration for both cmd/worker and
// cmd/server.
type Config struct {
	Temporal    Temporal
	Maintenance Maintenance
	LLM         LLM
	Mongo       Mongo
	Redis       Redis
	HTTP        HTTP
	RemoteTools RemoteTools
}

// Temporal configures the Temporal client/worker connection.
type Temporal struct {
	Address   string
	Namespace string
	TaskQueue string
}

// Maintenance configures the auto-close Maintenance Scheduler (spec §4.5).
type Maintenance struct {
	InactivityMinutes int
	ClosureMessage    string
	ScheduleID        string
	Cadence           time.Duration
}

// LLM configures which provider backs the llm.Client collaborator and its
// sampling parameters.
type LLM struct {
	Provider    string // "anthropic", "openai", or "bedrock"
	Model       string
	MaxTokens   int
	Temperature float64
	APIKey      string
	RatePerSec  float64
}

// Mongo configures the production store.mongo.Store.
type Mongo struct {
	URI      string
	Database string
}

// Redis configures the Pulse-backed ticket event stream (spec §6). Addr
// empty disables event publishing entirely — the Ticket Conductor works
// fine without a UI gateway attached.
type Redis struct {
	Addr         string
	Password     string
	DB           int
	StreamMaxLen int
}

// HTTP configures the customer/agent-facing transport/http server.
type HTTP struct {
	Addr                  string
	UIAutoRefreshInterval time.Duration
}

// RemoteServer is one remote tool server a specialist can draw tools from
// (spec §1's "remote tool-server discovery" external collaborator).
type RemoteServer struct {
	Name string
	URL  string
}

// RemoteTools configures the optional fleet of remote tool servers and
// which agent types may call each one. Empty by default: a deployment with
// no remote servers configured runs on static, in-process tools only.
type RemoteTools struct {
	Servers            []RemoteServer
	AgentServerMapping map[string][]string
}

// Load reads Config from the environment, applying the same defaults the
// spec names for each knob.
func Load() (Config, error) {
	cfg := Config{
		Temporal: Temporal{
			Address:   getenv("TEMPORAL_ADDRESS", "localhost:7233"),
			Namespace: getenv("TEMPORAL_NAMESPACE", "default"),
			TaskQueue: getenv("TEMPORAL_TASK_QUEUE", "ticket-conductor"),
		},
		LLM: LLM{
			Provider:    getenv("LLM_PROVIDER", "anthropic"),
			Model:       getenv("LLM_MODEL", "claude-sonnet-4-5"),
			APIKey:      os.Getenv("LLM_API_KEY"),
			MaxTokens:   2048,
			Temperature: 0.2,
			RatePerSec:  2,
		},
		Mongo: Mongo{
			URI:      getenv("MONGO_URI", "mongodb://localhost:27017"),
			Database: getenv("MONGO_DATABASE", "ticket_conductor"),
		},
		Redis: Redis{
			Addr:         os.Getenv("REDIS_ADDR"),
			Password:     os.Getenv("REDIS_PASSWORD"),
			StreamMaxLen: 1000,
		},
		HTTP: HTTP{
			Addr:                  getenv("HTTP_ADDR", ":8080"),
			UIAutoRefreshInterval: 5 * time.Second,
		},
	}

	var err error
	if cfg.Maintenance.InactivityMinutes, err = getenvInt("AUTO_CLOSE_INACTIVITY_MINUTES", 60); err != nil {
		return Config{}, err
	}
	cfg.Maintenance.ClosureMessage = getenv("AUTO_CLOSE_MESSAGE",
		"This ticket has been automatically closed due to inactivity. Please open a new ticket if you still need help.")
	cfg.Maintenance.ScheduleID = getenv("AUTO_CLOSE_SCHEDULE_ID", "ticket-maintenance-scheduler")

	cadenceMinutes, err := getenvInt("AUTO_CLOSE_CADENCE_MINUTES", 15)
	if err != nil {
		return Config{}, err
	}
	cfg.Maintenance.Cadence = time.Duration(cadenceMinutes) * time.Minute

	if v := os.Getenv("LLM_MAX_TOKENS"); v != "" {
		if cfg.LLM.MaxTokens, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("LLM_MAX_TOKENS: %w", err)
		}
	}
	if v := os.Getenv("LLM_TEMPERATURE"); v != "" {
		if cfg.LLM.Temperature, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("LLM_TEMPERATURE: %w", err)
		}
	}
	if v := os.Getenv("LLM_RATE_PER_SEC"); v != "" {
		if cfg.LLM.RatePerSec, err = strconv.ParseFloat(v, 64); err != nil {
			return Config{}, fmt.Errorf("LLM_RATE_PER_SEC: %w", err)
		}
	}
	if v := os.Getenv("REDIS_DB"); v != "" {
		if cfg.Redis.DB, err = strconv.Atoi(v); err != nil {
			return Config{}, fmt.Errorf("REDIS_DB: %w", err)
		}
	}
	if v := os.Getenv("UI_AUTO_REFRESH_SECONDS"); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("UI_AUTO_REFRESH_SECONDS: %w", err)
		}
		cfg.HTTP.UIAutoRefreshInterval = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

// fileOverlay mirrors the subset of Config an operator may want to pin in a
// checked-in file rather than via environment variables (spec §3: deployment
// config lives in env vars, with an optional file overlay for the knobs
// operators tend to want reviewed in source control — LLM model selection
// and maintenance cadence). Zero-value fields leave the env-derived default
// in place.
type fileOverlay struct {
	LLM struct {
		Provider string `yaml:"provider"`
		Model    string `yaml:"model"`
	} `yaml:"llm"`
	Maintenance struct {
		InactivityMinutes int    `yaml:"inactivity_minutes"`
		CadenceMinutes    int    `yaml:"cadence_minutes"`
		ClosureMessage    string `yaml:"closure_message"`
	} `yaml:"maintenance"`
	RemoteTools struct {
		Servers []struct {
			Name string `yaml:"name"`
			URL  string `yaml:"url"`
		} `yaml:"servers"`
		AgentServerMapping map[string][]string `yaml:"agent_server_mapping"`
	} `yaml:"remote_tools"`
}

// LoadFile reads Config from the environment as Load does, then applies the
// YAML file at path on top of it. A missing path is not an error: the file
// overlay is optional.
func LoadFile(path string) (Config, error) {
	cfg, err := Load()
	if err != nil {
		return Config{}, err
	}
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config file %q: %w", path, err)
	}
	var overlay fileOverlay
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return Config{}, fmt.Errorf("parse config file %q: %w", path, err)
	}

	if overlay.LLM.Provider != "" {
		cfg.LLM.Provider = overlay.LLM.Provider
	}
	if overlay.LLM.Model != "" {
		cfg.LLM.Model = overlay.LLM.Model
	}
	if overlay.Maintenance.InactivityMinutes > 0 {
		cfg.Maintenance.InactivityMinutes = overlay.Maintenance.InactivityMinutes
	}
	if overlay.Maintenance.CadenceMinutes > 0 {
		cfg.Maintenance.Cadence = time.Duration(overlay.Maintenance.CadenceMinutes) * time.Minute
	}
	if overlay.Maintenance.ClosureMessage != "" {
		cfg.Maintenance.ClosureMessage = overlay.Maintenance.ClosureMessage
	}
	if len(overlay.RemoteTools.Servers) > 0 {
		servers := make([]RemoteServer, 0, len(overlay.RemoteTools.Servers))
		for _, s := range overlay.RemoteTools.Servers {
			servers = append(servers, RemoteServer{Name: s.Name, URL: s.URL})
		}
		cfg.RemoteTools.Servers = servers
		cfg.RemoteTools.AgentServerMapping = overlay.RemoteTools.AgentServerMapping
	}
	return cfg, nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
