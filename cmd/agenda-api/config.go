// Copyright The Linux Foundation and each contributor to LFX.
// SPDX-License-Identifier: MIT

package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/domain/models"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/infrastructure/store"
	"github.com/linuxfoundation/lfx-v2-agenda-service/internal/logging"
	"github.com/linuxfoundation/lfx-v2-agenda-service/pkg/constants"
)

// Store backends selectable with STORE_BACKEND.
const (
	storeBackendNATS   = "nats"
	storeBackendSQLite = "sqlite"
	storeBackendMemory = "memory"
)

// flags are the command line flags for the agenda service.
type flags struct {
	Debug bool
	Port  string
	Bind  string
}

// environment is the agenda service configuration: defaults, overlaid by the
// optional CONFIG_FILE, overlaid by environment variables.
type environment struct {
	Port string `yaml:"port"`

	NATSURL           string        `yaml:"nats_url"`
	NATSTimeout       time.Duration `yaml:"nats_timeout"`
	NATSMaxReconnect  int           `yaml:"nats_max_reconnect"`
	NATSReconnectWait time.Duration `yaml:"nats_reconnect_wait"`
	NATSQueue         string        `yaml:"nats_queue"`
	KVBucket          string        `yaml:"kv_bucket"`

	StoreBackend string `yaml:"store_backend"`
	SQLitePath   string `yaml:"sqlite_path"`

	MaxWindowDays     int `yaml:"max_window_days"`
	MaxOccurrenceScan int `yaml:"max_occurrence_scan"`

	RemindersEnabled bool   `yaml:"reminders_enabled"`
	ReminderSchedule string `yaml:"reminder_schedule"`
	EventWorkers     int    `yaml:"event_workers"`
}

func defaultEnvironment() environment {
	return environment{
		Port:              "8080",
		NATSURL:           "nats://localhost:4222",
		NATSTimeout:       10 * time.Second,
		NATSMaxReconnect:  3,
		NATSReconnectWait: 2 * time.Second,
		NATSQueue:         models.AgendaAPIQueue,
		KVBucket:          store.KVStoreNameSeries,
		StoreBackend:      storeBackendNATS,
		SQLitePath:        "agenda.db",
		MaxWindowDays:     constants.DefaultMaxWindowDays,
		MaxOccurrenceScan: constants.DefaultMaxOccurrenceScan,
		RemindersEnabled:  true,
		ReminderSchedule:  constants.DefaultReminderSchedule,
		EventWorkers:      constants.DefaultEventWorkers,
	}
}

// parseFlags parses command line flags for the agenda service
func parseFlags(defaultPort string) flags {
	var debug = flag.Bool("d", false, "enable debug logging")
	var port = flag.String("p", defaultPort, "health check listen port")
	var bind = flag.String("bind", "*", "interface to bind on")

	flag.Usage = func() {
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()

	// Based on the debug flag, set the log level environment variable used by [logging.InitStructureLogConfig]
	if *debug {
		err := os.Setenv("LOG_LEVEL", "debug")
		if err != nil {
			slog.With(logging.ErrKey, err).Error("error setting log level")
			os.Exit(1)
		}
	}

	return flags{
		Debug: *debug,
		Port:  *port,
		Bind:  *bind,
	}
}

// parseEnv builds the configuration of the agenda service
func parseEnv() (environment, error) {
	env := defaultEnvironment()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadConfigFile(path, &env); err != nil {
			return env, err
		}
	}

	stringVar(&env.Port, "PORT")
	stringVar(&env.NATSURL, "NATS_URL")
	stringVar(&env.NATSQueue, "NATS_QUEUE")
	stringVar(&env.KVBucket, "NATS_KV_BUCKET")
	stringVar(&env.StoreBackend, "STORE_BACKEND")
	stringVar(&env.SQLitePath, "SQLITE_PATH")
	stringVar(&env.ReminderSchedule, "REMINDER_SCHEDULE")

	for _, v := range []struct {
		key string
		fn  func(string) error
	}{
		{"NATS_TIMEOUT", durationVar(&env.NATSTimeout)},
		{"NATS_RECONNECT_WAIT", durationVar(&env.NATSReconnectWait)},
		{"NATS_MAX_RECONNECT", intVar(&env.NATSMaxReconnect)},
		{"AGENDA_MAX_WINDOW_DAYS", intVar(&env.MaxWindowDays)},
		{"AGENDA_MAX_OCCURRENCE_SCAN", intVar(&env.MaxOccurrenceScan)},
		{"EVENT_WORKERS", intVar(&env.EventWorkers)},
		{"REMINDERS_ENABLED", boolVar(&env.RemindersEnabled)},
	} {
		raw := os.Getenv(v.key)
		if raw == "" {
			continue
		}
		if err := v.fn(raw); err != nil {
			return env, fmt.Errorf("invalid %s %q: %w", v.key, raw, err)
		}
	}

	return env, env.validate()
}

// loadConfigFile overlays the YAML file at path onto env.
func loadConfigFile(path string, env *environment) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, env); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

func (e environment) validate() error {
	switch e.StoreBackend {
	case storeBackendNATS, storeBackendMemory:
	case storeBackendSQLite:
		if e.SQLitePath == "" {
			return fmt.Errorf("SQLITE_PATH is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", e.StoreBackend)
	}
	if e.NATSURL == "" {
		return fmt.Errorf("NATS_URL is required")
	}
	if e.MaxWindowDays <= 0 {
		return fmt.Errorf("AGENDA_MAX_WINDOW_DAYS must be positive")
	}
	if e.MaxOccurrenceScan <= 0 {
		return fmt.Errorf("AGENDA_MAX_OCCURRENCE_SCAN must be positive")
	}
	if e.EventWorkers <= 0 {
		return fmt.Errorf("EVENT_WORKERS must be positive")
	}
	return nil
}

func stringVar(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func durationVar(dst *time.Duration) func(string) error {
	return func(raw string) error {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return err
		}
		*dst = d
		return nil
	}
}

func intVar(dst *int) func(string) error {
	return func(raw string) error {
		n, err := strconv.Atoi(raw)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func boolVar(dst *bool) func(string) error {
	return func(raw string) error {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}
