package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/example/lab-scheduler/internal/timeblock"
)

// Storage backend identifiers accepted by LABSCHED_STORAGE.
const (
	StorageSQLite = "sqlite"
	StorageMemory = "memory"
)

// Config captures environment driven configuration values for the lab
// scheduler service.
type Config struct {
	HTTPPort            int
	Storage             string
	SQLiteDSN           string
	MaxBlocksPerRequest int
	CORSOrigins         []string
	ShutdownTimeout     time.Duration
}

// Load parses configuration values from the current process environment.
//
// Every value has a sensible default; Load only fails when a variable is
// present but cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:            8080,
		Storage:             StorageSQLite,
		SQLiteDSN:           "file:labscheduler.db",
		MaxBlocksPerRequest: timeblock.DefaultMaxBlocksPerRequest,
		ShutdownTimeout:     10 * time.Second,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("LABSCHED_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 || port > 65535 {
			invalid = append(invalid, "LABSCHED_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if storage := strings.ToLower(strings.TrimSpace(os.Getenv("LABSCHED_STORAGE"))); storage != "" {
		switch storage {
		case StorageSQLite, StorageMemory:
			cfg.Storage = storage
		default:
			invalid = append(invalid, "LABSCHED_STORAGE")
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("LABSCHED_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if blocksValue := strings.TrimSpace(os.Getenv("LABSCHED_MAX_BLOCKS_PER_REQUEST")); blocksValue != "" {
		blocks, err := strconv.Atoi(blocksValue)
		if err != nil || blocks < 1 || blocks > timeblock.MaxBlocksPerReservation {
			invalid = append(invalid, "LABSCHED_MAX_BLOCKS_PER_REQUEST")
		} else {
			cfg.MaxBlocksPerRequest = blocks
		}
	}

	if origins := strings.TrimSpace(os.Getenv("LABSCHED_CORS_ORIGINS")); origins != "" {
		for _, origin := range strings.Split(origins, ",") {
			origin = strings.TrimSpace(origin)
			if origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	if timeoutValue := strings.TrimSpace(os.Getenv("LABSCHED_SHUTDOWN_TIMEOUT")); timeoutValue != "" {
		timeout, err := time.ParseDuration(timeoutValue)
		if err != nil || timeout <= 0 {
			invalid = append(invalid, "LABSCHED_SHUTDOWN_TIMEOUT")
		} else {
			cfg.ShutdownTimeout = timeout
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
