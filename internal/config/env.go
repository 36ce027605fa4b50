package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "GRAVELSCAN_"

// LoadEnvFile loads variables from a dotenv file into the process
// environment. Variables that are already set are kept.
// A missing file is not an error unless the path was given explicitly.
func LoadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays GRAVELSCAN_* variables onto cfg.
// lookup is usually os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) error {
	get := func(name string) (string, bool) {
		v, ok := lookup(EnvPrefix + name)
		if !ok || v == "" {
			return "", false
		}
		return v, true
	}

	texts := []struct {
		name string
		dst  *string
	}{
		{"PROXY", &cfg.ProxyAddress},
		{"OUTPUT_DIR", &cfg.OutputDir},
		{"DB_DIR", &cfg.DBDir},
		{"POSTGRES_DSN", &cfg.PostgresDSN},
		{"MONGO_URI", &cfg.MongoURI},
		{"MONGO_DATABASE", &cfg.MongoDatabase},
		{"OLLAMA_URL", &cfg.OllamaURL},
		{"OLLAMA_MODEL", &cfg.OllamaModel},
		{"SERVER_ADDR", &cfg.ServerAddr},
	}
	for _, s := range texts {
		if v, ok := get(s.name); ok {
			*s.dst = v
		}
	}

	ints := []struct {
		name string
		dst  *int
	}{
		{"MAX_PAGES", &cfg.MaxPages},
		{"CONCURRENCY", &cfg.Concurrency},
	}
	for _, i := range ints {
		v, ok := get(i.name)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, i.name, err)
		}
		*i.dst = n
	}

	durations := []struct {
		name string
		dst  *time.Duration
	}{
		{"TIMEOUT", &cfg.Timeout},
		{"OLLAMA_TIMEOUT", &cfg.OllamaTimeout},
	}
	for _, d := range durations {
		v, ok := get(d.name)
		if !ok {
			continue
		}
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid %s%s: %w", EnvPrefix, d.name, err)
		}
		*d.dst = dur
	}

	if v, ok := get("TOR"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sTOR: %w", EnvPrefix, err)
		}
		cfg.UseTor = b
	}

	return nil
}
