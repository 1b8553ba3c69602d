package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes environment overrides, e.g. COLSTORE_STORAGE_DATA_ROOT.
const EnvPrefix = "COLSTORE"

// Load reads a YAML configuration file on top of Default and applies
// COLSTORE_* environment overrides. An empty path loads defaults and
// environment only. ${VAR_NAME} references in the file are substituted
// before parsing.
func Load(filePath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v, Default())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if filePath != "" {
		data, err := os.ReadFile(filePath) //nolint:gosec // G304: path comes from the --config flag
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		content := substituteEnvVars(string(data))
		if err := v.ReadConfig(bytes.NewReader([]byte(content))); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves a configuration to a YAML file
func Save(filePath string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal YAML: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil { //nolint:gosec
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setDefaults registers every key so AutomaticEnv can override it during
// Unmarshal.
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("storage.data_root", d.Storage.DataRoot)
	v.SetDefault("storage.max_shard_size", d.Storage.MaxShardSize)
	v.SetDefault("storage.use_mmap", d.Storage.UseMmap)

	v.SetDefault("analysis.grace_days", d.Analysis.GraceDays)
	v.SetDefault("analysis.narrow_quantity", d.Analysis.NarrowQuantity)
	v.SetDefault("analysis.top_n", d.Analysis.TopN)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.development", d.Logging.Development)
	v.SetDefault("logging.encoding", d.Logging.Encoding)
	v.SetDefault("logging.output_paths", d.Logging.OutputPaths)

	v.SetDefault("observability.metrics_addr", d.Observability.MetricsAddr)
	v.SetDefault("observability.tracing", d.Observability.Tracing)
	v.SetDefault("observability.sampling_rate", d.Observability.SamplingRate)

	v.SetDefault("snapshot.algorithm", d.Snapshot.Algorithm)
	v.SetDefault("snapshot.level", d.Snapshot.Level)
}

// substituteEnvVars replaces ${VAR_NAME} with environment variable values
func substituteEnvVars(content string) string {
	for {
		start := strings.Index(content, "${")
		if start == -1 {
			break
		}
		end := strings.Index(content[start:], "}")
		if end == -1 {
			break
		}
		end += start

		varName := content[start+2 : end]
		envValue := os.Getenv(varName)
		content = content[:start] + envValue + content[end+1:]
	}
	return content
}
