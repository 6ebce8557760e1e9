// Package config holds hostdiag configuration, loaded from files and the
// environment via viper.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Prefix   string `mapstructure:"prefix"`
	Interval int    `mapstructure:"interval"` // sampling interval in seconds
	Verbose  bool   `mapstructure:"verbose"`

	Capture CaptureConfig `mapstructure:"capture"`
	Sampler SamplerConfig `mapstructure:"sampler"`
}

// CaptureConfig controls the detached packet-capture tool.
type CaptureConfig struct {
	Interface string `mapstructure:"interface"` // "any" captures on all interfaces
	SizeMB    int    `mapstructure:"size_mb"`   // per-file rotation size
	Count     int    `mapstructure:"count"`     // rotation file count
}

// SamplerConfig controls per-process sampling and dump-request signaling.
type SamplerConfig struct {
	// Selector matches application-runtime processes by command-line substring.
	Selector string `mapstructure:"selector"`
	// Denylist excludes processes whose command line contains any of these
	// substrings from the memory-map/dump-request step. The defaults name
	// runtimes whose on-demand dump behavior is expensive enough (full heap
	// or core dumps) that an unattended collector must never trigger it.
	Denylist []string `mapstructure:"denylist"`
	// DumpPatterns are the file-name globs used to pick up runtime-produced
	// dump files from each recorded dump directory at collect time.
	DumpPatterns []string `mapstructure:"dump_patterns"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Prefix:   "hostdiag",
		Interval: 1800,
		Verbose:  false,
		Capture: CaptureConfig{
			Interface: "any",
			SizeMB:    100,
			Count:     10,
		},
		Sampler: SamplerConfig{
			Selector:     "java",
			Denylist:     []string{"elasticsearch", "logstash", "cassandra", "kafka"},
			DumpPatterns: []string{"javacore*", "heapdump*", "*.hprof", "Snap*.trc"},
		},
	}
}

// Load loads configuration from files and environment
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("hostdiag")
	v.SetConfigType("yaml")

	// Config paths in order of precedence, lowest first
	v.AddConfigPath("/etc/hostdiag/")
	if configDir, err := os.UserConfigDir(); err == nil {
		v.AddConfigPath(filepath.Join(configDir, "hostdiag"))
	}
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
		v.SetConfigName(".hostdiag")
	}
	v.AddConfigPath(".")

	// Environment variables
	v.SetEnvPrefix("HOSTDIAG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.BindEnv("prefix", "HOSTDIAG_PREFIX")
	v.BindEnv("interval", "HOSTDIAG_INTERVAL")
	v.BindEnv("verbose", "HOSTDIAG_VERBOSE")
	v.BindEnv("capture.interface", "HOSTDIAG_CAPTURE_INTERFACE")

	setDefaults(v)

	// Try to read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	cfg := Default()
	v.SetDefault("prefix", cfg.Prefix)
	v.SetDefault("interval", cfg.Interval)
	v.SetDefault("verbose", cfg.Verbose)
	v.SetDefault("capture.interface", cfg.Capture.Interface)
	v.SetDefault("capture.size_mb", cfg.Capture.SizeMB)
	v.SetDefault("capture.count", cfg.Capture.Count)
	v.SetDefault("sampler.selector", cfg.Sampler.Selector)
	v.SetDefault("sampler.denylist", cfg.Sampler.Denylist)
	v.SetDefault("sampler.dump_patterns", cfg.Sampler.DumpPatterns)
}

// ConfigFile returns the path to the config file that was loaded
func ConfigFile() string {
	v := viper.New()

	v.SetConfigName("hostdiag")
	v.SetConfigType("yaml")
	if home, err := os.UserHomeDir(); err == nil {
		v.AddConfigPath(home)
	}
	v.AddConfigPath(".")

	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}

	v.SetConfigName(".hostdiag")
	if err := v.ReadInConfig(); err == nil {
		return v.ConfigFileUsed()
	}
	return ""
}
