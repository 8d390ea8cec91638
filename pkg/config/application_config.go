package config

import (
	"fmt"

	"github.com/nspcc-dev/statetrie/pkg/core/storage/dbconfig"
	"go.uber.org/zap/zapcore"
)

// ApplicationConfiguration config specific to the tool.
type ApplicationConfiguration struct {
	DBConfiguration dbconfig.DBConfiguration `yaml:"DBConfiguration"`

	LogLevel    string `yaml:"LogLevel"`
	LogEncoding string `yaml:"LogEncoding"`
	LogPath     string `yaml:"LogPath"`

	Pprof      BasicService      `yaml:"Pprof"`
	Prometheus BasicService      `yaml:"Prometheus"`
	Trie       TrieConfiguration `yaml:"Trie"`
}

func defaultDBConfiguration() dbconfig.DBConfiguration {
	return dbconfig.DBConfiguration{Type: dbconfig.InMemoryDB}
}

// Validate checks ApplicationConfiguration for internal consistency and
// returns an error if any invalid settings are found.
func (a *ApplicationConfiguration) Validate() error {
	if !dbconfig.IsKnownType(a.DBConfiguration.Type) {
		return fmt.Errorf("unknown DB type: %s", a.DBConfiguration.Type)
	}
	if a.LogLevel != "" {
		if _, err := zapcore.ParseLevel(a.LogLevel); err != nil {
			return fmt.Errorf("invalid LogLevel: %w", err)
		}
	}
	switch a.LogEncoding {
	case "", "console", "json":
	default:
		return fmt.Errorf("invalid LogEncoding: %s", a.LogEncoding)
	}
	if a.Pprof.Enabled && len(a.Pprof.Addresses) == 0 {
		return fmt.Errorf("no addresses specified for enabled Pprof service")
	}
	if a.Prometheus.Enabled && len(a.Prometheus.Addresses) == 0 {
		return fmt.Errorf("no addresses specified for enabled Prometheus service")
	}
	return a.Trie.Validate()
}
