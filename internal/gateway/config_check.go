package gateway

import (
	"os"
	"strings"
)

// Env looks up integration settings by key.
type Env interface {
	Lookup(key string) string
}

// MapEnv is an Env backed by a map; used when settings come from config.Config.
type MapEnv map[string]string

func (m MapEnv) Lookup(key string) string { return m[key] }

// OSEnv reads the process environment.
type OSEnv struct{}

func (OSEnv) Lookup(key string) string { return os.Getenv(key) }

// ConfigStatus reports whether every required key of an integration is set.
type ConfigStatus struct {
	Configured  bool     `json:"configured"`
	MissingKeys []string `json:"missingKeys,omitempty"`
}

// CheckConfig treats a key as missing when it is blank or still holds the
// "your_<key>" placeholder from the sample env file.
func CheckConfig(env Env, keys ...string) ConfigStatus {
	if env == nil {
		env = OSEnv{}
	}
	var missing []string
	for _, key := range keys {
		value := strings.TrimSpace(env.Lookup(key))
		if value == "" || value == "your_"+strings.ToLower(key) {
			missing = append(missing, key)
		}
	}
	return ConfigStatus{Configured: len(missing) == 0, MissingKeys: missing}
}
