package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/teranos/pinvokegen/errors"
)

// The active source and the configuration decoded from it. Layering, lowest
// first: SetDefaults, user file, project file (or the UseFile override),
// PINVOKEGEN_* variables, then anything Set on GetViper.
var (
	mu     sync.Mutex
	source *viper.Viper
	loaded *Config
)

// Load decodes the active source once and caches the result until Reset
func Load() (*Config, error) {
	mu.Lock()
	defer mu.Unlock()
	if loaded != nil {
		return loaded, nil
	}
	cfg, err := LoadWithViper(activeSource())
	if err != nil {
		return nil, err
	}
	loaded = cfg
	return loaded, nil
}

// GetViper exposes the active source so callers can layer overrides on it
// before the first Load
func GetViper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	return activeSource()
}

// LoadWithViper decodes v without touching the cached configuration
func LoadWithViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to decode configuration")
	}
	return &cfg, nil
}

// LoadFromFile reads one TOML file over the defaults, ignoring the
// environment
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()
	SetDefaults(v)
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s", path)
	}
	cfg, err := LoadWithViper(v)
	if err != nil {
		return nil, errors.Wrapf(err, "in %s", path)
	}
	return cfg, nil
}

// Reset drops the active source and cached configuration
func Reset() {
	mu.Lock()
	source, loaded = nil, nil
	mu.Unlock()
}

// UseFile replaces the user and project files with path for the next Load
func UseFile(path string) {
	v := newSource()
	layerFile(v, path)
	mu.Lock()
	source, loaded = v, nil
	mu.Unlock()
}

// activeSource must be called with mu held
func activeSource() *viper.Viper {
	if source == nil {
		source = newSource()
		for _, path := range ConfigPaths() {
			layerFile(source, path)
		}
	}
	return source
}

func newSource() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// layerFile copies the leaf keys of a TOML file onto v's defaults, so a
// partial section keeps its siblings and the environment still wins.
// Missing or unreadable files are skipped.
func layerFile(v *viper.Viper, path string) {
	file := viper.New()
	file.SetConfigFile(path)
	file.SetConfigType("toml")
	if err := file.ReadInConfig(); err != nil {
		return
	}
	for _, key := range file.AllKeys() {
		v.SetDefault(key, file.Get(key))
	}
}

// FindProjectConfig walks up from dir to the first pinvokegen.toml, or ""
func FindProjectConfig(dir string) string {
	for {
		candidate := filepath.Join(dir, ProjectConfigName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ConfigPaths lists the files Load layers, lowest precedence first. The user
// file is listed whether or not it exists.
func ConfigPaths() []string {
	var paths []string
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, UserConfigDir, UserConfigName))
	}
	if wd, err := os.Getwd(); err == nil {
		if project := FindProjectConfig(wd); project != "" {
			paths = append(paths, project)
		}
	}
	return paths
}
