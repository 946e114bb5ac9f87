package config

import "sync"

var (
	mu      sync.RWMutex
	current *Config
)

// Init loads the configuration and stores it for Get. Call once at startup
// before any subsystem asks for config.
func Init() error {
	cfg, err := Load()
	if err != nil {
		return err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// InitFromPath loads the configuration from an explicit file.
func InitFromPath(path string) error {
	cfg, err := LoadFromPath(path)
	if err != nil {
		return err
	}

	mu.Lock()
	current = cfg
	mu.Unlock()
	return nil
}

// Get returns the loaded configuration. Nil before Init.
func Get() *Config {
	mu.RLock()
	defer mu.RUnlock()
	return current
}
