package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

// config is the on-disk configuration for monitorprobe, loaded with
// BurntSushi/toml.
type config struct {
	// Root is the directory that dependency paths are resolved relative to.
	Root string `toml:"root"`
	// CachePath is where probe state is persisted between invocations.
	CachePath string `toml:"cache_path"`
	// HashAlgorithm is currently advisory: this engine always uses xxhash,
	// but the field is kept so a future multi-algorithm build can read it
	// without breaking existing configuration files.
	HashAlgorithm string `toml:"hash_algorithm"`
}

func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return config{}, errors.Wrap(err, "unable to decode configuration file")
	}
	return cfg, nil
}
