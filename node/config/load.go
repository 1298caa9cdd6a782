package config

import (
	"io"
	"os"

	"cryptex-node/types"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"github.com/mitchellh/go-homedir"
)

// FromFile loads config from a file, falling back to def when the file does
// not exist yet.
func FromFile(path string, def interface{}) (interface{}, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidRepoPath, err)
	}

	file, err := os.Open(path)
	switch {
	case os.IsNotExist(err):
		return def, nil
	case err != nil:
		return nil, types.Wrap(types.ErrDecodeConfigFailed, err)
	}
	defer file.Close() //nolint:errcheck

	return FromReader(file, def)
}

// FromReader loads config from a reader instance.
func FromReader(reader io.Reader, def interface{}) (interface{}, error) {
	cfg := def
	_, err := toml.NewDecoder(reader).Decode(cfg)
	if err != nil {
		return nil, types.Wrap(types.ErrDecodeConfigFailed, err)
	}

	err = envconfig.Process("CRYPTEX", cfg)
	if err != nil {
		return nil, types.Wrapf(types.ErrInvalidConfig, "processing env vars overrides: %v", err)
	}

	return cfg, nil
}
