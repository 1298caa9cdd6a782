package config

import (
	"bytes"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/xerrors"
)

// vault node config
type VaultNode struct {
	Ledger Ledger
	Api    Api
	Cache  Cache
}

type Ledger struct {
	Remote   string
	GasLimit uint64
	Timeout  time.Duration
}

type Api struct {
	// multiaddr the operator rpc listens on
	ListenAddress string
	// host:port the http gateway listens on
	HttpServerAddress string
	EnableHttpLog     bool
	// validity period of file download tokens
	TokenPeriod time.Duration
}

type Cache struct {
	EnableCache   bool
	CacheCapacity int
	ContentLimit  int
}

func DefaultVaultNode() *VaultNode {
	return &VaultNode{
		Ledger: Ledger{
			Remote:   "http://127.0.0.1:7545/rpc/v0",
			GasLimit: 300000,
			Timeout:  30 * time.Second,
		},
		Api: Api{
			ListenAddress:     "/ip4/127.0.0.1/tcp/5152",
			HttpServerAddress: "127.0.0.1:3000",
			EnableHttpLog:     false,
			TokenPeriod:       24 * time.Hour,
		},
		Cache: Cache{
			EnableCache:   true,
			CacheCapacity: 1000,
			ContentLimit:  2097152,
		},
	}
}

func NodeBytes(cfg interface{}) ([]byte, error) {
	buf := new(bytes.Buffer)
	e := toml.NewEncoder(buf)
	if err := e.Encode(cfg); err != nil {
		return nil, xerrors.Errorf("encoding node config: %w", err)
	}

	return buf.Bytes(), nil
}
