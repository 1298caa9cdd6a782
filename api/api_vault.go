package api

import (
	"context"

	"cryptex-node/types"
)

// VaultApi is the operator-facing RPC surface of a running node. It is
// registered under the "Cryptex" namespace.
type VaultApi interface {
	Test(ctx context.Context, msg string) (string, error)
	NodeStatus(ctx context.Context) (NodeStatusResp, error)
	OwnerOf(ctx context.Context, fingerprint string) (string, error)
	ListAssets(ctx context.Context, owner string) ([]types.CatalogRecord, error)
	ListActivity(ctx context.Context, address string) ([]types.ActivityEntry, error)
}

type NodeStatusResp struct {
	Version      string `json:"version"`
	LedgerRemote string `json:"ledgerRemote"`
	AssetCount   int64  `json:"assetCount"`
}
