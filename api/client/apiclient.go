package apiclient

import (
	"context"
	"net/http"

	"cryptex-node/api"
	"cryptex-node/types"

	"github.com/filecoin-project/go-jsonrpc"
)

const namespace = "Cryptex"

type VaultApiStruct struct {
	Internal struct {
		Test         func(ctx context.Context, msg string) (string, error)
		NodeStatus   func(ctx context.Context) (api.NodeStatusResp, error)
		OwnerOf      func(ctx context.Context, fingerprint string) (string, error)
		ListAssets   func(ctx context.Context, owner string) ([]types.CatalogRecord, error)
		ListActivity func(ctx context.Context, address string) ([]types.ActivityEntry, error)
	}
}

func (s *VaultApiStruct) Test(ctx context.Context, msg string) (string, error) {
	return s.Internal.Test(ctx, msg)
}

func (s *VaultApiStruct) NodeStatus(ctx context.Context) (api.NodeStatusResp, error) {
	return s.Internal.NodeStatus(ctx)
}

func (s *VaultApiStruct) OwnerOf(ctx context.Context, fingerprint string) (string, error) {
	return s.Internal.OwnerOf(ctx, fingerprint)
}

func (s *VaultApiStruct) ListAssets(ctx context.Context, owner string) ([]types.CatalogRecord, error) {
	return s.Internal.ListAssets(ctx, owner)
}

func (s *VaultApiStruct) ListActivity(ctx context.Context, address string) ([]types.ActivityEntry, error) {
	return s.Internal.ListActivity(ctx, address)
}

func NewNodeApi(ctx context.Context, address string, token string) (api.VaultApi, jsonrpc.ClientCloser, error) {
	var res VaultApiStruct

	headers := http.Header{}
	if token != "" {
		headers.Add("Authorization", "Bearer "+token)
	}

	closer, err := jsonrpc.NewMergeClient(ctx, address, namespace, []interface{}{&res.Internal}, headers)
	return &res, closer, err
}
