package node

import (
	"context"
	"database/sql"

	"cryptex-node/api"
	"cryptex-node/fingerprint"
	"cryptex-node/ledger"
	"cryptex-node/node/activity"
	"cryptex-node/node/cache"
	"cryptex-node/node/catalog"
	"cryptex-node/node/config"
	"cryptex-node/node/gateway"
	"cryptex-node/node/profile"
	"cryptex-node/node/repo"
	"cryptex-node/node/vault"
	"cryptex-node/types"

	logging "github.com/ipfs/go-log/v2"
	_ "github.com/mattn/go-sqlite3"
	"github.com/multiformats/go-multiaddr"
	"golang.org/x/xerrors"
)

var log = logging.Logger("node")

const NodeVersion = "0.1.0"

// VaultNode assembles the services of a running node: the ledger client,
// the catalog, the activity log, user profiles, the ownership coordinator,
// the http gateway and the operator rpc server.
type VaultNode struct {
	ctx  context.Context
	cfg  *config.VaultNode
	repo *repo.Repo

	db          *sql.DB
	ledgerSvc   ledger.LedgerSvcApi
	catalogSvc  catalog.CatalogSvcApi
	activitySvc activity.ActivitySvcApi
	profileSvc  profile.ProfileSvcApi
	vaultSvc    vault.VaultSvcApi

	stopFuncs []StopFunc
}

func NewVaultNode(ctx context.Context, repo *repo.Repo) (*VaultNode, error) {
	c, err := repo.Config()
	if err != nil {
		return nil, err
	}
	cfg, ok := c.(*config.VaultNode)
	if !ok {
		return nil, xerrors.Errorf("invalid config for repo, got: %T", c)
	}

	metaDs, err := repo.Datastore(ctx, "/metadata")
	if err != nil {
		return nil, err
	}
	blobDs, err := repo.Datastore(ctx, "/blobs")
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", repo.IndexDbPath())
	if err != nil {
		return nil, types.Wrap(types.ErrOpenIndexDbFailed, err)
	}

	ledgerSvc, err := ledger.NewLedgerSvc(ctx, cfg.Ledger.Remote, cfg.Ledger.GasLimit, cfg.Ledger.Timeout)
	if err != nil {
		return nil, err
	}

	var cacheSvc cache.CacheSvcApi
	cacheCapacity := 0
	if cfg.Cache.EnableCache {
		cacheSvc = cache.NewCacheSvc()
		cacheCapacity = cfg.Cache.CacheCapacity
	}

	catalogSvc, err := catalog.NewCatalogSvc(metaDs, blobDs, db, cacheSvc, cacheCapacity)
	if err != nil {
		return nil, err
	}
	activitySvc, err := activity.NewActivitySvc(db)
	if err != nil {
		return nil, err
	}
	profileSvc, err := profile.NewProfileSvc(db)
	if err != nil {
		return nil, err
	}

	vn := &VaultNode{
		ctx:         ctx,
		cfg:         cfg,
		repo:        repo,
		db:          db,
		ledgerSvc:   ledgerSvc,
		catalogSvc:  catalogSvc,
		activitySvc: activitySvc,
		profileSvc:  profileSvc,
		vaultSvc:    vault.NewVaultSvc(ledgerSvc, catalogSvc, activitySvc),
	}

	httpGateway := gateway.NewHttpGateway(&cfg.Api, vn.vaultSvc, catalogSvc, activitySvc, profileSvc)
	httpGateway.Start()
	vn.stopFuncs = append(vn.stopFuncs, httpGateway.Stop)

	rpcStopper, err := newRpcServer(vn, cfg.Api.ListenAddress)
	if err != nil {
		return nil, err
	}
	vn.stopFuncs = append(vn.stopFuncs, rpcStopper)

	vn.stopFuncs = append(vn.stopFuncs, ledgerSvc.Stop)
	vn.stopFuncs = append(vn.stopFuncs, func(_ context.Context) error {
		return db.Close()
	})

	return vn, nil
}

func newRpcServer(va api.VaultApi, listenAddress string) (StopFunc, error) {
	log.Info("initialize rpc server")

	handler, err := VaultRpcHandler(va)
	if err != nil {
		return nil, xerrors.Errorf("failed to instantiate rpc handler: %w", err)
	}

	addr, err := multiaddr.NewMultiaddr(listenAddress)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidServerAddress, err)
	}

	rpcStopper, err := ServeRPC(handler, addr)
	if err != nil {
		return nil, xerrors.Errorf("failed to start json-rpc endpoint: %w", err)
	}
	return rpcStopper, nil
}

func (vn *VaultNode) Stop(ctx context.Context) error {
	for _, stop := range vn.stopFuncs {
		if err := stop(ctx); err != nil {
			log.Errorf("shutdown error: %v", err)
		}
	}
	return nil
}

// --- operator rpc surface ---

func (vn *VaultNode) Test(ctx context.Context, msg string) (string, error) {
	return "world, " + msg, nil
}

func (vn *VaultNode) NodeStatus(ctx context.Context) (api.NodeStatusResp, error) {
	var count int64
	err := vn.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM FILES").Scan(&count)
	if err != nil {
		return api.NodeStatusResp{}, types.Wrap(types.ErrQueryRecordFailed, err)
	}

	return api.NodeStatusResp{
		Version:      NodeVersion,
		LedgerRemote: vn.cfg.Ledger.Remote,
		AssetCount:   count,
	}, nil
}

func (vn *VaultNode) OwnerOf(ctx context.Context, fp string) (string, error) {
	decoded, err := fingerprint.FromHex(fp)
	if err != nil {
		return "", types.Wrap(types.ErrInvalidFingerprint, err)
	}
	return vn.ledgerSvc.GetOwner(ctx, decoded.Bytes())
}

func (vn *VaultNode) ListAssets(ctx context.Context, owner string) ([]types.CatalogRecord, error) {
	return vn.catalogSvc.ListByOwner(ctx, owner)
}

func (vn *VaultNode) ListActivity(ctx context.Context, address string) ([]types.ActivityEntry, error) {
	return vn.activitySvc.ListByAddress(ctx, address, activity.DefaultListLimit)
}
