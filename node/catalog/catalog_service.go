package catalog

import (
	"context"
	"database/sql"
	"time"

	"cryptex-node/node/cache"
	"cryptex-node/types"
	"cryptex-node/utils"

	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

var log = logging.Logger("catalog")

const recordCache = "catalog-records"

// catalog service mirrors confirmed ledger registrations off-chain. Record
// metadata lives in the metadata datastore, raw asset bytes in the blob
// datastore, and a sqlite index answers owner queries. None of its
// operations establish ownership on their own; the coordinator only calls
// Put/UpdateOwner after a positive ledger result.
type CatalogSvcApi interface {
	Put(ctx context.Context, record *types.CatalogRecord, content []byte) error
	GetByFingerprint(ctx context.Context, fp string) (*types.CatalogRecord, error)
	GetContent(ctx context.Context, fp string) ([]byte, error)
	ListByOwner(ctx context.Context, owner string) ([]types.CatalogRecord, error)
	UpdateOwner(ctx context.Context, fp string, newOwner string) error
}

type CatalogSvc struct {
	metaDs   datastore.Batching
	blobDs   datastore.Batching
	db       *sql.DB
	cacheSvc cache.CacheSvcApi
}

func NewCatalogSvc(metaDs datastore.Batching, blobDs datastore.Batching, db *sql.DB, cacheSvc cache.CacheSvcApi, cacheCapacity int) (*CatalogSvc, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS FILES (
		HASH TEXT PRIMARY KEY,
		ID TEXT NOT NULL,
		FILENAME TEXT NOT NULL,
		OWNER TEXT NOT NULL,
		SIZE INTEGER NOT NULL,
		CREATED_AT INTEGER NOT NULL
	)`)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenCatalogFailed, err)
	}

	if cacheSvc != nil {
		if cacheCapacity <= 0 {
			cacheCapacity = 1024
		}
		if err = cacheSvc.CreateCache(recordCache, cacheCapacity); err != nil {
			return nil, types.Wrap(types.ErrOpenCatalogFailed, err)
		}
	}

	return &CatalogSvc{
		metaDs:   metaDs,
		blobDs:   blobDs,
		db:       db,
		cacheSvc: cacheSvc,
	}, nil
}

func dsKey(fp string) datastore.Key {
	return datastore.NewKey(fp)
}

func (cs *CatalogSvc) Put(ctx context.Context, record *types.CatalogRecord, content []byte) error {
	record.Owner = utils.NormalizeAddress(record.Owner)

	exists, err := cs.metaDs.Has(ctx, dsKey(record.Fingerprint))
	if err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}
	if exists {
		return types.Wrapf(types.ErrRecordExists, "fingerprint %s", record.Fingerprint)
	}

	raw, err := jsoniter.Marshal(record)
	if err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}

	if err = cs.blobDs.Put(ctx, dsKey(record.Fingerprint), content); err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}
	if err = cs.metaDs.Put(ctx, dsKey(record.Fingerprint), raw); err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}

	_, err = cs.db.Exec(
		"INSERT INTO FILES (HASH, ID, FILENAME, OWNER, SIZE, CREATED_AT) VALUES (?, ?, ?, ?, ?, ?)",
		record.Fingerprint, record.Id, record.Filename, record.Owner, record.Size, record.CreatedAt.Unix(),
	)
	if err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}

	if cs.cacheSvc != nil {
		if err = cs.cacheSvc.Put(recordCache, record.Fingerprint, record); err != nil {
			log.Warnf("cache put failed: %v", err)
		}
	}

	log.Debugf("catalog record stored. fingerprint=%s owner=%s", record.Fingerprint, record.Owner)
	return nil
}

func (cs *CatalogSvc) GetByFingerprint(ctx context.Context, fp string) (*types.CatalogRecord, error) {
	if cs.cacheSvc != nil {
		cached, err := cs.cacheSvc.Get(recordCache, fp)
		if err == nil && cached != nil {
			if record, ok := cached.(*types.CatalogRecord); ok {
				return record, nil
			}
		}
	}

	raw, err := cs.metaDs.Get(ctx, dsKey(fp))
	if err == datastore.ErrNotFound {
		return nil, types.Wrapf(types.ErrRecordNotFound, "fingerprint %s", fp)
	} else if err != nil {
		return nil, types.Wrap(types.ErrQueryRecordFailed, err)
	}

	var record types.CatalogRecord
	if err = jsoniter.Unmarshal(raw, &record); err != nil {
		return nil, types.Wrap(types.ErrQueryRecordFailed, err)
	}

	if cs.cacheSvc != nil {
		if err = cs.cacheSvc.Put(recordCache, fp, &record); err != nil {
			log.Warnf("cache put failed: %v", err)
		}
	}

	return &record, nil
}

func (cs *CatalogSvc) GetContent(ctx context.Context, fp string) ([]byte, error) {
	content, err := cs.blobDs.Get(ctx, dsKey(fp))
	if err == datastore.ErrNotFound {
		return nil, types.Wrapf(types.ErrRecordNotFound, "fingerprint %s", fp)
	} else if err != nil {
		return nil, types.Wrap(types.ErrQueryRecordFailed, err)
	}
	return content, nil
}

func (cs *CatalogSvc) ListByOwner(ctx context.Context, owner string) ([]types.CatalogRecord, error) {
	rows, err := cs.db.QueryContext(ctx,
		"SELECT HASH, ID, FILENAME, OWNER, SIZE, CREATED_AT FROM FILES WHERE OWNER = ? ORDER BY CREATED_AT DESC",
		utils.NormalizeAddress(owner),
	)
	if err != nil {
		return nil, types.Wrap(types.ErrQueryRecordFailed, err)
	}
	defer rows.Close() //nolint:errcheck

	records := make([]types.CatalogRecord, 0)
	for rows.Next() {
		var record types.CatalogRecord
		var createdAt int64
		if err = rows.Scan(&record.Fingerprint, &record.Id, &record.Filename, &record.Owner, &record.Size, &createdAt); err != nil {
			return nil, types.Wrap(types.ErrQueryRecordFailed, err)
		}
		record.CreatedAt = time.Unix(createdAt, 0).UTC()
		records = append(records, record)
	}
	if err = rows.Err(); err != nil {
		return nil, types.Wrap(types.ErrQueryRecordFailed, err)
	}

	return records, nil
}

// UpdateOwner is only invoked by the coordinator after a confirmed ledger
// transfer.
func (cs *CatalogSvc) UpdateOwner(ctx context.Context, fp string, newOwner string) error {
	record, err := cs.GetByFingerprint(ctx, fp)
	if err != nil {
		return err
	}

	updated := *record
	updated.Owner = utils.NormalizeAddress(newOwner)

	raw, err := jsoniter.Marshal(&updated)
	if err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}
	if err = cs.metaDs.Put(ctx, dsKey(fp), raw); err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}

	if _, err = cs.db.Exec("UPDATE FILES SET OWNER = ? WHERE HASH = ?", updated.Owner, fp); err != nil {
		return types.Wrap(types.ErrPutRecordFailed, err)
	}

	if cs.cacheSvc != nil {
		if err = cs.cacheSvc.Put(recordCache, fp, &updated); err != nil {
			log.Warnf("cache put failed: %v", err)
		}
	}

	log.Debugf("catalog owner updated. fingerprint=%s owner=%s", fp, updated.Owner)
	return nil
}
