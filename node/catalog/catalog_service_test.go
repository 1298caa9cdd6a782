package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"cryptex-node/fingerprint"
	"cryptex-node/node/cache"
	"cryptex-node/types"

	"github.com/ipfs/go-datastore"
	dssync "github.com/ipfs/go-datastore/sync"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
	uuid "github.com/satori/go.uuid"
)

func newTestCatalog(t *testing.T) *CatalogSvc {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	svc, err := NewCatalogSvc(
		dssync.MutexWrap(datastore.NewMapDatastore()),
		dssync.MutexWrap(datastore.NewMapDatastore()),
		db,
		cache.NewCacheSvc(),
		16,
	)
	require.NoError(t, err)
	return svc
}

func newRecord(content []byte, filename string, owner string) (*types.CatalogRecord, []byte) {
	return &types.CatalogRecord{
		Id:          uuid.NewV4().String(),
		Fingerprint: fingerprint.Calculate(content).Hex(),
		Filename:    filename,
		Owner:       owner,
		Size:        int64(len(content)),
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}, content
}

func TestPutAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t)

	record, content := newRecord([]byte("hello"), "song.mp3", "0xAAA0000000000000000000000000000000000001")
	require.NoError(t, svc.Put(ctx, record, content))

	got, err := svc.GetByFingerprint(ctx, record.Fingerprint)
	require.NoError(t, err)
	require.Equal(t, record.Id, got.Id)
	require.Equal(t, "song.mp3", got.Filename)
	// owner was normalized on the way in
	require.Equal(t, "0xaaa0000000000000000000000000000000000001", got.Owner)

	raw, err := svc.GetContent(ctx, record.Fingerprint)
	require.NoError(t, err)
	require.Equal(t, content, raw)
}

func TestPutRejectsDuplicateFingerprint(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t)

	record, content := newRecord([]byte("hello"), "a.txt", "0xaaa0000000000000000000000000000000000001")
	require.NoError(t, svc.Put(ctx, record, content))

	dup, _ := newRecord([]byte("hello"), "b.txt", "0xbbb0000000000000000000000000000000000002")
	err := svc.Put(ctx, dup, content)
	require.ErrorIs(t, err, types.ErrRecordExists)
}

func TestGetMissing(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t)

	fp := fingerprint.Calculate([]byte("nothing")).Hex()
	_, err := svc.GetByFingerprint(ctx, fp)
	require.ErrorIs(t, err, types.ErrRecordNotFound)

	_, err = svc.GetContent(ctx, fp)
	require.ErrorIs(t, err, types.ErrRecordNotFound)
}

func TestListByOwnerIsCaseInsensitive(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t)

	r1, c1 := newRecord([]byte("one"), "one.txt", "0xAAA0000000000000000000000000000000000001")
	r2, c2 := newRecord([]byte("two"), "two.txt", "0xaaa0000000000000000000000000000000000001")
	r3, c3 := newRecord([]byte("three"), "three.txt", "0xbbb0000000000000000000000000000000000002")
	require.NoError(t, svc.Put(ctx, r1, c1))
	require.NoError(t, svc.Put(ctx, r2, c2))
	require.NoError(t, svc.Put(ctx, r3, c3))

	records, err := svc.ListByOwner(ctx, "0xAAA0000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Len(t, records, 2)
	for _, record := range records {
		require.Equal(t, "0xaaa0000000000000000000000000000000000001", record.Owner)
	}
}

func TestUpdateOwner(t *testing.T) {
	ctx := context.Background()
	svc := newTestCatalog(t)

	record, content := newRecord([]byte("hello"), "a.txt", "0xaaa0000000000000000000000000000000000001")
	require.NoError(t, svc.Put(ctx, record, content))

	require.NoError(t, svc.UpdateOwner(ctx, record.Fingerprint, "0xCCC0000000000000000000000000000000000003"))

	got, err := svc.GetByFingerprint(ctx, record.Fingerprint)
	require.NoError(t, err)
	require.Equal(t, "0xccc0000000000000000000000000000000000003", got.Owner)

	records, err := svc.ListByOwner(ctx, "0xccc0000000000000000000000000000000000003")
	require.NoError(t, err)
	require.Len(t, records, 1)

	records, err = svc.ListByOwner(ctx, "0xaaa0000000000000000000000000000000000001")
	require.NoError(t, err)
	require.Len(t, records, 0)
}
