package profile

import (
	"context"
	"database/sql"

	"cryptex-node/types"
	"cryptex-node/utils"

	logging "github.com/ipfs/go-log/v2"
	_ "github.com/mattn/go-sqlite3"
)

var log = logging.Logger("profile")

const defaultName = "Anonymous User"

// profile service upserts user profiles keyed by the lowercase wallet
// address. There is no deletion path.
type ProfileSvcApi interface {
	Upsert(ctx context.Context, address string, name string, email string) (*types.UserProfile, error)
	Get(ctx context.Context, address string) (*types.UserProfile, error)
}

type ProfileSvc struct {
	db *sql.DB
}

func NewProfileSvc(db *sql.DB) (*ProfileSvc, error) {
	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS USER_PROFILE (
		ADDRESS TEXT PRIMARY KEY,
		NAME TEXT NOT NULL,
		EMAIL TEXT NOT NULL
	)`)
	if err != nil {
		return nil, types.Wrap(types.ErrOpenCatalogFailed, err)
	}

	return &ProfileSvc{db: db}, nil
}

// Upsert creates or updates a profile. Empty name/email leave the stored
// values untouched; a brand new profile falls back to defaults.
func (ps *ProfileSvc) Upsert(ctx context.Context, address string, name string, email string) (*types.UserProfile, error) {
	address = utils.NormalizeAddress(address)

	existing, err := ps.Get(ctx, address)
	if err != nil && !types.ErrProfileNotFound.Is(err) {
		return nil, err
	}

	profile := &types.UserProfile{Address: address}
	if existing != nil {
		profile.Name = existing.Name
		profile.Email = existing.Email
	} else {
		profile.Name = defaultName
	}
	if name != "" {
		profile.Name = name
	}
	if email != "" {
		profile.Email = email
	}

	_, err = ps.db.ExecContext(ctx,
		`INSERT INTO USER_PROFILE (ADDRESS, NAME, EMAIL) VALUES (?, ?, ?)
		 ON CONFLICT(ADDRESS) DO UPDATE SET NAME = excluded.NAME, EMAIL = excluded.EMAIL`,
		profile.Address, profile.Name, profile.Email,
	)
	if err != nil {
		return nil, types.Wrap(types.ErrUpsertProfileFailed, err)
	}

	log.Debugf("profile upserted. address=%s", address)
	return profile, nil
}

func (ps *ProfileSvc) Get(ctx context.Context, address string) (*types.UserProfile, error) {
	address = utils.NormalizeAddress(address)

	var profile types.UserProfile
	err := ps.db.QueryRowContext(ctx,
		"SELECT ADDRESS, NAME, EMAIL FROM USER_PROFILE WHERE ADDRESS = ?", address,
	).Scan(&profile.Address, &profile.Name, &profile.Email)
	if err == sql.ErrNoRows {
		return nil, types.Wrapf(types.ErrProfileNotFound, "address %s", address)
	} else if err != nil {
		return nil, types.Wrap(types.ErrUpsertProfileFailed, err)
	}

	return &profile, nil
}
