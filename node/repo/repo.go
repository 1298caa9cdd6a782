package repo

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"cryptex-node/node/config"
	"cryptex-node/types"

	"github.com/ipfs/go-datastore"
	logging "github.com/ipfs/go-log/v2"
	"github.com/mitchellh/go-homedir"
	"golang.org/x/xerrors"
)

var log = logging.Logger("repo")

const (
	fsConfig    = "config.toml"
	fsDatastore = "datastore"
	fsIndexDb   = "index.db"
)

type Repo struct {
	path       string
	configPath string

	readonly bool

	ds     map[string]datastore.Batching
	dsErr  error
	dsOnce sync.Once
}

func NewRepo(path string) (*Repo, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, types.Wrap(types.ErrInvalidRepoPath, err)
	}

	return &Repo{
		path:       path,
		configPath: filepath.Join(path, fsConfig),
	}, nil
}

func (r *Repo) Exists() (bool, error) {
	_, err := os.Stat(r.configPath)
	notexist := os.IsNotExist(err)
	if notexist {
		err = nil
	}
	return !notexist, err
}

func (r *Repo) Init(ledgerRemote string) error {
	exist, err := r.Exists()
	if err != nil {
		return err
	}
	if exist {
		return nil
	}

	log.Infof("Initializing repo at '%s'", r.path)
	err = os.MkdirAll(r.path, 0755) //nolint: gosec
	if err != nil && !os.IsExist(err) {
		return types.Wrap(types.ErrCreateDirFailed, err)
	}

	if err := r.initConfig(ledgerRemote); err != nil {
		return xerrors.Errorf("init config: %w", err)
	}

	return nil
}

func (r *Repo) Config() (interface{}, error) {
	return config.FromFile(r.configPath, r.defaultConfig(""))
}

func (r *Repo) Datastore(ctx context.Context, ns string) (datastore.Batching, error) {
	r.dsOnce.Do(func() {
		r.ds, r.dsErr = r.openDatastores(r.readonly)
	})

	if r.dsErr != nil {
		return nil, r.dsErr
	}
	ds, ok := r.ds[ns]
	if ok {
		return ds, nil
	}
	return nil, xerrors.Errorf("no such datastore: %s", ns)
}

// IndexDbPath is where the sqlite query index lives.
func (r *Repo) IndexDbPath() string {
	return r.join(fsIndexDb)
}

func (r *Repo) initConfig(ledgerRemote string) error {
	_, err := os.Stat(r.configPath)
	if err == nil {
		// exists
		return nil
	} else if !os.IsNotExist(err) {
		return err
	}

	c, err := os.Create(r.configPath)
	if err != nil {
		return err
	}

	comm, err := config.NodeBytes(r.defaultConfig(ledgerRemote))
	if err != nil {
		return xerrors.Errorf("load default: %w", err)
	}
	_, err = c.Write(comm)
	if err != nil {
		return xerrors.Errorf("write config: %w", err)
	}

	if err := c.Close(); err != nil {
		return xerrors.Errorf("close config: %w", err)
	}
	return nil
}

func (r *Repo) defaultConfig(ledgerRemote string) interface{} {
	def := config.DefaultVaultNode()
	if ledgerRemote != "" {
		def.Ledger.Remote = ledgerRemote
	}
	return def
}

// join joins path elements with the repo path
func (r *Repo) join(paths ...string) string {
	return filepath.Join(append([]string{r.path}, paths...)...)
}
