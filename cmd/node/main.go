package main

import (
	"fmt"
	"os"

	apiclient "cryptex-node/api/client"
	cliutil "cryptex-node/cmd"
	"cryptex-node/node"
	"cryptex-node/node/repo"
	"cryptex-node/types"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
	"golang.org/x/xerrors"
)

var log = logging.Logger("node")

const (
	FlagVaultRepo        = "repo"
	FlagVaultDefaultRepo = "~/.cryptex-node"
)

var FlagRepo = &cli.StringFlag{
	Name:    FlagVaultRepo,
	Usage:   "repo directory for the cryptex vault node",
	EnvVars: []string{"CRYPTEX_NODE_PATH"},
	Value:   FlagVaultDefaultRepo,
}

func before(_ *cli.Context) error {
	_ = logging.SetLogLevel("node", "INFO")
	_ = logging.SetLogLevel("rpc", "INFO")
	_ = logging.SetLogLevel("repo", "INFO")
	_ = logging.SetLogLevel("ledger", "INFO")
	_ = logging.SetLogLevel("catalog", "INFO")
	_ = logging.SetLogLevel("activity", "INFO")
	_ = logging.SetLogLevel("profile", "INFO")
	_ = logging.SetLogLevel("vault", "INFO")
	_ = logging.SetLogLevel("gateway", "INFO")
	_ = logging.SetLogLevel("cache", "INFO")
	if cliutil.IsVeryVerbose {
		_ = logging.SetLogLevel("node", "DEBUG")
		_ = logging.SetLogLevel("rpc", "DEBUG")
		_ = logging.SetLogLevel("repo", "DEBUG")
		_ = logging.SetLogLevel("ledger", "DEBUG")
		_ = logging.SetLogLevel("catalog", "DEBUG")
		_ = logging.SetLogLevel("activity", "DEBUG")
		_ = logging.SetLogLevel("profile", "DEBUG")
		_ = logging.SetLogLevel("vault", "DEBUG")
		_ = logging.SetLogLevel("gateway", "DEBUG")
		_ = logging.SetLogLevel("cache", "DEBUG")
	}

	return nil
}

func main() {
	app := &cli.App{
		Name:                 cliutil.APP_NAME_NODE,
		Usage:                "Command line for a cryptex vault node",
		EnableBashCompletion: true,
		Version:              node.NodeVersion,
		Before:               before,
		Flags: []cli.Flag{
			FlagRepo,
			cliutil.FlagLedgerAddress,
			cliutil.FlagNodeApi,
			cliutil.FlagVeryVerbose,
		},
		Commands: []*cli.Command{
			initCmd,
			runCmd,
			infoCmd,
		},
	}
	app.Setup()

	if err := app.Run(os.Args); err != nil {
		os.Stderr.WriteString("Error: " + err.Error() + "\n")
		os.Exit(1)
	}
}

var initCmd = &cli.Command{
	Name:  "init",
	Usage: "initialize a cryptex vault node repo",
	Action: func(cctx *cli.Context) error {
		repoPath := cctx.String(FlagVaultRepo)
		r, err := repo.NewRepo(repoPath)
		if err != nil {
			return err
		}

		exists, err := r.Exists()
		if err != nil {
			return err
		}
		if exists {
			return types.Wrapf(types.ErrInvalidRepoPath, "repo at '%s' is already initialized", repoPath)
		}

		log.Infof("initializing repo: %s", repoPath)
		if err = r.Init(cliutil.LedgerAddress); err != nil {
			return err
		}

		fmt.Println("vault node initialized.")
		return nil
	},
}

var runCmd = &cli.Command{
	Name:  "run",
	Usage: "start the vault node",
	Action: func(cctx *cli.Context) error {
		shutdownChan := make(chan struct{})
		ctx := cctx.Context

		r, err := prepareRepo(cctx)
		if err != nil {
			return err
		}

		vnode, err := node.NewVaultNode(ctx, r)
		if err != nil {
			return err
		}

		finishCh := node.MonitorShutdown(
			shutdownChan,
			node.ShutdownHandler{Component: "vaultnode", StopFunc: vnode.Stop},
		)
		<-finishCh
		return nil
	},
}

var infoCmd = &cli.Command{
	Name:  "info",
	Usage: "show node information",
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context

		nodeApi := cliutil.NodeApi
		if nodeApi == "" {
			nodeApi = "http://127.0.0.1:5152/rpc/v0"
		}

		client, closer, err := apiclient.NewNodeApi(ctx, nodeApi, "")
		if err != nil {
			return err
		}
		defer closer()

		status, err := client.NodeStatus(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Version:       %s\n", status.Version)
		fmt.Printf("Ledger remote: %s\n", status.LedgerRemote)
		fmt.Printf("Assets:        %d\n", status.AssetCount)
		return nil
	},
}

func prepareRepo(cctx *cli.Context) (*repo.Repo, error) {
	repoPath := cctx.String(FlagVaultRepo)
	r, err := repo.NewRepo(repoPath)
	if err != nil {
		return nil, err
	}

	exists, err := r.Exists()
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, xerrors.Errorf("repo at '%s' is not initialized, run 'init' first", repoPath)
	}

	return r, nil
}
