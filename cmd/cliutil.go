package cliutil

import (
	"github.com/urfave/cli/v2"
)

const APP_NAME_NODE = "cryptexnode"

var LedgerAddress string
var FlagLedgerAddress = &cli.StringFlag{
	Name:        "ledger-address",
	Usage:       "ledger json-rpc api",
	EnvVars:     []string{"CRYPTEX_LEDGER_API"},
	Destination: &LedgerAddress,
}

var NodeApi string
var FlagNodeApi = &cli.StringFlag{
	Name:        "node",
	Usage:       "node rpc connection",
	EnvVars:     []string{"CRYPTEX_NODE_API"},
	Required:    false,
	Destination: &NodeApi,
}

// IsVeryVerbose is a global var signalling if the CLI is running in very
// verbose mode or not (default: false).
var IsVeryVerbose bool

// FlagVeryVerbose enables very verbose mode, which is useful when debugging
// the CLI itself. It should be included as a flag on the top-level command
// (e.g. cryptexnode -vv).
var FlagVeryVerbose = &cli.BoolFlag{
	Name:        "vv",
	Usage:       "enables very verbose mode, useful for debugging the CLI",
	Destination: &IsVeryVerbose,
}
