package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"go.dedis.ch/bookstore/logging"
)

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		logging.RootLogger.Error().Err(err).Msg("bookstore failed")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "bookstore",
		Usage: "drive a Bookstore marketplace contract on a ledger node",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    flagConfig,
				Aliases: []string{"c"},
				Usage:   "TOML configuration file",
				EnvVars: []string{"BOOKSTORE_CONFIG"},
			},
			&cli.StringFlag{
				Name:    flagRPCURL,
				Usage:   "JSON-RPC endpoint of the node",
				EnvVars: []string{"BOOKSTORE_RPC_URL"},
			},
			&cli.StringFlag{
				Name:    flagArtifact,
				Usage:   "compiled contract artifact (Foundry or Hardhat JSON)",
				EnvVars: []string{"BOOKSTORE_ARTIFACT"},
			},
			&cli.StringFlag{
				Name:    flagSellerKey,
				Usage:   "hex private key of the seller",
				EnvVars: []string{"BOOKSTORE_SELLER_KEY"},
			},
			&cli.StringFlag{
				Name:    flagBuyerKey,
				Usage:   "hex private key of the buyer",
				EnvVars: []string{"BOOKSTORE_BUYER_KEY"},
			},
			&cli.DurationFlag{
				Name:    flagConfirmTimeout,
				Usage:   "how long to wait for a transaction to be mined",
				EnvVars: []string{"BOOKSTORE_CONFIRM_TIMEOUT"},
			},
			&cli.StringFlag{
				Name:    flagLogLevel,
				Usage:   "trace, debug, info, warn or error",
				EnvVars: []string{"BOOKSTORE_LOG_LEVEL"},
			},
		},
		Before: loadConfig,
		Action: runDemo,
		Commands: []*cli.Command{
			{
				Name:   "demo",
				Usage:  "deploy a fresh Bookstore and walk it through every operation",
				Action: runDemo,
			},
			{
				Name:   "deploy",
				Usage:  "deploy the Bookstore from the seller and print its address",
				Action: runDeploy,
			},
			{
				Name:  "inspect",
				Usage: "read the listings of a deployed Bookstore",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagAddress, Usage: "contract address", Required: true},
					&cli.Int64Flag{Name: flagBook, Usage: "only show this book id", Value: -1},
				},
				Action: runInspect,
			},
			{
				Name:  "balance",
				Usage: "print the balance of an account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagAddress, Usage: "account address", Required: true},
				},
				Action: runBalance,
			},
		},
	}
}
