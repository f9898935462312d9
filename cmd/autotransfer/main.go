package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

var (
	Version   = "v0.1.0"
	GitCommit = ""
)

func main() {
	_ = godotenv.Load()
	_ = godotenv.Overload(".env.local")

	if err := newApp().Run(os.Args); err != nil {
		die(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "autotransfer"
	app.Version = fmt.Sprintf("%s-%s", Version, GitCommit)
	app.Usage = "Repeatedly transfer native coin or an ERC-20 token until a target amount is sent"
	app.Flags = runFlags()
	app.Action = runAction
	app.Commands = []*cli.Command{
		{
			Name:   "run",
			Usage:  "Start a repeated transfer (default)",
			Flags:  runFlags(),
			Action: runAction,
		},
		{
			Name:   "networks",
			Usage:  "List networks from the networks file",
			Flags:  []cli.Flag{networksFileFlag()},
			Action: networksAction,
		},
	}
	return app
}

func networksFileFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "networks-file",
		Usage:   "Path to the networks file (json/yaml/toml)",
		EnvVars: []string{"NETWORKS_FILE"},
	}
}

func runFlags() []cli.Flag {
	return []cli.Flag{
		networksFileFlag(),
		&cli.StringFlag{
			Name:    "network",
			Aliases: []string{"n"},
			Usage:   "Network number or key (prompted when empty)",
		},
		&cli.StringFlag{
			Name:    "kind",
			Aliases: []string{"k"},
			Usage:   "Transaction kind: 1/token or 2/native",
		},
		&cli.StringFlag{
			Name:    "recipient",
			Aliases: []string{"r"},
			Usage:   "Recipient: 1/fixed or 2/random",
		},
		&cli.StringFlag{
			Name:    "amount",
			Aliases: []string{"a"},
			Usage:   "Amount per transfer, in whole units (e.g. 1.5)",
		},
		&cli.StringFlag{
			Name:    "target",
			Aliases: []string{"t"},
			Usage:   "Total amount to transfer, in whole units",
		},
		&cli.BoolFlag{
			Name:    "yes",
			Aliases: []string{"y"},
			Usage:   "Skip the confirmation prompt",
		},
		&cli.BoolFlag{
			Name:  "wait-receipt",
			Usage: "Wait for and print a receipt after every successful transfer",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "debug, info, warn or error",
		},
	}
}

func networksAction(c *cli.Context) error {
	st := settingsFrom(c)
	ns, err := loadNetworks(st)
	if err != nil {
		return err
	}
	for i, n := range ns {
		token := "-"
		if n.HasToken() {
			token = fmt.Sprintf("%s %s (%d decimals)", n.Symbol, n.TokenContractAddress, n.Decimals)
		}
		fmt.Fprintf(c.App.Writer, "%d. %s [%s] chainId=%d rpc=%s token=%s\n", i+1, n.Name, n.Key, n.ChainID, n.RPCURL, token)
	}
	return nil
}
