// Command tokendrop plans and pays fee-currency airdrops to the holders of
// a token.
//
// Usage:
//
//	tokendrop init [--create-wallet]
//	tokendrop plan <tokenID> [--mode equal|pro-rata] [--total N | --max]
//	tokendrop execute <tokenID> --total N --yes
//	tokendrop history <tokenID>
package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
)

var policyFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "mode",
		Usage: "distribution mode: equal or pro-rata (default from config)",
	},
	&cli.StringFlag{
		Name:  "total",
		Usage: "total amount to distribute, in the fee currency",
	},
	&cli.BoolFlag{
		Name:  "max",
		Usage: "distribute the full payer balance",
	},
	&cli.StringFlag{
		Name:  "min-balance",
		Usage: "minimum token balance to qualify (default from config)",
	},
	&cli.BoolFlag{
		Name:  "exclude-self",
		Usage: "leave the payer address out of the holder set (default from config)",
	},
}

var passwordFlag = &cli.StringFlag{
	Name:    "password",
	Usage:   "wallet password",
	EnvVars: []string{"TOKENDROP_WALLET_PASSWORD"},
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tokendrop",
		Usage: "Airdrop the fee currency to token holders",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "path to configuration file (default ~/.tokendrop/config.yaml)",
				EnvVars: []string{"TOKENDROP_CONFIG"},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level override (debug, info, warn, error)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Write a default configuration file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "force", Usage: "overwrite an existing configuration"},
					&cli.BoolFlag{Name: "create-wallet", Usage: "also create an encrypted payer wallet"},
					&cli.BoolFlag{Name: "words24", Usage: "use a 24-word mnemonic for the new wallet"},
					passwordFlag,
				},
				Action: initAction,
			},
			{
				Name:      "plan",
				Usage:     "Scan holders and print the payout plan",
				ArgsUsage: "<tokenID>",
				Flags:     append(append([]cli.Flag{}, policyFlags...), passwordFlag),
				Action:    planAction,
			},
			{
				Name:      "execute",
				Usage:     "Scan holders, compute the plan and broadcast the payout",
				ArgsUsage: "<tokenID>",
				Flags: append(append([]cli.Flag{}, policyFlags...),
					passwordFlag,
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "broadcast without the dry run"},
				),
				Action: executeAction,
			},
			{
				Name:      "history",
				Usage:     "List recorded payouts for a token",
				ArgsUsage: "<tokenID>",
				Action:    historyAction,
			},
		},
	}
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "tokendrop: %v\n", err)
		os.Exit(1)
	}
}
