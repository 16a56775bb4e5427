package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/alerts"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
)

func newAuthoritiesCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "authorities",
		Usage: "Manage the addresses alerts are sent to when none are given",
		Subcommands: []*cli.Command{
			{
				Name:    "list",
				Usage:   "Print the saved authority addresses",
				Aliases: []string{"ls"},
				Action: func(ctx *cli.Context) error {
					var resp alerts.AuthoritiesResponse
					if err := newAPIClient(ctx.String("url")).get(ctx.Context, "/authorities", &resp); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					for _, email := range resp.Emails {
						fmt.Fprintln(e.stdout, email)
					}
					return nil
				},
			},
			{
				Name:      "save",
				Usage:     "Replace the saved authority addresses",
				ArgsUsage: "EMAIL...",
				Action: func(ctx *cli.Context) error {
					emails := authority.Normalize(splitAll(ctx.Args().Slice()))
					req := alerts.AuthoritiesRequest{Emails: emails}
					if err := newAPIClient(ctx.String("url")).post(ctx.Context, "/authorities", req, nil); err != nil {
						return cli.Exit(err.Error(), 1)
					}
					fmt.Fprintf(e.stdout, "saved %d authorities\n", len(emails))
					return nil
				},
			},
		},
	}
}
