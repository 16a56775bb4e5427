package main

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/i18n"
)

func newTranslateCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "translate",
		Usage:     "Print dashboard labels in a language",
		ArgsUsage: "KEY...",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "lang",
				Usage:   "language code, one of " + strings.Join(i18n.Languages(), ", "),
				Aliases: []string{"l"},
				Value:   i18n.DefaultLanguage,
			},
		},
		Action: func(ctx *cli.Context) error {
			if ctx.NArg() == 0 {
				return cli.Exit("at least one key is required", 2)
			}
			lang := ctx.String("lang")
			for _, key := range ctx.Args().Slice() {
				fmt.Fprintln(e.stdout, i18n.Translate(key, lang))
			}
			return nil
		},
	}
}
