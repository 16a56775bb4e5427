package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/influxdata/influxdb/toml"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/alert"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/command"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/alerts"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/authority"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/dispatch"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
	bolt "go.etcd.io/bbolt"
)

func newSendAlertCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:      "send-alert",
		Usage:     "Send an alert email, opening the local mail client when the server is unreachable",
		ArgsUsage: " ",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "to",
				Usage:   "recipient address, repeat or separate with commas. Defaults to the saved authorities",
				Aliases: []string{"t"},
			},
			&cli.StringFlag{
				Name:     "subject",
				Usage:    "email subject",
				Aliases:  []string{"s"},
				Required: true,
			},
			&cli.StringFlag{
				Name:    "body",
				Usage:   "email body",
				Aliases: []string{"b"},
			},
			&cli.StringSliceFlag{
				Name:  "meta",
				Usage: "alert detail as key=value, e.g. sensor=water-level",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "timeout of the delivery request",
				Value: dispatch.DefaultTimeout,
			},
			&cli.StringFlag{
				Name:      "db",
				Usage:     "read the saved authorities from this hydrolake.db instead of the server",
				TakesFile: true,
				EnvVars:   []string{"HYDROLAKE_DB"},
			},
			&cli.StringFlag{
				Name:    "open-command",
				Usage:   "program that opens mailto links",
				EnvVars: []string{"HYDROLAKE_OPEN_COMMAND"},
			},
		},
		Action: func(ctx *cli.Context) error {
			recipients, err := e.recipients(ctx)
			if err != nil {
				fmt.Fprintf(e.stderr, "could not load authorities: %s\n", err)
			}
			metadata, err := parseMeta(ctx.StringSlice("meta"))
			if err != nil {
				return cli.Exit(err.Error(), 2)
			}

			c := dispatch.NewConfig()
			c.URL = ctx.String("url")
			c.Timeout = toml.Duration(ctx.Duration("timeout"))
			c.OpenCommand = ctx.String("open-command")
			if err := c.Validate(); err != nil {
				return cli.Exit(err.Error(), 2)
			}
			opener := dispatch.DetectOpener(command.ExecCommander, c.OpenCommand)
			s := dispatch.NewService(c, opener, e.diag.NewDispatchHandler())

			result := s.Dispatch(ctx.Context, alert.Payload{
				Recipients: recipients,
				Subject:    ctx.String("subject"),
				Body:       ctx.String("body"),
				Metadata:   metadata,
			})
			if result.IsFailed() {
				return cli.Exit(result.String(), 1)
			}
			fmt.Fprintln(e.stdout, result.String())
			if result.PreviewURL != "" {
				fmt.Fprintln(e.stdout, "preview:", result.PreviewURL)
			}
			return nil
		},
	}
}

// recipients returns the --to addresses, or the saved authorities when there are none.
func (e *env) recipients(ctx *cli.Context) ([]string, error) {
	explicit := authority.Normalize(splitAll(ctx.StringSlice("to")))
	if len(explicit) > 0 {
		return explicit, nil
	}
	if path := ctx.String("db"); path != "" {
		// Fails after a second while a running server holds the database.
		db, err := bolt.Open(path, 0600, &bolt.Options{ReadOnly: true, Timeout: time.Second})
		if err != nil {
			return nil, errors.Wrapf(err, "open %s", path)
		}
		defer db.Close()
		dir := authority.NewDirectory(storage.NewBolt(db, authority.Namespace), e.diag.NewAuthorityHandler())
		return dir.List(), nil
	}
	var resp alerts.AuthoritiesResponse
	if err := newAPIClient(ctx.String("url")).get(ctx.Context, "/authorities", &resp); err != nil {
		return nil, err
	}
	return resp.Emails, nil
}

// parseMeta turns key=value pairs into alert metadata.
// A "time" value is stamped with the current time when it is "now".
func parseMeta(pairs []string) (map[string]interface{}, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	m := make(map[string]interface{}, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid metadata %q, expected key=value", p)
		}
		v = strings.TrimSpace(v)
		if k == "time" && v == "now" {
			v = time.Now().UTC().Format(time.RFC3339)
		}
		m[k] = v
	}
	return m, nil
}

// splitAll splits every value on commas.
func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}
