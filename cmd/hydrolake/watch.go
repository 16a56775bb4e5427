package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/realtime"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/telemetry"
)

func newWatchCmd(e *env) *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "Print live sensor updates",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "ws-url",
				Usage:   "websocket URL of the server",
				Value:   realtime.NewConfig().URL,
				EnvVars: []string{"HYDROLAKE_WS_URL"},
			},
			&cli.IntFlag{
				Name:  "count",
				Usage: "exit after this many updates, 0 watches until interrupted",
			},
			&cli.BoolFlag{
				Name:  "request",
				Usage: "ask for an update as soon as connected",
			},
		},
		Action: func(ctx *cli.Context) error {
			c := realtime.NewConfig()
			c.URL = ctx.String("ws-url")
			if err := c.Validate(); err != nil {
				return cli.Exit(err.Error(), 2)
			}
			client := realtime.NewClient(c, e.diag.NewRealtimeHandler())

			updates := make(chan telemetry.SensorReport, 1)
			gone := make(chan struct{})
			stop := make(chan struct{})
			client.On(realtime.EventSensorUpdate, func(data json.RawMessage) {
				var r telemetry.SensorReport
				if err := json.Unmarshal(data, &r); err != nil {
					fmt.Fprintf(e.stderr, "invalid sensor update: %s\n", err)
					return
				}
				select {
				case updates <- r:
				case <-gone:
				case <-stop:
				}
			})
			client.On(realtime.EventDisconnect, func(json.RawMessage) {
				close(gone)
			})

			if err := client.Connect(ctx.Context); err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer client.Disconnect()
			defer close(stop)
			if ctx.Bool("request") {
				if err := client.Emit(realtime.EventRequestUpdate, nil); err != nil {
					return cli.Exit(err.Error(), 1)
				}
			}

			count := ctx.Int("count")
			for n := 0; count <= 0 || n < count; n++ {
				select {
				case r := <-updates:
					fmt.Fprintf(e.stdout, "%s %-8s %s\n", r.Time.Format(time.RFC3339), r.OverallStatus, r.Summary)
				case <-gone:
					return cli.Exit("connection closed by server", 1)
				case <-ctx.Context.Done():
					return nil
				}
			}
			return nil
		},
	}
}
