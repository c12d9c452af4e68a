package main

import (
	"errors"
	"time"

	"github.com/google/logger"

	"netlab/ping"
)

type pingCommand struct {
	app *app

	Server   string        `short:"s" long:"server" description:"Server address host:port (default localhost:12000)"`
	Bind     string        `short:"b" long:"bind" description:"Local address to send from"`
	Count    int           `short:"c" long:"count" description:"Number of probes (default 10); with --max-misses, 0 runs until the limit is hit"`
	Timeout  time.Duration `short:"t" long:"timeout" description:"How long to wait for each reply (default 1s)"`
	Interval time.Duration `short:"i" long:"interval" default:"0s" description:"Pause between probes"`
	Misses   int           `short:"m" long:"max-misses" description:"Stop after this many consecutive timeouts, 0 never stops early"`
	TTL      int           `long:"ttl" description:"TTL (IPv6 hop limit) of the probes"`
	TOS      int           `long:"tos" description:"TOS (IPv6 traffic class) of the probes"`
	Report   string        `short:"o" long:"report" description:"Also write the statistics as JSON to this file"`
}

func (c *pingCommand) Execute(args []string) error {
	if len(args) != 0 {
		return errors.New("ping takes no positional arguments")
	}
	client := ping.NewClient(ping.ClientConfig{
		Server:               c.Server,
		Local:                c.Bind,
		Count:                c.Count,
		Timeout:              c.Timeout,
		Interval:             c.Interval,
		MaxConsecutiveMisses: c.Misses,
		TTL:                  c.TTL,
		TOS:                  c.TOS,
		Out:                  c.app.stdout,
	})
	stat, err := client.Run(c.app.ctx)
	if stat == nil {
		return err
	}
	stat.WriteSummary(c.app.stdout)
	if c.Report != "" {
		if werr := ping.WriteReport(c.Report, stat); werr != nil {
			logger.Errorf("%v", werr)
		}
	}
	return err
}
