package main

import (
	"errors"
	"fmt"

	"github.com/google/logger"

	"netlab/ping"
)

type pingdCommand struct {
	app *app

	Listen    string `short:"L" long:"listen" description:"Address to listen on (default :12000)"`
	Threshold int    `long:"drop-threshold" default:"4" description:"Draws below this value are dropped"`
	Ceiling   int    `long:"draw-ceiling" default:"10" description:"Draws are uniform in [0, ceiling]"`
	Seed      uint64 `long:"seed" description:"Seed for the loss draws, 0 picks a random one"`
}

func (c *pingdCommand) Execute(args []string) error {
	if len(args) != 0 {
		return errors.New("pingd takes no positional arguments")
	}
	if c.Threshold < 0 || c.Ceiling <= 0 {
		return fmt.Errorf("bad loss parameters: threshold %d, ceiling %d", c.Threshold, c.Ceiling)
	}
	loss := ping.NewLossSimulator(nil, c.Threshold, c.Ceiling)
	if c.Seed != 0 {
		loss = ping.SeededLossSimulator(c.Seed, c.Threshold, c.Ceiling)
	}
	srv := ping.NewServer(ping.ServerConfig{Addr: c.Listen, Loss: loss})
	if err := srv.Serve(c.app.ctx); err != nil {
		return err
	}
	st := srv.Stats()
	logger.Infof("ping server stopped: received %d, dropped %d, replied %d, malformed %d",
		st.Received, st.Dropped, st.Replied, st.Malformed)
	return nil
}
