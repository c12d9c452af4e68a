package main

import (
	"errors"
	"time"

	"netlab/web"
)

type httpdCommand struct {
	app *app

	Listen      string        `short:"L" long:"listen" description:"Address to listen on (default :6789)"`
	Root        string        `short:"r" long:"root" default:"." description:"Directory to serve"`
	Mode        string        `short:"m" long:"mode" default:"concurrent" choice:"serial" choice:"concurrent" description:"Connection dispatch"`
	Workers     int           `short:"w" long:"workers" description:"Worker pool size in concurrent mode (default 16)"`
	Delay       time.Duration `long:"delay" description:"Sleep before handling each request"`
	ReadTimeout time.Duration `long:"read-timeout" description:"How long to wait for a request (default 5s)"`
}

func (c *httpdCommand) Execute(args []string) error {
	if len(args) != 0 {
		return errors.New("httpd takes no positional arguments")
	}
	mode, err := web.ParseMode(c.Mode)
	if err != nil {
		return err
	}
	srv := web.NewServer(web.ServerConfig{
		Addr:        c.Listen,
		Root:        c.Root,
		Mode:        mode,
		Workers:     c.Workers,
		Delay:       c.Delay,
		ReadTimeout: c.ReadTimeout,
	})
	return srv.Serve(c.app.ctx)
}
