package main

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"netlab/web"
)

const getUsage = "usage: netlab get <server_host> <server_port> <filename>"

type getCommand struct {
	app *app

	Bind    string        `short:"b" long:"bind" description:"Local address to connect from"`
	Timeout time.Duration `short:"t" long:"timeout" default:"5s" description:"Connect timeout"`
}

func (c *getCommand) Execute(args []string) error {
	host, port, file, err := parseGetArgs(args)
	if err != nil {
		return err
	}
	client := &web.Client{Local: c.Bind, DialTimeout: c.Timeout}
	resp, err := client.Get(c.app.ctx, host, port, file)
	if len(resp) > 0 {
		if _, werr := c.app.stdout.Write(resp); werr != nil {
			return fmt.Errorf("write response: %w", werr)
		}
	}
	return err
}

func parseGetArgs(args []string) (host string, port int, file string, err error) {
	if len(args) != 3 {
		return "", 0, "", errors.New(getUsage)
	}
	port, err = strconv.Atoi(args[1])
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, "", fmt.Errorf("bad port %q\n%s", args[1], getUsage)
	}
	return args[0], port, args[2], nil
}
