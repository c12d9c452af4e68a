package main

import (
	"fmt"
	"strconv"
	"time"

	"netlab/sockopt"
)

type portCheckCommand struct {
	app *app

	Host    string        `short:"H" long:"host" default:"localhost" description:"Host to check"`
	Timeout time.Duration `short:"t" long:"timeout" default:"1s" description:"Connect timeout"`
}

func (c *portCheckCommand) Execute(args []string) error {
	ports := args
	if len(ports) == 0 {
		ports = []string{"12000"}
	}
	for _, arg := range ports {
		port, err := strconv.Atoi(arg)
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("bad port %q", arg)
		}
		inUse, err := sockopt.PortInUse(c.app.ctx, c.Host, port, c.Timeout)
		if err != nil {
			return err
		}
		if inUse {
			fmt.Fprintf(c.app.stdout, "Port %d is already in use.\n", port)
		} else {
			fmt.Fprintf(c.app.stdout, "Port %d is free.\n", port)
		}
	}
	return nil
}
