package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/logger"
	"github.com/jessevdk/go-flags"
)

var buildtime string

// options are shared by every command; each command carries its own flags.
type options struct {
	//Debug 0: 只打印报告,不打印调试信息
	//Debug 1: 打印控制流程的调试信息
	//Debug 2: 打印每个连接和请求的调试信息
	//Debug 3: 打印所有报文
	Debug   int    `short:"d" long:"debug" default:"1" description:"Debug output level 0-3"`
	LogFile string `short:"l" long:"log-file" description:"Append log output to this file"`

	Ping      pingCommand      `command:"ping" description:"Send UDP probes and report rtt and loss"`
	Pingd     pingdCommand     `command:"pingd" description:"Answer UDP probes, dropping some on purpose"`
	Httpd     httpdCommand     `command:"httpd" description:"Serve files from a directory over HTTP/1.1"`
	Get       getCommand       `command:"get" description:"Fetch one file: get <host> <port> <file>"`
	PortCheck portCheckCommand `command:"portcheck" description:"Report whether a TCP port is already taken"`
}

// app carries what the commands share at run time.
type app struct {
	ctx    context.Context
	stdout io.Writer
	// stderr receives info and warning lines when debug output is on.
	// stdout is kept for reports and fetched responses only.
	stderr io.Writer
	opts   options
}

func newApp(ctx context.Context, stdout io.Writer) *app {
	a := &app{ctx: ctx, stdout: stdout, stderr: os.Stderr}
	a.opts.Ping.app = a
	a.opts.Pingd.app = a
	a.opts.Httpd.app = a
	a.opts.Get.app = a
	a.opts.PortCheck.app = a
	return a
}

func (a *app) parser() *flags.Parser {
	p := flags.NewParser(&a.opts, flags.Default)
	p.LongDescription = "netlab " + buildtime
	p.CommandHandler = func(cmd flags.Commander, args []string) error {
		if cmd == nil {
			return nil
		}
		_, closeLog, err := a.setupLogging()
		if err != nil {
			return err
		}
		defer closeLog()
		return cmd.Execute(args)
	}
	return p
}

// setupLogging initializes the logger. The logger is never put in verbose
// mode, which would copy info lines to os.Stdout; debug output goes to
// a.stderr instead.
func (a *app) setupLogging() (*logger.Logger, func(), error) {
	if a.opts.Debug > 3 {
		a.opts.Debug = 3
	}
	if a.opts.Debug < 0 {
		a.opts.Debug = 0
	}
	var (
		writers []io.Writer
		file    *os.File
	)
	if a.opts.LogFile != "" {
		f, err := os.OpenFile(a.opts.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		file = f
		writers = append(writers, f)
	}
	if a.opts.Debug > 0 {
		// the logger already sends errors to os.Stderr
		writers = append(writers, skipErrors{a.stderr})
	}
	var w io.Writer = io.Discard
	if len(writers) > 0 {
		w = io.MultiWriter(writers...)
	}
	lg := logger.Init("netlab", false, false, w)
	logger.SetLevel(logger.Level(a.opts.Debug))
	return lg, func() {
		lg.Close()
		if file != nil {
			file.Close()
		}
	}, nil
}

// skipErrors drops ERROR and FATAL lines. Each log line arrives in a
// single Write.
type skipErrors struct {
	w io.Writer
}

func (s skipErrors) Write(p []byte) (int, error) {
	if bytes.HasPrefix(p, []byte("ERROR")) || bytes.HasPrefix(p, []byte("FATAL")) {
		return len(p), nil
	}
	return s.w.Write(p)
}

// run parses args and executes the selected command, returning the process
// exit status.
func run(ctx context.Context, args []string, stdout io.Writer) int {
	a := newApp(ctx, stdout)
	if _, err := a.parser().ParseArgs(args); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			return 0
		}
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout)
	stop()
	os.Exit(code)
}
