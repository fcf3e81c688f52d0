// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/config"
)

var commands []cli.Command
var version string // Set by build environment

func main() {
	app := cli.NewApp()
	app.Name = "snq"
	app.Usage = "Query and manage files stored by StorNext"
	app.Commands = commands
	app.Version = version
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "debug",
			Usage: "Display debug logging to console",
		},
		cli.StringFlag{
			Name:  "logfile, l",
			Usage: "Log tool activity to this file",
			Value: "",
		},
		cli.StringFlag{
			Name: "config, c",
			Usage: fmt.Sprintf("Path to the snq configuration file (default: $%s or %s)",
				config.ConfigPathEnvVar, config.DefaultConfigPath),
		},
	}
	app.Before = configureLogging
	app.CommandNotFound = func(c *cli.Context, name string) {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", name)
		os.Exit(1)
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", err)
	}
	os.Exit(sntool.ExitStatus(err))
}

func configureLogging(c *cli.Context) error {
	if c.Bool("debug") {
		debug.Enable()
	}

	if logfile := c.String("logfile"); logfile != "" {
		f, err := os.OpenFile(logfile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0600)
		if err != nil {
			return errors.Wrap(err, "open logfile failed")
		}
		debug.SetOutput(f)
	}

	return nil
}

func logContext(c *cli.Context) {
	for {
		if c.Parent() == nil {
			break
		}
		c = c.Parent()
	}

	debug.Printf("Context: %s", strings.Join(c.Args(), " "))
}
