// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool/pkg/info"
	"github.com/ink1/sntool/pkg/verify"
)

func init() {
	locationCommands := []cli.Command{
		{
			Name:      "isondisk",
			Usage:     "Exit successfully if the file data is on disk",
			ArgsUsage: "file",
			Action:    withSession(isOnDiskAction),
		},
		{
			Name:      "info",
			Usage:     "Display StorNext information for the file",
			ArgsUsage: "file",
			Action:    withSession(infoAction),
			Flags: []cli.Flag{
				cli.BoolFlag{
					Name:  "human, H",
					Usage: "Show sizes in human-readable units",
				},
			},
		},
	}
	commands = append(commands, locationCommands...)
}

func isOnDiskAction(c *cli.Context, s *session) error {
	r, err := s.location(false)
	if err != nil {
		return err
	}
	return verify.IsOnDisk(r)
}

func infoAction(c *cli.Context, s *session) error {
	r, err := s.location(true)
	if err != nil {
		return err
	}

	var opts []info.Option
	if c.Bool("human") {
		opts = append(opts, info.HumanSizes())
	}
	return info.Write(c.App.Writer, info.Render(r, opts...))
}
