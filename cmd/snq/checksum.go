// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/intel-hpdd/logging/debug"
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/checksum"
	"github.com/ink1/sntool/pkg/verify"
)

func init() {
	checksumCommands := []cli.Command{
		{
			Name:      "checksum",
			Usage:     "Print the checksum StorNext recorded for the file",
			ArgsUsage: "file",
			Action:    withSession(checksumAction),
		},
		{
			Name:      "md5sum",
			Usage:     "Print the file checksum, computing it locally if StorNext has none",
			ArgsUsage: "file",
			Action:    withSession(md5sumAction),
		},
	}
	commands = append(commands, checksumCommands...)
}

func printSum(c *cli.Context, sum, name string) error {
	_, err := fmt.Fprintf(c.App.Writer, "%s %s\n", sum, name)
	return err
}

func checksumAction(c *cli.Context, s *session) error {
	r, err := s.location(true)
	if err != nil {
		return err
	}

	sum, err := verify.ComputeCanonicalChecksum(r)
	if sntool.Is(err, sntool.NeedsLocalComputation) {
		e, _ := sntool.As(err)
		return &sntool.Error{Kind: sntool.MultiSegmentUnsupported, Actual: e.Actual}
	}
	if err != nil {
		return err
	}
	return printSum(c, sum, s.path)
}

func md5sumAction(c *cli.Context, s *session) error {
	r, err := s.location(true)
	if err != nil {
		return err
	}

	sum, err := verify.ComputeCanonicalChecksum(r)
	if verify.NeedsLocal(err) {
		if !r.Location.OnDisk() {
			return sntool.Newf(sntool.NotOnDisk, "%s", err)
		}
		debug.Printf("%s: %s, computing checksum locally", s.path, err)
		sum, err = checksum.NewTool(s.cfg.ChecksumTool).Sum(s.ctx, s.path)
	}
	if err != nil {
		return err
	}
	return printSum(c, sum, s.path)
}
