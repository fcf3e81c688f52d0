// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool/pkg/stornext"
	"github.com/ink1/sntool/pkg/verify"
)

func init() {
	lifecycleCommands := []cli.Command{
		{
			Name:      "store",
			Usage:     "Store the file to tape",
			ArgsUsage: "file",
			Action:    withSession(storeAction(1)),
		},
		{
			Name:      "store2",
			Usage:     "Store two tape copies of the file",
			ArgsUsage: "file",
			Action:    withSession(storeAction(2)),
		},
		{
			Name:      "truncate",
			Usage:     "Release the disk space of a safely stored file",
			ArgsUsage: "file",
			Action:    withSession(truncateAction),
		},
		{
			Name:      "retrieve",
			Usage:     "Retrieve the file from tape to disk",
			ArgsUsage: "file",
			Action:    withSession(retrieveAction),
		},
	}
	commands = append(commands, lifecycleCommands...)
}

func printResult(c *cli.Context, result *stornext.CommandResult, err error) error {
	if err != nil {
		return err
	}
	if err := result.Write(c.App.Writer); err != nil {
		return errors.Wrap(err, "write status failed")
	}
	return result.Err()
}

func storeAction(copies int) func(*cli.Context, *session) error {
	return func(c *cli.Context, s *session) error {
		result, err := s.client.Store(s.ctx, copies)
		return printResult(c, result, err)
	}
}

func truncateAction(c *cli.Context, s *session) error {
	r, err := s.location(true)
	if err != nil {
		return err
	}
	if err := verify.VerifySafelyStored(r); err != nil {
		debug.Printf("%s: not truncating: %s", s.path, err)
		return err
	}

	result, err := s.client.Truncate(s.ctx)
	return printResult(c, result, err)
}

func retrieveAction(c *cli.Context, s *session) error {
	result, err := s.client.Retrieve(s.ctx)
	return printResult(c, result, err)
}
