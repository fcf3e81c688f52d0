// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool/pkg/verify"
)

func init() {
	commands = append(commands, cli.Command{
		Name:      "issafe",
		Usage:     "Exit successfully if every copy of the file is stored and verified",
		ArgsUsage: "file",
		Action:    withSession(isSafeAction),
	})
}

func isSafeAction(c *cli.Context, s *session) error {
	r, err := s.location(true)
	if err != nil {
		return err
	}
	return verify.VerifySafelyStored(r)
}
