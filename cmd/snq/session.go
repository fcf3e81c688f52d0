// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"
	"gopkg.in/urfave/cli.v1"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/config"
	"github.com/ink1/sntool/pkg/report"
	"github.com/ink1/sntool/pkg/stornext"
)

// session is everything a command needs to act on one file.
type session struct {
	ctx    context.Context
	path   string
	cfg    *config.Config
	client *stornext.Client
}

func fileArg(c *cli.Context) (string, error) {
	if c.NArg() != 1 {
		return "", errors.Errorf("usage: %s %s <file>", c.App.Name, c.Command.Name)
	}
	return c.Args().First(), nil
}

// canonicalPath returns the absolute, symlink-free path of a readable
// regular file.
func canonicalPath(name string) (string, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return "", sntool.Wrap(sntool.FileNotReadable, err, name)
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", sntool.Wrap(sntool.FileNotReadable, err, name)
	}

	f, err := os.Open(resolved)
	if err != nil {
		return "", sntool.Wrap(sntool.FileNotReadable, err, name)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return "", sntool.Wrap(sntool.FileNotReadable, err, name)
	}
	if !fi.Mode().IsRegular() {
		return "", sntool.Newf(sntool.FileNotReadable, "%s is not a regular file", name)
	}

	return resolved, nil
}

func newSession(c *cli.Context) (*session, error) {
	logContext(c)

	name, err := fileArg(c)
	if err != nil {
		return nil, err
	}
	p, err := canonicalPath(name)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(config.Path(c.GlobalString("config")))
	if err != nil {
		return nil, errors.Wrap(err, "load config failed")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	debug.Printf("config: %s", cfg)

	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	ep, err := stornext.NewRouter(cfg).SelectEndpoint(p)
	if err != nil {
		return nil, err
	}
	debug.Printf("%s -> %s (%s)", p, ep.Path, ep)

	return &session{
		ctx:    context.Background(),
		path:   p,
		cfg:    cfg,
		client: stornext.New(ep, cfg.Password, stornext.WithTimeout(timeout)),
	}, nil
}

func (s *session) location(withChecksums bool) (*report.FileReport, error) {
	return s.client.FileLocation(s.ctx, withChecksums)
}

func (s *session) done() {
	debug.Printf("stornext stats: %s", s.client.Stats())
}

// withSession wraps a command action that needs a session.
func withSession(fn func(*cli.Context, *session) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		s, err := newSession(c)
		if err != nil {
			return err
		}
		defer s.done()
		return fn(c, s)
	}
}
