// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package checksum

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"

	"github.com/ink1/sntool"
)

// Builtin selects the in-process MD5 implementation instead of an
// external utility.
const Builtin = "builtin"

// DefaultCommand is the checksum utility used when none is configured.
const DefaultCommand = "md5sum"

// Tool computes a file checksum by running an external utility which
// prints "<sum> <file>" on stdout, like md5sum(1).
type Tool struct {
	Command string
	Args    []string
}

// NewTool parses a command line such as "md5sum" or "openssl md5 -r".
func NewTool(commandLine string) *Tool {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &Tool{Command: DefaultCommand}
	}
	return &Tool{Command: fields[0], Args: fields[1:]}
}

// Sum returns the checksum of filePath as printed by the tool.
func (t *Tool) Sum(ctx context.Context, filePath string) (string, error) {
	if t.Command == "" || t.Command == Builtin {
		sum, err := FileMd5Hex(filePath)
		if err != nil {
			return "", sntool.Wrap(sntool.ChecksumToolFailed, err, "")
		}
		return sum, nil
	}

	args := append(append([]string{}, t.Args...), filePath)
	cmd := exec.CommandContext(ctx, t.Command, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	debug.Printf("running %s %s", t.Command, strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		return "", sntool.Wrap(sntool.ChecksumToolFailed,
			errors.Wrapf(err, "%s failed", t.Command), strings.TrimSpace(stderr.String()))
	}
	if stderr.Len() > 0 {
		return "", sntool.Newf(sntool.ChecksumToolFailed, "%s", strings.TrimSpace(stderr.String()))
	}

	fields := strings.Fields(stdout.String())
	if len(fields) == 0 {
		return "", sntool.Newf(sntool.ChecksumToolFailed, "no output from %s", t.Command)
	}

	return strings.TrimPrefix(fields[0], `\`), nil
}
