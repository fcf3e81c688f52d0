// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stornext

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"

	"github.com/ink1/sntool"
)

// StatusFailed is the commandStatus of a failed command.
const StatusFailed = "failed"

const statusWidth = 30

type (
	// Status is one progress entry of a lifecycle command.
	Status struct {
		CommandStatus *string `json:"commandStatus"`
		StatusText    *string `json:"statusText"`
	}

	// CommandResult is the reply to doStore, doTruncate or doRetrieve.
	CommandResult struct {
		Statuses []Status `json:"statuses"`
	}
)

// Err returns CommandFailed if the last status reports failure.
func (r *CommandResult) Err() error {
	if len(r.Statuses) == 0 {
		return sntool.Newf(sntool.CommandFailed, "no status returned")
	}
	last := r.Statuses[len(r.Statuses)-1]
	if last.CommandStatus != nil && *last.CommandStatus == StatusFailed {
		detail := ""
		if last.StatusText != nil {
			detail = *last.StatusText
		}
		return sntool.Newf(sntool.CommandFailed, "%s", detail)
	}
	return nil
}

// Write prints every status the service returned.
func (r *CommandResult) Write(w io.Writer) error {
	for _, st := range r.Statuses {
		if st.CommandStatus != nil {
			if _, err := fmt.Fprintf(w, "%-*s %s\n", statusWidth, "commandStatus", *st.CommandStatus); err != nil {
				return err
			}
		}
		if st.StatusText != nil {
			if _, err := fmt.Fprintf(w, "%-*s %s\n", statusWidth, "statusText", *st.StatusText); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) command(ctx context.Context, op Operation, extra url.Values) (*CommandResult, error) {
	var result CommandResult
	if err := c.call(ctx, op, extra, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Store asks StorNext to store the file. Copies greater than one
// requests that many tape copies.
func (c *Client) Store(ctx context.Context, copies int) (*CommandResult, error) {
	var extra url.Values
	if copies > 1 {
		extra = url.Values{"copies": {strconv.Itoa(copies)}}
	}
	return c.command(ctx, DoStore, extra)
}

// Truncate releases the disk blocks of a stored file.
func (c *Client) Truncate(ctx context.Context) (*CommandResult, error) {
	return c.command(ctx, DoTruncate, nil)
}

// Retrieve brings a truncated file back to disk.
func (c *Client) Retrieve(ctx context.Context) (*CommandResult, error) {
	return c.command(ctx, DoRetrieve, nil)
}
