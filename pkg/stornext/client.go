// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package stornext is a client for the StorNext web services API.
package stornext

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"
	"github.com/rcrowley/go-metrics"
	"golang.org/x/net/context/ctxhttp"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/report"
)

// Operation is a web service call.
type Operation string

// Web service operations
const (
	GetFileLocation = Operation("getFileLocation")
	DoStore         = Operation("doStore")
	DoTruncate      = Operation("doTruncate")
	DoRetrieve      = Operation("doRetrieve")
)

const serviceNamespace = "http://www.quantum.com/stornext/"

type (
	// Client issues web service calls for a single file.
	Client struct {
		endpoint Endpoint
		password string
		http     *http.Client
		timeout  time.Duration
		registry metrics.Registry
	}

	// Option configures a Client.
	Option func(*Client)
)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTimeout bounds each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithRegistry records request metrics in r.
func WithRegistry(r metrics.Registry) Option {
	return func(c *Client) {
		c.registry = r
	}
}

// New returns a Client for the routed endpoint.
func New(ep Endpoint, password string, opts ...Option) *Client {
	c := &Client{
		endpoint: ep,
		password: password,
		http:     http.DefaultClient,
		registry: metrics.NewRegistry(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func envelope(op Operation) (string, string) {
	start := fmt.Sprintf(`<ns1:%sResponse xmlns:ns1="%s"><out>`, op, serviceNamespace)
	end := fmt.Sprintf(`</out></ns1:%sResponse>`, op)
	return start, end
}

// unwrap returns the JSON document inside the response envelope.
func unwrap(op Operation, body []byte) ([]byte, error) {
	start, end := envelope(op)
	body = bytes.TrimSpace(body)

	if !bytes.HasPrefix(body, []byte(start)) {
		return nil, sntool.Newf(sntool.ServiceUnavailable, "%s: unexpected start of response", op)
	}
	body = body[len(start):]

	if !bytes.HasSuffix(body, []byte(end)) {
		return nil, sntool.Newf(sntool.ServiceUnavailable, "%s: unexpected end of response", op)
	}
	return body[:len(body)-len(end)], nil
}

func (c *Client) form(extra url.Values) url.Values {
	v := url.Values{}
	v.Set("format", "json")
	v.Set("password", c.password)
	v.Set("files", c.endpoint.Path)
	for key, values := range extra {
		for _, value := range values {
			v.Add(key, value)
		}
	}
	return v
}

// call posts op and decodes the unwrapped JSON result into out.
func (c *Client) call(ctx context.Context, op Operation, extra url.Values, out interface{}) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	defer c.timer(op).UpdateSince(start)

	target := c.endpoint.BaseURL + string(op)
	debug.Printf("%s %s files=%s", op, target, c.endpoint.Path)

	resp, err := ctxhttp.PostForm(ctx, c.http, target, c.form(extra))
	if err != nil {
		return sntool.Wrap(sntool.ServiceUnavailable, errors.Wrapf(err, "%s request failed", op), "")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	c.bytesRead().Inc(int64(len(body)))
	if err != nil {
		return sntool.Wrap(sntool.ServiceUnavailable, errors.Wrapf(err, "%s read failed", op), "")
	}
	debug.Printf("%s response (%s): %s", op, resp.Status, body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return sntool.Newf(sntool.ServiceUnavailable, "%s: %s", op, resp.Status)
	}

	data, err := unwrap(op, body)
	if err != nil {
		return err
	}

	if err := json.Unmarshal(data, out); err != nil {
		return sntool.Wrap(sntool.ServiceUnavailable, errors.Wrapf(err, "%s: decode failed", op), "")
	}
	return nil
}

// FileLocation fetches the location report of the file, optionally
// including the recorded checksums.
func (c *Client) FileLocation(ctx context.Context, withChecksums bool) (*report.FileReport, error) {
	var extra url.Values
	if withChecksums {
		extra = url.Values{"checksum": {"1"}}
	}

	var body json.RawMessage
	if err := c.call(ctx, GetFileLocation, extra, &body); err != nil {
		return nil, err
	}
	return report.Decode(body)
}
