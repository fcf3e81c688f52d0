// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package stornext

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rcrowley/go-metrics"
)

const (
	metricPrefix = "stornext."
	bytesMetric  = metricPrefix + "bytes"
)

func (c *Client) timer(op Operation) metrics.Timer {
	return metrics.GetOrRegisterTimer(metricPrefix+string(op), c.registry)
}

func (c *Client) bytesRead() metrics.Counter {
	return metrics.GetOrRegisterCounter(bytesMetric, c.registry)
}

// Stats summarizes the client's request metrics on one line.
func (c *Client) Stats() string {
	var calls []string
	c.registry.Each(func(name string, m interface{}) {
		t, ok := m.(metrics.Timer)
		if !ok || t.Count() == 0 {
			return
		}
		calls = append(calls, fmt.Sprintf("%s:%s mean:%v max:%v",
			strings.TrimPrefix(name, metricPrefix),
			humanize.Comma(t.Count()),
			time.Duration(int64(t.Mean())),
			time.Duration(t.Max())))
	})
	sort.Strings(calls)

	return fmt.Sprintf("read:%s %s",
		humanize.IBytes(uint64(c.bytesRead().Count())),
		strings.Join(calls, " "))
}
