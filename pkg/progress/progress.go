// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package progress

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/intel-hpdd/logging/alert"
	"github.com/intel-hpdd/logging/debug"
)

type (
	// Func is called with the byte count at the previous update and the
	// number of bytes read since.
	Func func(last uint64, delta uint64) error

	progressUpdater struct {
		done      chan struct{}
		stop      sync.Once
		bytesRead uint64
	}

	// Reader wraps an io.Reader and periodically invokes the
	// supplied callback to provide progress updates.
	Reader struct {
		progressUpdater

		src io.Reader
	}
)

// startUpdates creates a goroutine to periodically call the supplied
// callback until StopUpdates is called.
func (p *progressUpdater) startUpdates(updateEvery time.Duration, f Func) {
	p.done = make(chan struct{})

	if updateEvery > 0 && f != nil {
		var lastTotal uint64
		go func() {
			ticker := time.NewTicker(updateEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					read := atomic.LoadUint64(&p.bytesRead)
					if err := f(lastTotal, read-lastTotal); err != nil {
						alert.Warnf("Error received from updater callback: %s", err)
					}
					lastTotal = read
				case <-p.done:
					debug.Print("Shutting down updater goroutine")
					return
				}
			}
		}()
	}
}

// StopUpdates kills the updater goroutine. It is safe to call more
// than once.
func (p *progressUpdater) StopUpdates() {
	p.stop.Do(func() {
		close(p.done)
	})
}

// Count returns the number of bytes read so far.
func (p *progressUpdater) Count() uint64 {
	return atomic.LoadUint64(&p.bytesRead)
}

// Read calls the wrapped Read and tracks how many bytes were read.
func (r *Reader) Read(p []byte) (n int, err error) {
	n, err = r.src.Read(p)
	atomic.AddUint64(&r.bytesRead, uint64(n))
	return
}

// NewReader returns a new Reader
func NewReader(src io.Reader, updateEvery time.Duration, f Func) *Reader {
	r := &Reader{
		src: src,
	}

	r.startUpdates(updateEvery, f)

	return r
}
