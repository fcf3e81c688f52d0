// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package checksum

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/intel-hpdd/logging/debug"
	"github.com/pkg/errors"

	"github.com/ink1/sntool/pkg/progress"
)

// progressInterval is how often checksum progress is logged in debug
// mode.
var progressInterval = 10 * time.Second

type (
	// Writer wraps an io.Writer and updates the checksum
	// with every write.
	Writer interface {
		io.Writer
		Sum() []byte
	}

	// Md5HashWriter implements Writer and uses the MD5
	// algorithm, which is what StorNext records for tape copies.
	Md5HashWriter struct {
		dest  io.Writer
		cksum hash.Hash
	}
)

// NewMd5HashWriter returns a new Md5HashWriter
func NewMd5HashWriter(dest io.Writer) Writer {
	return &Md5HashWriter{
		dest:  dest,
		cksum: md5.New(),
	}
}

// Write updates the checksum and passes the byte slice on
func (hw *Md5HashWriter) Write(b []byte) (int, error) {
	_, err := hw.cksum.Write(b)
	if err != nil {
		return 0, errors.Wrap(err, "updating checksum failed")
	}
	return hw.dest.Write(b)
}

// Sum returns the checksum
func (hw *Md5HashWriter) Sum() []byte {
	return hw.cksum.Sum(nil)
}

// FileMd5Sum returns the MD5 checksum for the supplied file path
func FileMd5Sum(filePath string) ([]byte, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to open %s for checksum", filePath)
	}
	defer file.Close()

	var src io.Reader = file
	if debug.Enabled() {
		var size uint64
		if fi, err := file.Stat(); err == nil {
			size = uint64(fi.Size())
		}
		pr := progress.NewReader(file, progressInterval, func(last, delta uint64) error {
			debug.Printf("%s: checksummed %s of %s",
				filePath, humanize.IBytes(last+delta), humanize.IBytes(size))
			return nil
		})
		defer pr.StopUpdates()
		src = pr
	}

	hw := NewMd5HashWriter(io.Discard)
	_, err = io.Copy(hw, src)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to compute checksum for %s", filePath)
	}

	return hw.Sum(), nil
}

// FileMd5Hex returns FileMd5Sum as a lowercase hex string, the form
// printed by md5sum(1).
func FileMd5Hex(filePath string) (string, error) {
	sum, err := FileMd5Sum(filePath)
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sum), nil
}
