// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package testhelpers

import (
	"os"
	"path/filepath"
	"testing"
)

var testPrefix = "sntest"

// TempDir creates a temporary directory and returns its canonical path
// (symlinks resolved) together with a cleanup function.
func TempDir(t *testing.T) (string, func()) {
	tdir, err := os.MkdirTemp("", testPrefix)
	if err != nil {
		t.Fatal(err)
	}
	dir, err := filepath.EvalSymlinks(tdir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, func() {
		err = os.RemoveAll(dir)
		if err != nil {
			t.Fatal(err)
		}
	}
}

// Fill writes size bytes of a repeating pattern to fp.
func Fill(t *testing.T, fp *os.File, size uint64) {
	var bs uint64 = 1024 * 1024
	buf := make([]byte, bs)

	for i := 0; i < len(buf); i++ {
		buf[i] = byte(i)
	}

	for i := uint64(0); i < size; i += bs {
		if size-i < bs {
			bs = size - i
		}
		if _, err := fp.Write(buf[:bs]); err != nil {
			t.Fatal(err)
		}
	}
}

// TempFile creates a file of the given size in dir.
func TempFile(t *testing.T, dir string, size uint64) (string, func()) {
	fp, err := os.CreateTemp(dir, testPrefix)
	if err != nil {
		t.Fatal(err)
	}
	defer fp.Close()

	if size > 0 {
		Fill(t, fp, size)
	}
	name := fp.Name()
	return name, func() {
		err := os.Remove(name)
		if err != nil && !os.IsNotExist(err) {
			t.Fatal(err)
		}
	}
}

// WriteFile writes data to dest with the given mode, replacing any
// existing file.
func WriteFile(t *testing.T, dest string, data []byte, mode os.FileMode) {
	if err := os.WriteFile(dest, data, mode); err != nil {
		t.Fatal(err)
	}
	/* ensure file has correct mode, in case we're overwriting */
	if err := os.Chmod(dest, mode); err != nil {
		t.Fatal(err)
	}
}

// CopyFile copies src to dest with the given mode.
func CopyFile(t *testing.T, src string, dest string, mode os.FileMode) {
	buf, err := os.ReadFile(src)
	if err != nil {
		t.Fatal(err)
	}
	WriteFile(t, dest, buf, mode)
}

// TempCopy copies src into a new temporary file with the given mode.
func TempCopy(t *testing.T, src string, mode os.FileMode) (string, func()) {
	tdir, cleanup := TempDir(t)
	dest := filepath.Join(tdir, filepath.Base(src))
	CopyFile(t, src, dest, mode)
	return dest, cleanup
}
