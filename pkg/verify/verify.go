// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package verify decides, from a single location report, whether a
// file is safely archived and what its canonical checksum is.
//
// Every function here is a pure function of the report. Failures are
// returned as *sntool.Error and are terminal for the caller.
package verify

import (
	"fmt"
	"strings"

	"github.com/ink1/sntool"
	"github.com/ink1/sntool/pkg/matrix"
	"github.com/ink1/sntool/pkg/report"
)

// Media status messages reported by the service.
const (
	mediaUnknown = "unknown"
	mediaNone    = "none"
)

// EvaluateLocation classifies where the file resides. It never fails;
// Foreign and Unknown are only failures for operations which need to
// look at local copies.
func EvaluateLocation(r *report.FileReport) report.Location {
	return r.Location
}

// IsOnDisk succeeds when the file data is resident on disk.
func IsOnDisk(r *report.FileReport) error {
	switch r.Location {
	case report.OnDisk, report.OnDiskAndTape:
		return nil
	case report.OnTape:
		return sntool.New(sntool.NotOnDisk)
	case report.Foreign:
		return sntool.New(sntool.ForeignSystem)
	}
	return unknownLocation(r)
}

func unknownLocation(r *report.FileReport) error {
	if r.RawLocation == "" {
		return sntool.New(sntool.UnknownLocation)
	}
	return sntool.Newf(sntool.UnknownLocation, "%q", r.RawLocation)
}

func checkVerifiable(r *report.FileReport) error {
	switch r.Location {
	case report.Foreign:
		return sntool.New(sntool.ForeignSystem)
	case report.Unknown:
		return unknownLocation(r)
	}
	if r.FileSize == 0 {
		return sntool.New(sntool.ZeroSize)
	}
	if r.ExistingCopies <= 0 {
		return sntool.New(sntool.NoCopies)
	}
	return nil
}

// ComputeCanonicalChecksum returns the checksum shared by every copy of
// a single-segment file. Multi-segment files fail with
// NeedsLocalComputation; their checksum has to be computed from the
// data on disk.
func ComputeCanonicalChecksum(r *report.FileReport) (string, error) {
	if err := checkVerifiable(r); err != nil {
		return "", err
	}

	if segments, _ := matrix.Dimensions(r.Checksums); segments > 1 {
		return "", &sntool.Error{
			Kind:   sntool.NeedsLocalComputation,
			Reason: sntool.MultiSegmentUnsupported,
			Actual: segments,
		}
	}

	m, err := matrix.Build(r.Checksums, 1, r.ExistingCopies)
	switch e := err.(type) {
	case nil:
	case *matrix.IncompleteError:
		return "", sntool.Counts(sntool.ChecksumCountMismatch, e.Populated+e.Extra, r.ExistingCopies)
	default:
		if err == matrix.ErrNotApplicable {
			return "", sntool.New(sntool.ChecksumNotApplicable)
		}
		return "", sntool.Wrap(sntool.Internal, err, "checksum matrix")
	}

	ref, _ := m.Get(1, 1)
	for c := 2; c <= m.Copies(); c++ {
		if v, _ := m.Get(1, c); v != ref {
			return "", mismatch(1, c)
		}
	}

	return ref, nil
}

// VerifySafelyStored succeeds only when the file has reached its target
// number of copies, every segment of every copy has a checksum equal to
// that segment's copy 1, and every tape assignment is healthy.
func VerifySafelyStored(r *report.FileReport) error {
	if err := checkVerifiable(r); err != nil {
		return err
	}

	if r.ExistingCopies != r.TargetCopies {
		return sntool.Counts(sntool.CopyCountMismatch, r.ExistingCopies, r.TargetCopies)
	}

	segments, _ := matrix.Dimensions(r.Checksums)
	m, err := matrix.Build(r.Checksums, segments, r.TargetCopies)
	switch e := err.(type) {
	case nil:
	case *matrix.IncompleteError:
		return sntool.Counts(sntool.ChecksumIncomplete, e.Populated, e.Expected)
	default:
		if err == matrix.ErrNotApplicable {
			return sntool.New(sntool.ChecksumNotApplicable)
		}
		return sntool.Wrap(sntool.Internal, err, "checksum matrix")
	}

	for s := 1; s <= m.Segments(); s++ {
		ref, _ := m.Get(s, 1)
		for c := 2; c <= m.Copies(); c++ {
			if v, _ := m.Get(s, c); v != ref {
				return mismatch(s, c)
			}
		}
	}

	return checkMedia(r.Media)
}

func checkMedia(media []report.MediaRecord) error {
	if len(media) == 0 {
		return sntool.Newf(sntool.NoTapes, "no media records")
	}

	for _, m := range media {
		if m.Kind == report.NotApplicable {
			return sntool.New(sntool.MediaNotApplicable)
		}
		switch strings.ToLower(m.Message) {
		case "":
			if !m.HasMedia() {
				return sntool.Newf(sntool.NoTapes, "copy %d", m.Copy)
			}
		case mediaUnknown:
			return sntool.Newf(sntool.MediaUnknown, "copy %d", m.Copy)
		case mediaNone:
			return sntool.Newf(sntool.NoTapes, "copy %d", m.Copy)
		default:
			return &sntool.Error{Kind: sntool.MediaError, Detail: m.Message}
		}
	}

	return nil
}

func mismatch(segment, copyID int) error {
	return &sntool.Error{
		Kind:   sntool.ChecksumMismatch,
		Detail: fmt.Sprintf("segment %d, copy %d", segment, copyID),
	}
}

// NeedsLocal reports whether err means the checksum can only be
// obtained by computing it from the file on disk.
func NeedsLocal(err error) bool {
	switch sntool.KindOf(err) {
	case sntool.NeedsLocalComputation, sntool.NoCopies:
		return true
	}
	return false
}
