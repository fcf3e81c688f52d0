// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package sntool holds the failure classification shared by the
// StorNext query packages and the snq command.
package sntool

import "fmt"

type (
	// Kind classifies a failure. Every Kind maps to its own process
	// exit status so that scripts can branch on it.
	Kind int

	// Error is a classified failure carrying the figures needed to
	// explain it on one line.
	Error struct {
		Kind Kind
		// Reason refines Kind, e.g. NeedsLocalComputation because of
		// MultiSegmentUnsupported.
		Reason Kind
		Actual int
		Target int
		Detail string
		Err    error
	}
)

// Failure kinds
const (
	Internal = Kind(iota)
	ServiceUnavailable
	MalformedReport
	RoutingFailed
	FileNotReadable
	ForeignSystem
	UnknownLocation
	NotOnDisk
	ZeroSize
	NoCopies
	CopyCountMismatch
	MultiSegmentUnsupported
	ChecksumCountMismatch
	ChecksumIncomplete
	ChecksumMismatch
	ChecksumNotApplicable
	MediaUnknown
	NoTapes
	MediaError
	MediaNotApplicable
	NeedsLocalComputation
	ChecksumToolFailed
	CommandFailed
)

var kindNames = map[Kind]string{
	Internal:                "Internal",
	ServiceUnavailable:      "ServiceUnavailable",
	MalformedReport:         "MalformedReport",
	RoutingFailed:           "RoutingFailed",
	FileNotReadable:         "FileNotReadable",
	ForeignSystem:           "ForeignSystem",
	UnknownLocation:         "UnknownLocation",
	NotOnDisk:               "NotOnDisk",
	ZeroSize:                "ZeroSize",
	NoCopies:                "NoCopies",
	CopyCountMismatch:       "CopyCountMismatch",
	MultiSegmentUnsupported: "MultiSegmentUnsupported",
	ChecksumCountMismatch:   "ChecksumCountMismatch",
	ChecksumIncomplete:      "ChecksumIncomplete",
	ChecksumMismatch:        "ChecksumMismatch",
	ChecksumNotApplicable:   "ChecksumNotApplicable",
	MediaUnknown:            "MediaUnknown",
	NoTapes:                 "NoTapes",
	MediaError:              "MediaError",
	MediaNotApplicable:      "MediaNotApplicable",
	NeedsLocalComputation:   "NeedsLocalComputation",
	ChecksumToolFailed:      "ChecksumToolFailed",
	CommandFailed:           "CommandFailed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ExitStatus returns the process exit status for the kind. Status 1
// is left to usage errors and unclassified failures.
func (k Kind) ExitStatus() int {
	if _, ok := kindNames[k]; !ok || k == Internal {
		return 1
	}
	return int(k) + 1
}

// New returns an *Error of the given kind.
func New(kind Kind) *Error {
	return &Error{Kind: kind}
}

// Newf returns an *Error of the given kind with a formatted detail.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Wrap classifies err as kind.
func Wrap(kind Kind, err error, detail string) *Error {
	return &Error{Kind: kind, Detail: detail, Err: err}
}

// Counts returns a CopyCountMismatch-style error carrying both figures.
func Counts(kind Kind, actual, target int) *Error {
	return &Error{Kind: kind, Actual: actual, Target: target}
}

func (e *Error) Error() string {
	msg := e.message()
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) message() string {
	switch e.Kind {
	case ServiceUnavailable:
		return e.withDetail("no output from StorNext")
	case MalformedReport:
		return e.withDetail("malformed location report")
	case RoutingFailed:
		return e.withDetail("unknown file name prefix")
	case FileNotReadable:
		return e.withDetail("file does not exist or not allowed to read")
	case ForeignSystem:
		return "file is on External System"
	case UnknownLocation:
		return e.withDetail("file status is unknown")
	case NotOnDisk:
		return e.withDetail("file is on Tape")
	case ZeroSize:
		return "file size is zero"
	case NoCopies:
		return "no checksum - no file copies"
	case CopyCountMismatch:
		return fmt.Sprintf("%d out of %d copies", e.Actual, e.Target)
	case MultiSegmentUnsupported:
		return "no checksum - multi-segment file"
	case ChecksumCountMismatch:
		return fmt.Sprintf("number of checksums (%d) is not equal to number of copies (%d)", e.Actual, e.Target)
	case ChecksumIncomplete:
		return fmt.Sprintf("checksum missing (%d of %d present)", e.Actual, e.Target)
	case ChecksumMismatch:
		return e.withDetail("checksums differ")
	case ChecksumNotApplicable:
		return "no checksum recorded for file"
	case MediaUnknown:
		return e.withDetail("missing tape")
	case NoTapes:
		return e.withDetail("no tapes")
	case MediaError:
		if e.Detail == "" {
			return "unknown media error"
		}
		return "unknown error: " + e.Detail
	case MediaNotApplicable:
		return "no tape information for file"
	case NeedsLocalComputation:
		if e.Reason != Internal {
			return New(e.Reason).message()
		}
		return "checksum must be computed locally"
	case ChecksumToolFailed:
		return e.withDetail("could not compute checksum")
	case CommandFailed:
		return e.withDetail("command failed")
	}
	if e.Detail != "" {
		return e.Detail
	}
	return "internal error"
}

func (e *Error) withDetail(msg string) string {
	if e.Detail == "" {
		return msg
	}
	return msg + " (" + e.Detail + ")"
}

// Cause returns the underlying error, satisfying errors.Cause.
func (e *Error) Cause() error {
	return e.Err
}

// As returns the first *Error in err's chain of causes.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		cause, ok := err.(interface {
			Cause() error
		})
		if !ok {
			return nil, false
		}
		err = cause.Cause()
	}
	return nil, false
}

// KindOf returns the classification of err, or Internal when err was
// never classified.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return Internal
}

// Is reports whether err is classified as kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// ExitStatus maps err onto a process exit status, 0 for nil.
func ExitStatus(err error) int {
	if err == nil {
		return 0
	}
	return KindOf(err).ExitStatus()
}
