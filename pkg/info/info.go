// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package info renders a location report as a flat label/value table.
package info

import (
	"fmt"
	"io"
	"strconv"

	"github.com/dustin/go-humanize"

	"github.com/ink1/sntool/pkg/matrix"
	"github.com/ink1/sntool/pkg/report"
)

// Markers used in place of values
const (
	NotApplicable = "N/A"
	Malformed     = "error"
	Same          = "same"
	Missing       = "missing"
)

const labelWidth = 30

type (
	// Field is one row of the info table.
	Field struct {
		Label string
		Value string
	}

	// Option adjusts rendering.
	Option func(*options)

	options struct {
		humanSizes bool
	}
)

// HumanSizes renders file and stub sizes in IEC units.
func HumanSizes() Option {
	return func(o *options) {
		o.humanSizes = true
	}
}

func (o *options) size(n int64) string {
	if o.humanSizes && n >= 0 {
		return humanize.IBytes(uint64(n))
	}
	return strconv.FormatInt(n, 10)
}

// Render lays out the report in a fixed order: location, file
// attributes, tape copies, then per-segment checksums. Foreign and
// unknown locations produce only the location row.
func Render(r *report.FileReport, opts ...Option) []Field {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	fields := []Field{{"location", r.Location.String()}}
	if r.Location == report.Foreign || r.Location == report.Unknown {
		return fields
	}

	fields = append(fields,
		Field{"fileName", r.FileName},
		Field{"storedPathFileName", r.StoredPath},
		Field{"lastModificationDateString", r.Modified},
		Field{"existingCopies", strconv.Itoa(r.ExistingCopies)},
		Field{"targetCopies", strconv.Itoa(r.TargetCopies)},
		Field{"fileSize", o.size(r.FileSize)},
		Field{"targetStubSize", o.size(r.StubSize)},
		Field{"class", r.Class},
	)

	maxCopy := 0
	for _, m := range r.Media {
		switch {
		case m.Kind == report.NotApplicable:
			return append(fields, Field{"tape", NotApplicable})
		case m.HasMedia():
			if m.Copy > maxCopy {
				maxCopy = m.Copy
			}
			fields = append(fields, Field{fmt.Sprintf("tape (copy %d)", m.Copy), m.MediaID})
		default:
			return append(fields, Field{"tape", Malformed})
		}
	}
	if maxCopy == 0 {
		return fields
	}

	if maxCopy > len(r.Media) {
		return append(fields, Field{"checksums", Malformed})
	}
	return append(fields, checksums(r.Checksums, maxCopy)...)
}

// checksums renders the grid. Every segment index must be named by
// some record, so a segment beyond the record count is malformed.
func checksums(records []report.ChecksumRecord, copies int) []Field {
	for _, c := range records {
		switch c.Kind {
		case report.NotApplicable:
			return []Field{{"checksums", NotApplicable}}
		case report.Malformed:
			return []Field{{"checksums", Malformed}}
		}
	}

	segments, _ := matrix.Dimensions(records)
	if segments > len(records) {
		return []Field{{"checksums", Malformed}}
	}
	m, err := matrix.Place(records, segments, copies)
	if err != nil {
		return []Field{{"checksums", Malformed}}
	}

	var fields []Field
	for s := 1; s <= m.Segments(); s++ {
		ref, refOK := m.Get(s, 1)
		for c := 1; c <= m.Copies(); c++ {
			label := fmt.Sprintf("checksum %d, segment %d", c, s)
			v, ok := m.Get(s, c)
			switch {
			case !ok:
				v = Missing
			case c > 1 && refOK && v == ref:
				v = Same
			}
			fields = append(fields, Field{label, v})
		}
	}
	return fields
}

// Write prints fields as aligned label/value lines.
func Write(w io.Writer, fields []Field) error {
	for _, f := range fields {
		if _, err := fmt.Fprintf(w, "%-*s %s\n", labelWidth, f.Label, f.Value); err != nil {
			return err
		}
	}
	return nil
}
