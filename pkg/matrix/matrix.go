// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package matrix reconciles a flat list of checksum records into a
// [segment][copy] grid.
package matrix

import (
	"fmt"
	"math"

	"github.com/pkg/errors"

	"github.com/ink1/sntool/pkg/report"
)

type (
	coord struct {
		segment int
		copyID  int
	}

	// Matrix is a segments x copies grid of optional checksums.
	// Indexes passed to its methods are 1-based, as in the report.
	// Only populated cells are stored, so the dimensions may be far
	// larger than the number of records.
	Matrix struct {
		segments int
		copies   int
		cells    map[coord]string
		extra    int
	}

	// IncompleteError is returned by Build when the grid is not
	// exactly populated.
	IncompleteError struct {
		Expected  int
		Populated int
		Extra     int
	}
)

// ErrNotApplicable means the service marked the file as having no
// checksums. It is a classification, not a data error.
var ErrNotApplicable = errors.New("no checksum applicable")

func (e *IncompleteError) Error() string {
	msg := fmt.Sprintf("%d of %d checksums present", e.Populated, e.Expected)
	if e.Extra > 0 {
		msg += fmt.Sprintf(", %d out of range", e.Extra)
	}
	return msg
}

// Missing is the shortfall of populated cells.
func (e *IncompleteError) Missing() int {
	return e.Expected - e.Populated
}

// Dimensions returns the highest segment and copy index among the real
// records, each at least 1.
func Dimensions(records []report.ChecksumRecord) (segments, copies int) {
	segments, copies = 1, 1
	for _, r := range records {
		if r.Kind != report.Real {
			continue
		}
		if r.Segment > segments {
			segments = r.Segment
		}
		if r.Copy > copies {
			copies = r.Copy
		}
	}
	return segments, copies
}

// Place distributes records over a segments x copies grid. A later
// record at the same coordinates replaces an earlier one. Records
// outside the grid are counted but not placed.
func Place(records []report.ChecksumRecord, segments, copies int) (*Matrix, error) {
	for _, r := range records {
		if r.Kind == report.NotApplicable {
			return nil, ErrNotApplicable
		}
	}

	if segments < 0 {
		segments = 0
	}
	if copies < 0 {
		copies = 0
	}
	m := &Matrix{
		segments: segments,
		copies:   copies,
		cells:    make(map[coord]string),
	}

	for _, r := range records {
		if r.Kind != report.Real {
			continue
		}
		if r.Segment < 1 || r.Segment > segments || r.Copy < 1 || r.Copy > copies {
			m.extra++
			continue
		}
		m.cells[coord{r.Segment, r.Copy}] = r.Value
	}

	return m, nil
}

// Build is Place followed by a completeness check.
func Build(records []report.ChecksumRecord, segments, copies int) (*Matrix, error) {
	m, err := Place(records, segments, copies)
	if err != nil {
		return nil, err
	}

	expected := m.Cells()
	if populated := m.Populated(); populated != expected || m.extra > 0 {
		return m, &IncompleteError{
			Expected:  expected,
			Populated: populated,
			Extra:     m.extra,
		}
	}

	return m, nil
}

// Segments returns the number of rows.
func (m *Matrix) Segments() int {
	return m.segments
}

// Copies returns the number of columns.
func (m *Matrix) Copies() int {
	if m.segments == 0 {
		return 0
	}
	return m.copies
}

// Cells returns segments x copies, saturating at math.MaxInt.
func (m *Matrix) Cells() int {
	s, c := m.Segments(), m.Copies()
	if s == 0 || c == 0 {
		return 0
	}
	if s > math.MaxInt/c {
		return math.MaxInt
	}
	return s * c
}

// Extra returns the number of records which fell outside the grid.
func (m *Matrix) Extra() int {
	return m.extra
}

// Populated returns the number of cells holding a checksum.
func (m *Matrix) Populated() int {
	return len(m.cells)
}

// Get returns the checksum of a segment's copy, if one was recorded.
func (m *Matrix) Get(segment, copyID int) (string, bool) {
	v, ok := m.cells[coord{segment, copyID}]
	return v, ok
}
