// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package report structures a StorNext getFileLocation response into
// an immutable FileReport. It classifies each record but does not
// interpret any values.
package report

import (
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/ink1/sntool"
)

type (
	// Location is where the HSM says the file data resides.
	Location int

	// RecordKind tags a media or checksum record.
	RecordKind int

	// MediaRecord describes one tape copy of the file.
	MediaRecord struct {
		Kind    RecordKind
		Copy    int
		MediaID string
		Message string
	}

	// ChecksumRecord is the checksum of one (segment, copy) pair.
	ChecksumRecord struct {
		Kind    RecordKind
		Segment int
		Copy    int
		Value   string
	}

	// FileReport is the decoded location report for one file.
	FileReport struct {
		Location       Location
		RawLocation    string
		FileName       string
		StoredPath     string
		Modified       string
		ExistingCopies int
		TargetCopies   int
		FileSize       int64
		StubSize       int64
		Class          string
		Media          []MediaRecord
		Checksums      []ChecksumRecord
	}
)

// Locations
const (
	Unknown = Location(iota)
	OnDisk
	OnTape
	OnDiskAndTape
	Foreign
)

// Record kinds
const (
	// Real is a record describing an actual copy.
	Real = RecordKind(iota)
	// NotApplicable is the service's "summary: N" sentinel.
	NotApplicable
	// Malformed is a checksum record with neither a summary nor a value.
	Malformed
)

var locationNames = map[Location]string{
	OnDisk:        "DISK",
	OnTape:        "TAPE",
	OnDiskAndTape: "DISK AND TAPE",
	Foreign:       "FOREIGN SYSTEM",
}

// ParseLocation maps the service wording onto a Location.
func ParseLocation(s string) Location {
	for loc, name := range locationNames {
		if name == s {
			return loc
		}
	}
	return Unknown
}

func (l Location) String() string {
	if name, ok := locationNames[l]; ok {
		return name
	}
	return "unknown"
}

// OnDisk is true when the file data is resident on disk.
func (l Location) OnDisk() bool {
	return l == OnDisk || l == OnDiskAndTape
}

func (k RecordKind) String() string {
	switch k {
	case Real:
		return "real"
	case NotApplicable:
		return "n/a"
	case Malformed:
		return "malformed"
	}
	return "invalid"
}

// Decode parses the JSON body of a getFileLocation response.
func Decode(data []byte) (*FileReport, error) {
	var resp Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, sntool.Wrap(sntool.MalformedReport, errors.Wrap(err, "decode report failed"), "")
	}
	return FromResponse(&resp)
}

// FromResponse builds a FileReport from the first fileInfos entry.
func FromResponse(resp *Response) (*FileReport, error) {
	if resp == nil || len(resp.FileInfos) == 0 {
		return nil, sntool.Newf(sntool.MalformedReport, "no fileInfos")
	}
	fi := resp.FileInfos[0]

	r := &FileReport{
		Location:       ParseLocation(fi.Location),
		RawLocation:    fi.Location,
		FileName:       fi.FileName,
		StoredPath:     fi.StoredPath,
		Modified:       fi.Modified,
		ExistingCopies: fi.ExistingCopies,
		TargetCopies:   fi.TargetCopies,
		FileSize:       fi.FileSize,
		StubSize:       fi.StubSize,
		Class:          fi.Class,
	}
	for _, m := range fi.Medias {
		r.Media = append(r.Media, m.record())
	}
	for _, c := range fi.Checksums {
		r.Checksums = append(r.Checksums, c.record())
	}

	return r, nil
}

// HasMedia reports whether the record names a tape.
func (m MediaRecord) HasMedia() bool {
	return m.Kind == Real && m.MediaID != ""
}
