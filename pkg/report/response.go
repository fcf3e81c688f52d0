// Copyright (c) 2018 DDN. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package report

// summaryNone is the value of "summary" in a sentinel record.
const summaryNone = "N"

type (
	// Response is the JSON document inside a getFileLocation envelope.
	Response struct {
		FileInfos []FileInfo `json:"fileInfos"`
	}

	// FileInfo is one entry of fileInfos as sent by the service.
	FileInfo struct {
		Location       string        `json:"location"`
		FileName       string        `json:"fileName"`
		StoredPath     string        `json:"storedPathFileName"`
		Modified       string        `json:"lastModificationDateString"`
		ExistingCopies int           `json:"existingCopies"`
		TargetCopies   int           `json:"targetCopies"`
		FileSize       int64         `json:"fileSize"`
		StubSize       int64         `json:"targetStubSize"`
		Class          string        `json:"class"`
		Medias         []RawMedia    `json:"medias"`
		Checksums      []RawChecksum `json:"checksums"`
	}

	// RawMedia is a medias entry. Keys are optional, so presence is
	// tracked with pointers.
	RawMedia struct {
		Summary *string `json:"summary,omitempty"`
		Copy    int     `json:"copy,omitempty"`
		MediaID *string `json:"mediaId,omitempty"`
		Message *string `json:"message,omitempty"`
	}

	// RawChecksum is a checksums entry.
	RawChecksum struct {
		Summary *string `json:"summary,omitempty"`
		Segment int     `json:"fileSegment,omitempty"`
		Copy    int     `json:"copyId,omitempty"`
		Value   *string `json:"checksumValue,omitempty"`
	}
)

func isSummary(s *string) bool {
	return s != nil && *s == summaryNone
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func (m RawMedia) record() MediaRecord {
	if isSummary(m.Summary) {
		return MediaRecord{Kind: NotApplicable}
	}
	return MediaRecord{
		Kind:    Real,
		Copy:    m.Copy,
		MediaID: deref(m.MediaID),
		Message: deref(m.Message),
	}
}

func (c RawChecksum) record() ChecksumRecord {
	switch {
	case isSummary(c.Summary):
		return ChecksumRecord{Kind: NotApplicable}
	case c.Value != nil:
		return ChecksumRecord{
			Kind:    Real,
			Segment: c.Segment,
			Copy:    c.Copy,
			Value:   *c.Value,
		}
	}
	return ChecksumRecord{Kind: Malformed, Segment: c.Segment, Copy: c.Copy}
}
