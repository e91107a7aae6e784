// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
)

// ErrMalformedResponse is returned when a payload has no parsable root
// element at all, as opposed to containing individual bad records.
var ErrMalformedResponse = errors.New("malformed response")

// checkDocument verifies that data opens with a parsable root element and
// returns its name.
func checkDocument(data []byte) (string, error) {
	d := newDecoder(data)
	for {
		tok, err := d.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return "", fmt.Errorf("%w: no root element", ErrMalformedResponse)
			}
			return "", fmt.Errorf("%w: %v", ErrMalformedResponse, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			return t.Name.Local, nil
		case xml.CharData:
			if len(bytes.TrimSpace(t)) > 0 {
				return "", fmt.Errorf("%w: text before root element", ErrMalformedResponse)
			}
		}
	}
}

// SplitRecords cuts data into the raw fragments of every top-level tag
// element. A record whose end tag is missing runs up to the next record's
// start, so it fails to parse on its own without swallowing its siblings.
func SplitRecords(data []byte, tag string) [][]byte {
	var (
		records [][]byte
		pos     int
	)
	for {
		start := indexStartTag(data, tag, pos)
		if start < 0 {
			return records
		}

		next := indexStartTag(data, tag, start+1)
		limit := len(data)
		if next >= 0 {
			limit = next
		}

		end := indexEndTag(data[:limit], tag, start)
		if end < 0 {
			end = limit
		}
		records = append(records, data[start:end])
		pos = end
	}
}

// indexStartTag returns the offset of the first "<tag" at or after from
// that is followed by '>', '/' or whitespace, or -1.
func indexStartTag(data []byte, tag string, from int) int {
	open := []byte("<" + tag)
	for from < len(data) {
		i := bytes.Index(data[from:], open)
		if i < 0 {
			return -1
		}
		i += from
		after := i + len(open)
		if after < len(data) && isTagBoundary(data[after]) {
			return i
		}
		from = after
	}
	return -1
}

// indexEndTag returns the offset just past the first "</tag>" at or after
// from, or -1.
func indexEndTag(data []byte, tag string, from int) int {
	closing := []byte("</" + tag)
	for from < len(data) {
		i := bytes.Index(data[from:], closing)
		if i < 0 {
			return -1
		}
		j := from + i + len(closing)
		for j < len(data) && isSpace(data[j]) {
			j++
		}
		if j < len(data) && data[j] == '>' {
			return j + 1
		}
		from = from + i + len(closing)
	}
	return -1
}

func isTagBoundary(b byte) bool {
	return b == '>' || b == '/' || isSpace(b)
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}
