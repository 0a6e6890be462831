// Package sse reads blank-line delimited event frames from a text stream.
//
// The wire format is the Server-Sent Events framing used by the docsync
// change and run event streams: each frame is zero or more "data:" lines
// carrying the payload, plus optional "event:" and "id:" hint lines, and
// frames are separated by a blank line.
package sse

import (
	"bytes"
	"io"
	"strings"
)

// Frame represents one parsed event frame.
type Frame struct {
	// Data is the payload assembled from the frame's "data:" lines,
	// joined with newlines. Empty when the frame carried no data lines.
	Data string

	// Event is the optional type hint from the "event:" line.
	Event string

	// ID is the optional cursor hint from the "id:" line.
	ID string
}

// readChunkSize is the transport read granularity.
const readChunkSize = 4096

// Scanner extracts raw frames from an io.Reader. It maintains a decode
// buffer and slices off one frame whenever the buffer contains a blank-line
// delimiter ("\n\n" or "\r\n\r\n"). When the reader signals end-of-stream,
// any remaining buffered text is flushed as one final frame even if it was
// never terminated by a delimiter. A fragment truncated mid-write by the
// server is therefore handed to the parser as if it were complete; callers
// rely on the parser dropping it when the payload does not decode.
//
// Scanner is not safe for concurrent use.
type Scanner struct {
	reader io.Reader
	buf    []byte
	chunk  []byte
	text   string
	eof    bool
	err    error
}

// NewScanner creates a scanner that reads frames from reader.
func NewScanner(reader io.Reader) *Scanner {
	return &Scanner{
		reader: reader,
		chunk:  make([]byte, readChunkSize),
	}
}

// Next advances to the next raw frame. Returns false when the stream ends
// or a read fails; call Err to distinguish the two.
func (s *Scanner) Next() bool {
	for {
		if start, width := delimiterIndex(s.buf); start >= 0 {
			s.text = string(s.buf[:start])
			s.buf = s.buf[start+width:]
			return true
		}

		if s.eof {
			// Flush the trailing non-delimited fragment as a final frame.
			if len(s.buf) > 0 {
				s.text = string(s.buf)
				s.buf = nil
				return true
			}
			return false
		}

		n, err := s.reader.Read(s.chunk)
		if n > 0 {
			s.buf = append(s.buf, s.chunk[:n]...)
		}
		if err != nil {
			if err == io.EOF {
				s.eof = true
				continue
			}
			s.err = err
			return false
		}
	}
}

// Text returns the raw text of the most recently scanned frame. Only valid
// after Next returns true.
func (s *Scanner) Text() string {
	return s.text
}

// Err returns the first read error encountered. Returns nil when scanning
// ended due to a clean end-of-stream.
func (s *Scanner) Err() error {
	return s.err
}

// delimiterIndex locates the earliest blank-line delimiter in buf and
// returns its start offset and width. Returns (-1, 0) when buf holds no
// complete frame.
func delimiterIndex(buf []byte) (start, width int) {
	lf := bytes.Index(buf, []byte("\n\n"))
	crlf := bytes.Index(buf, []byte("\r\n\r\n"))

	switch {
	case lf < 0 && crlf < 0:
		return -1, 0
	case crlf < 0 || (lf >= 0 && lf < crlf):
		return lf, 2
	default:
		return crlf, 4
	}
}

// ParseFrame parses raw frame text into a Frame. It is total: any input
// yields a Frame, with fields left empty when absent. Lines prefixed
// "data:" accumulate into Data (one leading space stripped, joined with
// newlines), "event:" and "id:" record their hints, comment lines and
// unknown fields are ignored.
func ParseFrame(raw string) Frame {
	var (
		dataLines []string
		frame     Frame
	)

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")

		// Comment lines start with ":".
		if strings.HasPrefix(line, ":") {
			continue
		}

		field, value, hasColon := strings.Cut(line, ":")
		if !hasColon {
			// A line without a colon is a field name with an empty value.
			field = line
			value = ""
		} else {
			// If the value starts with a space, remove exactly one space.
			value = strings.TrimPrefix(value, " ")
		}

		switch field {
		case "data":
			dataLines = append(dataLines, value)
		case "event":
			frame.Event = value
		case "id":
			frame.ID = value
		default:
			// Unknown fields are ignored.
		}
	}

	frame.Data = strings.Join(dataLines, "\n")
	return frame
}
