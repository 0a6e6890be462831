package sse

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
)

func TestParseFrame(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want Frame
	}{
		{
			name: "single data line",
			raw:  `data: {"type":"update"}`,
			want: Frame{Data: `{"type":"update"}`},
		},
		{
			name: "multiple data lines joined with newlines",
			raw:  "data: first\ndata: second\ndata: third",
			want: Frame{Data: "first\nsecond\nthird"},
		},
		{
			name: "event and id hints",
			raw:  "event: document.updated\nid: 42\ndata: {}",
			want: Frame{Data: "{}", Event: "document.updated", ID: "42"},
		},
		{
			name: "exactly one leading space stripped",
			raw:  "data:  two spaces",
			want: Frame{Data: " two spaces"},
		},
		{
			name: "no space after colon",
			raw:  "data:compact",
			want: Frame{Data: "compact"},
		},
		{
			name: "comment lines ignored",
			raw:  ": keep-alive\ndata: payload\n: another comment",
			want: Frame{Data: "payload"},
		},
		{
			name: "unknown fields ignored",
			raw:  "retry: 3000\ndata: payload",
			want: Frame{Data: "payload"},
		},
		{
			name: "carriage returns stripped",
			raw:  "event: ping\r\ndata: payload\r",
			want: Frame{Data: "payload", Event: "ping"},
		},
		{
			name: "field without colon treated as empty value",
			raw:  "data",
			want: Frame{Data: ""},
		},
		{
			name: "empty input",
			raw:  "",
			want: Frame{},
		},
		{
			name: "garbage input yields empty frame",
			raw:  "!!! not an sse frame at all",
			want: Frame{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ParseFrame(tt.raw))
		})
	}
}

func TestScanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "two frames",
			input: "data: one\n\ndata: two\n\n",
			want:  []string{"data: one", "data: two"},
		},
		{
			name:  "crlf delimiters",
			input: "data: one\r\n\r\ndata: two\r\n\r\n",
			want:  []string{"data: one", "data: two"},
		},
		{
			name:  "mixed delimiters pick the earliest",
			input: "data: one\n\ndata: two\r\n\r\n",
			want:  []string{"data: one", "data: two"},
		},
		{
			name:  "multi-line frame stays one frame",
			input: "event: e\ndata: a\ndata: b\n\n",
			want:  []string{"event: e\ndata: a\ndata: b"},
		},
		{
			name:  "trailing fragment flushed at end of stream",
			input: "data: one\n\ndata: trunc",
			want:  []string{"data: one", "data: trunc"},
		},
		{
			name:  "empty stream yields nothing",
			input: "",
			want:  nil,
		},
		{
			name:  "lone delimiter yields one empty frame",
			input: "\n\n",
			want:  []string{""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			scanner := NewScanner(strings.NewReader(tt.input))

			var got []string
			for scanner.Next() {
				got = append(got, scanner.Text())
			}

			assert.NoError(t, scanner.Err())
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScannerByteAtATime(t *testing.T) {
	t.Parallel()

	// Frames must survive arbitrary chunk boundaries, including a delimiter
	// split across reads.
	scanner := NewScanner(iotest.OneByteReader(strings.NewReader("data: one\n\ndata: two\n\n")))

	var got []string
	for scanner.Next() {
		got = append(got, scanner.Text())
	}

	assert.NoError(t, scanner.Err())
	assert.Equal(t, []string{"data: one", "data: two"}, got)
}

func TestScannerReadError(t *testing.T) {
	t.Parallel()

	readErr := errors.New("connection reset")
	scanner := NewScanner(io.MultiReader(
		strings.NewReader("data: one\n\n"),
		iotest.ErrReader(readErr),
	))

	assert.True(t, scanner.Next())
	assert.Equal(t, "data: one", scanner.Text())

	assert.False(t, scanner.Next())
	assert.ErrorIs(t, scanner.Err(), readErr)
}
