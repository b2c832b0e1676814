package status

import (
	"bytes"
	"strings"
)

const (
	recordOpen  = '{'
	recordClose = '}'

	DefaultMaxRecordSize = 64 * 1024
)

// Extractor cuts delimited records out of a byte stream delivered in
// arbitrary chunks. An incomplete record at the end of the buffered data is
// kept until a later Write completes it.
//
// An Extractor is not safe for concurrent use; give each stream its own.
type Extractor struct {
	buf     []byte
	maxSize int
	dropped int
}

// NewExtractor creates an extractor that discards a pending partial record
// once it grows beyond maxSize bytes. A non-positive maxSize selects
// DefaultMaxRecordSize.
func NewExtractor(maxSize int) *Extractor {
	if maxSize <= 0 {
		maxSize = DefaultMaxRecordSize
	}

	return &Extractor{maxSize: maxSize}
}

// Write appends a chunk to the pending data.
func (e *Extractor) Write(chunk []byte) {
	e.buf = append(e.buf, chunk...)
}

// Next returns the next complete record span with surrounding whitespace
// trimmed. It returns false when no complete record is buffered; the
// unconsumed tail stays buffered for the next Write.
func (e *Extractor) Next() (string, bool) {
	for {
		start := bytes.IndexByte(e.buf, recordOpen)
		if start < 0 {
			e.discard(len(e.buf))
			return "", false
		}
		e.discard(start)

		end := bytes.IndexByte(e.buf, recordClose)
		if end < 0 {
			if len(e.buf) <= e.maxSize {
				return "", false
			}

			// keep a record that started inside the oversized span
			if inner := bytes.LastIndexByte(e.buf[1:], recordOpen); inner >= 0 {
				e.discard(inner + 1)
				continue
			}
			e.discard(len(e.buf))
			return "", false
		}

		// a second opening delimiter before the close drops the outer span
		if nested := bytes.IndexByte(e.buf[1:end], recordOpen); nested >= 0 {
			e.discard(nested + 1)
			continue
		}

		span := strings.TrimSpace(string(e.buf[1:end]))
		e.buf = e.buf[end+1:]
		e.compact()

		return span, true
	}
}

// All drains every complete record currently buffered.
func (e *Extractor) All() []string {
	var spans []string
	for {
		span, ok := e.Next()
		if !ok {
			return spans
		}
		spans = append(spans, span)
	}
}

// Pending returns the number of buffered bytes not yet consumed.
func (e *Extractor) Pending() int {
	return len(e.buf)
}

// Dropped returns and resets the count of non-whitespace bytes discarded as
// junk, nested garbage or oversized partial records.
func (e *Extractor) Dropped() int {
	n := e.dropped
	e.dropped = 0
	return n
}

func (e *Extractor) discard(n int) {
	if n == 0 {
		return
	}
	e.dropped += len(bytes.TrimSpace(e.buf[:n]))
	e.buf = e.buf[n:]
	e.compact()
}

// compact drops the backing array once the buffer is empty.
func (e *Extractor) compact() {
	if len(e.buf) == 0 {
		e.buf = nil
	}
}
