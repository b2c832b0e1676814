package daemon

import (
	"bytes"
	"io"
	"sync"

	"github.com/zync-tools/zyncmon/internal/repositories"
	"github.com/zync-tools/zyncmon/pkg/diaglog"
	"go.uber.org/zap/zapio"
)

// stream routes one output stream of a child process into the diagnostic log
// and the status parser.
type stream struct {
	raw  *zapio.Writer
	feed *repositories.Feed

	io.Writer
}

func newStream(source string, sink *diaglog.Sink, repos *repositories.Service, extra ...io.Writer) *stream {
	s := &stream{
		raw:  sink.Writer(source),
		feed: repos.NewFeed(source),
	}
	s.Writer = io.MultiWriter(append([]io.Writer{s.raw, s.feed}, extra...)...)

	return s
}

func (s *stream) Close() error {
	_ = s.feed.Close()
	return s.raw.Close() //nolint:wrapcheck //passthrough
}

// limitedBuffer keeps the first limit bytes written and silently drops the
// rest. It never fails, so it is safe inside io.MultiWriter.
type limitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	limit     int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if room := b.limit - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}

	b.buf.Write(p)
	return len(p), nil
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.buf.String()
}

func (b *limitedBuffer) Truncated() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.truncated
}
