package repositories

import (
	"github.com/zync-tools/zyncmon/internal/status"
	"go.uber.org/zap"
)

// Feed consumes one output stream of the daemon or of a command. Chunks may
// split records anywhere; incomplete records wait for the next Write.
//
// A Feed must be written from a single goroutine. Different feeds may be
// written concurrently.
type Feed struct {
	source    string
	extractor *status.Extractor

	svc *Service
}

// Write implements io.Writer. It never fails: bad records are logged and
// skipped.
func (f *Feed) Write(p []byte) (int, error) {
	f.svc.consume(f, p)
	return len(p), nil
}

// Close reports a record left incomplete when the stream ended.
func (f *Feed) Close() error {
	f.svc.mu.Lock()
	pending := f.extractor.Pending()
	f.svc.mu.Unlock()

	if pending > 0 {
		f.svc.trace.Warn("stream ended inside a record",
			zap.String("source", f.source),
			zap.Int("pending_bytes", pending))
	}

	return nil
}
