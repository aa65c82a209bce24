package output

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// Writer outputs JSONL records for unpack results.
//
// Implementations must be safe for concurrent use from multiple
// goroutines. Each Write* method emits a complete record as a single
// line of JSON followed by a newline.
type Writer interface {
	// WriteUpload emits an upload record.
	WriteUpload(ctx context.Context, rec *UploadRecord) error

	// WriteError emits an error record.
	WriteError(ctx context.Context, rec *ErrorRecord) error

	// WriteSummary emits a summary record.
	WriteSummary(ctx context.Context, rec *SummaryRecord) error

	// Close flushes any buffered output and releases resources.
	Close() error
}

// JSONLWriter writes records as newline-delimited JSON to an io.Writer.
//
// JSONLWriter is safe for concurrent use. Writes are serialized using a
// mutex to ensure atomic line writes (no interleaved output).
type JSONLWriter struct {
	w      io.Writer
	jobID  string
	bucket string
	mu     sync.Mutex
	closed bool
}

// NewJSONLWriter creates a new JSONL writer.
//
// Parameters:
//   - w: The underlying writer (stdout, file, etc.)
//   - jobID: Correlation ID for this push job
//   - bucket: Destination bucket name
func NewJSONLWriter(w io.Writer, jobID, bucket string) *JSONLWriter {
	return &JSONLWriter{w: w, jobID: jobID, bucket: bucket}
}

// WriteUpload emits an upload record.
func (jw *JSONLWriter) WriteUpload(ctx context.Context, rec *UploadRecord) error {
	return jw.writeRecord(ctx, TypeUpload, rec)
}

// WriteError emits an error record.
func (jw *JSONLWriter) WriteError(ctx context.Context, rec *ErrorRecord) error {
	return jw.writeRecord(ctx, TypeError, rec)
}

// WriteSummary emits a summary record.
func (jw *JSONLWriter) WriteSummary(ctx context.Context, rec *SummaryRecord) error {
	return jw.writeRecord(ctx, TypeSummary, rec)
}

// Close marks the writer closed. The underlying io.Writer is owned by
// the caller and is not closed here.
func (jw *JSONLWriter) Close() error {
	jw.mu.Lock()
	defer jw.mu.Unlock()
	jw.closed = true
	return nil
}

func (jw *JSONLWriter) writeRecord(ctx context.Context, recType string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	line, err := json.Marshal(Record{
		Type:   recType,
		TS:     time.Now().UTC(),
		JobID:  jw.jobID,
		Bucket: jw.bucket,
		Data:   data,
	})
	if err != nil {
		return err
	}

	jw.mu.Lock()
	defer jw.mu.Unlock()

	if jw.closed {
		return ErrWriterClosed
	}

	if _, err := jw.w.Write(append(line, '\n')); err != nil {
		return err
	}
	return nil
}
