// Package output provides JSONL output for unpack results.
//
// Output is structured as typed record envelopes containing uploads,
// errors, and a final summary. Each line is a self-contained JSON object
// that can be parsed independently.
package output

import (
	"encoding/json"
	"errors"
	"time"
)

// Record type constants define the envelope types for JSONL output.
// These follow the pattern: zipcourier.<type>.v<version>
const (
	// TypeUpload identifies per-object upload records.
	TypeUpload = "zipcourier.upload.v1"

	// TypeError identifies error records.
	TypeError = "zipcourier.error.v1"

	// TypeSummary identifies final summary records.
	TypeSummary = "zipcourier.summary.v1"
)

// Record is the envelope for all JSONL output.
//
// Each line of JSONL output contains a Record with a type-specific
// payload in the Data field.
type Record struct {
	// Type identifies the record type (e.g., "zipcourier.upload.v1").
	Type string `json:"type"`

	// TS is the timestamp when the record was created (RFC3339Nano).
	TS time.Time `json:"ts"`

	// JobID is the correlation ID for this push job.
	JobID string `json:"job_id"`

	// Bucket is the destination bucket for this job.
	Bucket string `json:"bucket"`

	// Data contains the type-specific payload as raw JSON.
	Data json.RawMessage `json:"data"`
}

// UploadRecord is the data payload for one stored object.
type UploadRecord struct {
	// Location is the final URL of the stored object.
	Location string `json:"location"`

	// Bucket is the bucket the object was written to.
	Bucket string `json:"bucket"`

	// Key is the full object key.
	Key string `json:"key"`

	// ETag is the entity tag reported by the store.
	ETag string `json:"etag"`

	// SizeBytes is the number of body bytes written.
	SizeBytes int64 `json:"size_bytes"`
}

// ErrorRecord is the data payload for the terminal pipeline error.
type ErrorRecord struct {
	// Stage names the pipeline stage that failed: validate, extract,
	// filter, or upload.
	Stage string `json:"stage"`

	// Message is a human-readable error description.
	Message string `json:"message"`

	// Key is the destination key related to this error, if applicable.
	Key string `json:"key,omitempty"`
}

// SummaryRecord is the data payload for the final job summary.
type SummaryRecord struct {
	// Files is the number of file entries decoded from the archive.
	Files int64 `json:"files"`

	// Dropped is the number of entries removed by the filter.
	Dropped int64 `json:"dropped"`

	// Uploaded is the number of objects successfully stored.
	Uploaded int64 `json:"uploaded"`

	// BytesUploaded is the total body bytes stored.
	BytesUploaded int64 `json:"bytes_uploaded"`

	// DurationMS is the wall-clock job duration in milliseconds.
	DurationMS int64 `json:"duration_ms"`

	// Failed indicates the job terminated on a fatal error.
	Failed bool `json:"failed"`
}

// ErrWriterClosed is returned when writing to a closed writer.
var ErrWriterClosed = errors.New("output writer is closed")
