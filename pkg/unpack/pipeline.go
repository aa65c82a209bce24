// Package unpack streams a zip archive into object storage.
//
// One Pipeline run wires three stages: a sequential archive decoder, an
// optional per-entry filter, and a bounded pool of upload workers sharing
// a single storage client. Entries flow in archive order up to the
// workers; upload completions race and results are streamed as they
// happen. The first fatal error cancels the run: in-flight uploads are
// aborted and no new ones start.
package unpack

import (
	"context"
	"io"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/3leaps/zipcourier/pkg/archive"
	"github.com/3leaps/zipcourier/pkg/filter"
	"github.com/3leaps/zipcourier/pkg/provider"
	"github.com/3leaps/zipcourier/pkg/provider/s3"
)

// Summary aggregates counters for one pipeline run.
type Summary struct {
	FilesSeen     int64
	Dropped       int64
	Uploaded      int64
	BytesUploaded int64
	Duration      time.Duration
}

// Pipeline uploads every file entry of a zip stream to a bucket.
// A Pipeline is immutable after New and may run multiple archives,
// one client per run; runs never share state.
type Pipeline struct {
	opts      Options
	log       *zap.Logger
	newClient func(ctx context.Context) (provider.Uploader, error)
}

// Option customizes a Pipeline beyond its validated Options.
type Option func(*Pipeline)

// WithUploader injects the storage client, bypassing S3 client
// construction. The pipeline still closes the client at the end of each
// run.
func WithUploader(u provider.Uploader) Option {
	return func(p *Pipeline) {
		p.newClient = func(context.Context) (provider.Uploader, error) { return u, nil }
	}
}

// WithLogger sets the pipeline logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(p *Pipeline) {
		if log != nil {
			p.log = log
		}
	}
}

// New validates opts and returns a Pipeline. Validation failures surface
// here, before any network activity.
func New(opts Options, options ...Option) (*Pipeline, error) {
	validated, err := opts.Validate()
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		opts: validated,
		log:  zap.NewNop(),
	}
	p.newClient = func(ctx context.Context) (provider.Uploader, error) {
		return s3.New(ctx, s3.Config{
			Bucket:          validated.Bucket,
			Region:          validated.Region,
			Endpoint:        validated.Endpoint,
			AccessKeyID:     validated.AccessKey,
			SecretAccessKey: validated.SecretKey,
			ForcePathStyle:  validated.ForcePathStyle,
		})
	}

	for _, opt := range options {
		opt(p)
	}
	return p, nil
}

// Run is one in-flight pipeline execution.
type Run struct {
	results chan provider.UploadResult
	done    chan struct{}

	failOnce sync.Once
	err      error
	cancel   context.CancelFunc

	files    atomic.Int64
	dropped  atomic.Int64
	uploaded atomic.Int64
	bytes    atomic.Int64
	duration atomic.Int64
}

// Results streams upload results as they complete. The channel is closed
// when the run finishes; callers must drain it. Completion order is a
// race among concurrent uploads and carries no meaning.
func (r *Run) Results() <-chan provider.UploadResult {
	return r.results
}

// Wait blocks until the run finishes and returns its terminal error:
// nil on full success, otherwise the first fatal extract, filter, or
// upload error (or the caller's context error).
func (r *Run) Wait() error {
	<-r.done
	return r.err
}

// Summary returns the run's counters. Stable once Wait has returned.
func (r *Run) Summary() Summary {
	return Summary{
		FilesSeen:     r.files.Load(),
		Dropped:       r.dropped.Load(),
		Uploaded:      r.uploaded.Load(),
		BytesUploaded: r.bytes.Load(),
		Duration:      time.Duration(r.duration.Load()),
	}
}

// fail records the first fatal error and cancels the run. Later calls
// are no-ops, so the original cause always wins.
func (r *Run) fail(err error) {
	r.failOnce.Do(func() {
		r.err = err
		r.cancel()
	})
}

// Start begins uploading the archive and returns immediately. The
// returned Run streams results; Wait reports the terminal error.
func (p *Pipeline) Start(ctx context.Context, archiveStream io.Reader) *Run {
	ctx, cancel := context.WithCancel(ctx)
	run := &Run{
		results: make(chan provider.UploadResult),
		done:    make(chan struct{}),
		cancel:  cancel,
	}
	go p.execute(ctx, archiveStream, run)
	return run
}

type uploadTask struct {
	key  string
	body *spooledBody
}

func (p *Pipeline) execute(ctx context.Context, src io.Reader, run *Run) {
	start := time.Now()
	defer func() {
		run.duration.Store(int64(time.Since(start)))
		close(run.results)
		close(run.done)
		run.cancel()
	}()

	client, err := p.newClient(ctx)
	if err != nil {
		run.fail(err)
		return
	}
	defer func() { _ = client.Close() }()

	// Upload workers. The work channel is unbuffered: the feeder blocks
	// until a worker is free, which stalls archive decoding and bounds
	// in-flight entries to Concurrency+1.
	workCh := make(chan uploadTask)
	var wg sync.WaitGroup
	for i := 0; i < p.opts.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range workCh {
				p.uploadOne(ctx, client, task, run)
			}
		}()
	}

	p.feed(ctx, src, workCh, run)
	close(workCh)
	wg.Wait()

	if ctx.Err() != nil {
		run.fail(ctx.Err())
	}
}

// feed decodes the archive sequentially, applies the filter in entry
// order, spools surviving bodies, and hands them to the workers.
func (p *Pipeline) feed(ctx context.Context, src io.Reader, workCh chan<- uploadTask, run *Run) {
	var limiter *rate.Limiter
	if p.opts.UploadsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(p.opts.UploadsPerSecond), 1)
	}

	ar := archive.NewReader(src)
	for ar.Scan() {
		if ctx.Err() != nil {
			return
		}

		entry := ar.Entry()
		run.files.Add(1)

		out, err := p.opts.Filter.Transform(ctx, entry)
		if err != nil {
			run.fail(&filter.FilterError{Path: entry.Path, Err: err})
			return
		}
		if out == nil {
			// Dropped by the filter; the decoder discards unread bytes.
			run.dropped.Add(1)
			p.log.Debug("entry dropped", zap.String("path", entry.Path))
			continue
		}

		body, err := newSpooledBody(out.Body, p.opts.SpoolMaxMemoryBytes)
		if err != nil {
			// Mid-entry read failures are archive corruption.
			run.fail(&archive.ExtractError{Path: entry.Path, Err: err})
			return
		}

		if limiter != nil {
			if err := limiter.Wait(ctx); err != nil {
				_ = body.Close()
				return
			}
		}

		task := uploadTask{key: joinKey(p.opts.Prefix, out.Path), body: body}
		select {
		case workCh <- task:
		case <-ctx.Done():
			_ = body.Close()
			return
		}
	}

	if err := ar.Err(); err != nil {
		run.fail(err)
	}
}

func (p *Pipeline) uploadOne(ctx context.Context, client provider.Uploader, task uploadTask, run *Run) {
	defer func() { _ = task.body.Close() }()

	// Tasks already queued when the run failed are discarded unstarted.
	if ctx.Err() != nil {
		return
	}

	res, err := client.Upload(ctx, task.key, task.body.Reader(), task.body.Len())
	if err != nil {
		if ctx.Err() != nil {
			run.fail(ctx.Err())
			return
		}
		p.log.Warn("upload failed", zap.String("key", task.key), zap.Error(err))
		run.fail(&UploadError{Key: task.key, Err: err})
		return
	}

	run.uploaded.Add(1)
	run.bytes.Add(res.Size)
	p.log.Debug("uploaded",
		zap.String("key", res.Key),
		zap.Int64("bytes", res.Size),
	)

	select {
	case run.results <- *res:
	case <-ctx.Done():
	}
}

// joinKey forms the destination key from the configured prefix and an
// entry's relative path, collapsing the separator between them.
func joinKey(prefix, relPath string) string {
	relPath = strings.TrimPrefix(relPath, "/")
	if prefix == "" {
		return relPath
	}
	return strings.TrimSuffix(prefix, "/") + "/" + relPath
}
