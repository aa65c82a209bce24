package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/3leaps/zipcourier/internal/observability"
	"github.com/3leaps/zipcourier/pkg/archive"
	"github.com/3leaps/zipcourier/pkg/filter"
	"github.com/3leaps/zipcourier/pkg/manifest"
	"github.com/3leaps/zipcourier/pkg/output"
	"github.com/3leaps/zipcourier/pkg/unpack"
)

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Extract a zip stream and upload each file to a bucket",
	Long: `Read a zip archive from a file or stdin and upload every regular file
entry to the destination bucket, streaming results as JSONL records.

Examples:
  zipcourier push --bucket releases --file build.zip
  cat build.zip | zipcourier push --bucket releases --prefix /v2
  zipcourier push --job push.yaml --file build.zip --include '**/*.tar.gz'`,
	RunE: runPush,
}

var (
	pushFile        string
	pushBucket      string
	pushPrefix      string
	pushIncludes    []string
	pushExcludes    []string
	pushConcurrency int
	pushRate        float64
	pushJobPath     string
	pushOutput      string
)

func init() {
	rootCmd.AddCommand(pushCmd)

	pushCmd.Flags().StringVarP(&pushFile, "file", "f", "-", "Zip archive path ('-' for stdin)")
	pushCmd.Flags().StringVarP(&pushBucket, "bucket", "b", "", "Destination bucket")
	pushCmd.Flags().StringVarP(&pushPrefix, "prefix", "p", "/", "Destination key prefix")
	pushCmd.Flags().StringSliceVar(&pushIncludes, "include", nil, "Glob pattern an entry must match (repeatable)")
	pushCmd.Flags().StringSliceVar(&pushExcludes, "exclude", nil, "Glob pattern that drops an entry (repeatable)")
	pushCmd.Flags().IntVar(&pushConcurrency, "concurrency", 0, "Concurrent entry uploads (0 = default)")
	pushCmd.Flags().Float64Var(&pushRate, "uploads-per-second", 0, "Cap on upload starts per second (0 = unlimited)")
	pushCmd.Flags().StringVarP(&pushJobPath, "job", "j", "", "Path to push manifest (YAML)")
	pushCmd.Flags().StringVarP(&pushOutput, "output", "o", "-", "JSONL output destination ('-' for stdout)")
}

// pushSettings is the merged view of flags and manifest for one push job.
type pushSettings struct {
	bucket      string
	prefix      string
	includes    []string
	excludes    []string
	concurrency int
	spoolMax    int64
	rate        float64
}

// mergePush layers flag values over a manifest. A flag wins only when the
// user set it explicitly; otherwise the manifest value (when present)
// applies. changed reports whether a flag was set on the command line.
func mergePush(s pushSettings, m *manifest.PushManifest, changed func(name string) bool) pushSettings {
	if m == nil {
		return s
	}
	if !changed("bucket") && m.Bucket != "" {
		s.bucket = m.Bucket
	}
	if !changed("prefix") && m.Prefix != "" {
		s.prefix = m.Prefix
	}
	if !changed("include") && len(m.Match.Includes) > 0 {
		s.includes = m.Match.Includes
	}
	if !changed("exclude") && len(m.Match.Excludes) > 0 {
		s.excludes = m.Match.Excludes
	}
	if !changed("concurrency") && m.Upload.Concurrency > 0 {
		s.concurrency = m.Upload.Concurrency
	}
	if !changed("uploads-per-second") && m.Upload.UploadsPerSecond > 0 {
		s.rate = m.Upload.UploadsPerSecond
	}
	if m.Upload.SpoolMaxMemoryBytes > 0 {
		s.spoolMax = m.Upload.SpoolMaxMemoryBytes
	}
	return s
}

// buildOptions turns merged settings plus environment credentials into
// validated-ready pipeline options.
func buildOptions(s pushSettings) (unpack.Options, error) {
	var entryFilter filter.Filter
	if len(s.includes) > 0 || len(s.excludes) > 0 {
		glob, err := filter.NewGlob(s.includes, s.excludes)
		if err != nil {
			return unpack.Options{}, err
		}
		entryFilter = glob
	}

	return unpack.Options{
		AccessKey:           viper.GetString("access_key"),
		SecretKey:           viper.GetString("secret_key"),
		Bucket:              s.bucket,
		Prefix:              s.prefix,
		Filter:              entryFilter,
		Region:              viper.GetString("region"),
		Endpoint:            viper.GetString("endpoint"),
		ForcePathStyle:      viper.GetBool("force_path_style"),
		Concurrency:         s.concurrency,
		SpoolMaxMemoryBytes: s.spoolMax,
		UploadsPerSecond:    s.rate,
	}, nil
}

func runPush(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	var m *manifest.PushManifest
	if pushJobPath != "" {
		loaded, err := manifest.Load(pushJobPath)
		if err != nil {
			return exitError(int(foundry.ExitInvalidArgument), "Invalid push manifest", err)
		}
		m = loaded
	}

	settings := mergePush(pushSettings{
		bucket:      pushBucket,
		prefix:      pushPrefix,
		includes:    pushIncludes,
		excludes:    pushExcludes,
		concurrency: pushConcurrency,
		rate:        pushRate,
	}, m, cmd.Flags().Changed)

	opts, err := buildOptions(settings)
	if err != nil {
		return exitError(int(foundry.ExitInvalidArgument), "Invalid match patterns", err)
	}

	pipe, err := unpack.New(opts, unpack.WithLogger(observability.CLILogger))
	if err != nil {
		return exitError(int(foundry.ExitInvalidArgument), "Invalid configuration", err)
	}

	in, closeIn, err := openInput(pushFile)
	if err != nil {
		return exitError(int(foundry.ExitFileNotFound), "Failed to open archive", err)
	}
	defer closeIn()

	out, closeOut, err := openOutput(pushOutput)
	if err != nil {
		return exitError(int(foundry.ExitFileWriteError), "Failed to create output", err)
	}
	defer closeOut()

	jobID := uuid.New().String()
	writer := output.NewJSONLWriter(out, jobID, opts.Bucket)
	defer func() { _ = writer.Close() }()

	observability.CLILogger.Info("Push started",
		zap.String("job_id", jobID),
		zap.String("bucket", opts.Bucket),
		zap.String("prefix", opts.Prefix),
	)

	run := pipe.Start(ctx, in)
	for res := range run.Results() {
		rec := &output.UploadRecord{
			Location:  res.Location,
			Bucket:    res.Bucket,
			Key:       res.Key,
			ETag:      res.ETag,
			SizeBytes: res.Size,
		}
		if werr := writer.WriteUpload(ctx, rec); werr != nil {
			observability.CLILogger.Warn("Failed to write upload record", zap.Error(werr))
		}
	}

	runErr := run.Wait()
	sum := run.Summary()

	// Terminal records still get written after cancellation.
	recCtx := context.WithoutCancel(ctx)
	if runErr != nil {
		_ = writer.WriteError(recCtx, errorRecord(runErr))
	}
	_ = writer.WriteSummary(recCtx, &output.SummaryRecord{
		Files:         sum.FilesSeen,
		Dropped:       sum.Dropped,
		Uploaded:      sum.Uploaded,
		BytesUploaded: sum.BytesUploaded,
		DurationMS:    sum.Duration.Milliseconds(),
		Failed:        runErr != nil,
	})

	if runErr != nil {
		return pushExitError(runErr)
	}

	observability.CLILogger.Info("Push complete",
		zap.String("job_id", jobID),
		zap.Int64("uploaded", sum.Uploaded),
		zap.Int64("bytes", sum.BytesUploaded),
		zap.Duration("duration", sum.Duration),
	)
	return nil
}

// errorRecord maps a terminal pipeline error onto a stage-tagged record.
func errorRecord(err error) *output.ErrorRecord {
	var (
		vErr *unpack.ValidationError
		xErr *archive.ExtractError
		fErr *filter.FilterError
		uErr *unpack.UploadError
	)
	switch {
	case errors.As(err, &vErr):
		return &output.ErrorRecord{Stage: "validate", Message: err.Error()}
	case errors.As(err, &xErr):
		return &output.ErrorRecord{Stage: "extract", Message: err.Error()}
	case errors.As(err, &fErr):
		return &output.ErrorRecord{Stage: "filter", Message: err.Error(), Key: fErr.Path}
	case errors.As(err, &uErr):
		return &output.ErrorRecord{Stage: "upload", Message: err.Error(), Key: uErr.Key}
	default:
		return &output.ErrorRecord{Stage: "pipeline", Message: err.Error()}
	}
}

// pushExitError maps a terminal pipeline error onto a process exit code.
func pushExitError(err error) error {
	var (
		vErr *unpack.ValidationError
		xErr *archive.ExtractError
		fErr *filter.FilterError
	)
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return exitError(int(foundry.ExitSignalInt), "Push cancelled", err)
	case errors.As(err, &vErr), errors.As(err, &fErr):
		return exitError(int(foundry.ExitInvalidArgument), "Push rejected", err)
	case errors.As(err, &xErr):
		return exitError(int(foundry.ExitFileReadError), "Archive decode failed", err)
	default:
		return exitError(int(foundry.ExitExternalServiceUnavailable), "Upload failed", err)
	}
}

func openInput(path string) (io.Reader, func(), error) {
	if path == "" || path == "-" {
		return os.Stdin, func() {}, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { _ = f.Close() }, nil
}

func openOutput(path string) (io.Writer, func(), error) {
	if path == "" || path == "-" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, fmt.Errorf("create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}
