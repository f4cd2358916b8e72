// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package download streams APKs from HTTP servers into the cache directory.
package download

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"mime"
	"net"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/SnowMediaEnt/snow-media-center/internal/cache"
	"github.com/SnowMediaEnt/snow-media-center/internal/chunkenc"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// Base64Suffix is appended to artifacts written with the base64 encoding.
const Base64Suffix = ".b64"

const partSuffix = ".part"

// Options configures a Streamer.
type Options struct {
	Native       bool
	Timeout      time.Duration
	ProgressStep int
	FallbackSize int64
	ChunkSize    int
	Encoding     string
	UserAgent    string
}

// OptionsFromConfig maps download settings onto streamer options.
func OptionsFromConfig(cfg config.DownloadConfig, native bool) Options {
	return Options{
		Native:       native,
		Timeout:      cfg.Timeout.Duration,
		ProgressStep: cfg.ProgressStep,
		FallbackSize: domain.ParseSize(cfg.FallbackSize),
		ChunkSize:    cfg.ChunkSize,
		Encoding:     cfg.Encoding,
		UserAgent:    cfg.UserAgent,
	}
}

// Request describes one download.
type Request struct {
	URL          string
	FileName     string
	DeclaredSize int64
	// Alive is consulted before every progress report and read. Once it
	// returns false the download stops with ErrDownloadCancelled.
	Alive func() bool
	// Observe, when set, receives byte counts alongside each progress report.
	Observe func(received, total int64)
}

// Result describes a durable artifact.
type Result struct {
	FileName    string
	Path        string
	URI         string
	Bytes       int64
	SHA256      string
	Encoding    string
	ContentType string
	Duration    time.Duration
}

// Streamer downloads binaries with bounded memory.
type Streamer struct {
	client *resty.Client
	cache  *cache.Manager
	opts   Options
	logger zerolog.Logger
}

// NewStreamer creates a streamer writing into cacheManager.
func NewStreamer(cacheManager *cache.Manager, opts Options, logger zerolog.Logger) *Streamer {
	if opts.Timeout <= 0 {
		opts.Timeout = 180 * time.Second
	}

	if opts.ProgressStep < 1 {
		opts.ProgressStep = 2
	}

	if opts.FallbackSize <= 0 {
		opts.FallbackSize = 28_000_000
	}

	if opts.ChunkSize < 3 {
		opts.ChunkSize = chunkenc.DefaultChunkSize
	}

	if opts.Encoding == "" {
		opts.Encoding = config.EncodingBinary
	}

	logger = logger.With().Str("component", "download").Logger()

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetRetryCount(0).
		SetLogger(restyLogger{logger}).
		SetHeader("Accept", "application/vnd.android.package-archive, application/octet-stream;q=0.9, */*;q=0.1")

	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}

	return &Streamer{
		client: client,
		cache:  cacheManager,
		opts:   opts,
		logger: logger,
	}
}

// NormalizeURL prefixes https:// when the locator has no scheme.
func NormalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	return "https://" + strings.TrimPrefix(raw, "//")
}

// Download fetches req.URL into the cache directory, reporting progress.
// On success exactly one durable file named after req.FileName exists and
// 100 has been reported last.
func (s *Streamer) Download(ctx context.Context, req Request, onProgress domain.ProgressFunc) (*Result, error) {
	if !s.opts.Native {
		return nil, domain.ErrPlatformUnsupported
	}

	if strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.FileName) == "" {
		return nil, fmt.Errorf("%w: download url and file name are required", domain.ErrInvalidArgument)
	}

	started := time.Now()
	url := NormalizeURL(req.URL)
	finalName := req.FileName

	if s.opts.Encoding == config.EncodingBase64 {
		finalName += Base64Suffix
	}

	alive := func() bool {
		return ctx.Err() == nil && (req.Alive == nil || req.Alive())
	}

	if err := s.cache.EnsureDirectory(); err != nil {
		return nil, err
	}

	unlock, err := s.cache.TryLock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	// Old artifacts go before the first byte of the new one is written.
	if _, err := s.cache.Cleanup(""); err != nil {
		s.logger.Warn().Err(err).Msg("cache cleanup before download incomplete")
	}

	s.logger.Info().Str("url", url).Str("file", finalName).Msg("starting download")

	resp, err := s.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return nil, classify(ctx, req.Alive, err)
	}

	body := resp.RawBody()
	defer func() {
		_ = body.Close()
	}()

	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &domain.HTTPStatusError{StatusCode: resp.StatusCode(), Status: resp.Status()}
	}

	contentType := resp.Header().Get("Content-Type")
	if isMarkupType(contentType) {
		return nil, fmt.Errorf("%w: server sent %s", domain.ErrUnexpectedContentType, contentType)
	}

	var total int64
	if resp.RawResponse != nil && resp.RawResponse.ContentLength > 0 {
		total = resp.RawResponse.ContentLength
	}

	estimate := req.DeclaredSize
	if estimate <= 0 {
		estimate = s.opts.FallbackSize
	}

	tracker := NewTracker(total, estimate, s.opts.ProgressStep, onProgress).
		WithLiveness(alive).
		WithObserver(req.Observe)

	finalPath := s.cache.Path(finalName)
	partPath := finalPath + partSuffix

	written, digest, err := s.stream(ctx, req.Alive, body, partPath, tracker, needsSniff(contentType))
	if err != nil {
		_ = os.Remove(partPath)

		return nil, err
	}

	if err := os.Rename(partPath, finalPath); err != nil {
		_ = os.Remove(partPath)

		return nil, fmt.Errorf("failed to finalize %s: %w", finalName, err)
	}

	uri, err := s.cache.ResolveURI(finalName)
	if err != nil {
		return nil, err
	}

	tracker.Complete()

	result := &Result{
		FileName:    finalName,
		Path:        finalPath,
		URI:         uri,
		Bytes:       written,
		SHA256:      digest,
		Encoding:    s.opts.Encoding,
		ContentType: contentType,
		Duration:    time.Since(started),
	}

	s.logger.Info().
		Str("file", finalName).
		Int64("bytes", written).
		Dur("duration", result.Duration).
		Msg("download complete")

	return result, nil
}

// stream copies body into path through a single bounded buffer and makes
// the file durable before returning.
func (s *Streamer) stream(ctx context.Context, aliveFn func() bool, body io.Reader, path string, tracker *Tracker, sniff bool) (int64, string, error) {
	// #nosec G304 - path is inside the cache directory
	file, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	defer func() {
		_ = file.Close()
	}()

	var (
		sink    io.Writer = file
		encoder *chunkenc.Writer
		hasher  hash.Hash = sha256.New()
		buf               = make([]byte, s.opts.ChunkSize)
		written int64
		sniffed = !sniff
	)

	if s.opts.Encoding == config.EncodingBase64 {
		encoder = chunkenc.NewWriter(file, s.opts.ChunkSize)
		sink = encoder
	}

	for {
		if ctx.Err() != nil || (aliveFn != nil && !aliveFn()) {
			return 0, "", classify(ctx, aliveFn, ctx.Err())
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if !sniffed {
				sniffed = true

				if detected := mimetype.Detect(buf[:n]); isMarkup(detected) {
					return 0, "", fmt.Errorf("%w: body looks like %s", domain.ErrUnexpectedContentType, detected.String())
				}
			}

			if _, err := sink.Write(buf[:n]); err != nil {
				return 0, "", fmt.Errorf("failed to write %s: %w", path, err)
			}

			_, _ = hasher.Write(buf[:n])
			written += int64(n)
			tracker.Add(int64(n))
		}

		if errors.Is(readErr, io.EOF) {
			break
		}

		if readErr != nil {
			return 0, "", classify(ctx, aliveFn, readErr)
		}
	}

	if encoder != nil {
		if err := encoder.Close(); err != nil {
			return 0, "", fmt.Errorf("failed to flush %s: %w", path, err)
		}
	}

	if err := file.Sync(); err != nil {
		return 0, "", fmt.Errorf("failed to sync %s: %w", path, err)
	}

	if err := file.Close(); err != nil {
		return 0, "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return written, hex.EncodeToString(hasher.Sum(nil)), nil
}

// classify maps transport errors onto the download error taxonomy.
func classify(ctx context.Context, aliveFn func() bool, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) || (aliveFn != nil && !aliveFn()) {
		return fmt.Errorf("%w: %w", domain.ErrDownloadCancelled, context.Canceled)
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("%w: %w", domain.ErrDownloadTimeout, err)
	}

	return fmt.Errorf("%w: %w", domain.ErrDownloadFailed, err)
}

func isMarkupType(contentType string) bool {
	if contentType == "" {
		return false
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}

	switch mediaType {
	case "text/html", "text/plain", "application/json", "application/xml", "text/xml", "application/xhtml+xml":
		return true
	default:
		return false
	}
}

// needsSniff reports whether the declared type is too generic to trust.
// An explicit archive type is taken at its word.
func needsSniff(contentType string) bool {
	if contentType == "" {
		return true
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return true
	}

	switch mediaType {
	case "application/octet-stream", "binary/octet-stream", "application/download",
		"application/x-download", "application/force-download", "application/unknown":
		return true
	default:
		return false
	}
}

// markupTypes are the error page shapes a misconfigured server sends
// instead of an APK.
var markupTypes = []string{
	"text/html",
	"application/xhtml+xml",
	"text/xml",
	"application/xml",
	"application/json",
}

// isMarkup reports whether the sniffed type is, or descends from, a markup
// or structured error type. Plain text alone is not enough.
func isMarkup(detected *mimetype.MIME) bool {
	for m := detected; m != nil; m = m.Parent() {
		for _, markup := range markupTypes {
			if m.Is(markup) {
				return true
			}
		}
	}

	return false
}

// restyLogger routes resty diagnostics into zerolog.
type restyLogger struct {
	logger zerolog.Logger
}

func (l restyLogger) Errorf(format string, v ...interface{}) {
	l.logger.Error().Msgf(format, v...)
}

func (l restyLogger) Warnf(format string, v ...interface{}) {
	l.logger.Warn().Msgf(format, v...)
}

func (l restyLogger) Debugf(format string, v ...interface{}) {
	l.logger.Debug().Msgf(format, v...)
}
