// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package download

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SnowMediaEnt/snow-media-center/internal/cache"
	"github.com/SnowMediaEnt/snow-media-center/internal/chunkenc"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// patternReader yields n deterministic binary bytes.
type patternReader struct {
	n   int64
	off int64
}

func (p *patternReader) Read(b []byte) (int, error) {
	if p.off >= p.n {
		return 0, io.EOF
	}

	count := min(int64(len(b)), p.n-p.off)
	for i := range count {
		b[i] = byte((p.off + i) % 251)
	}

	p.off += count

	return int(count), nil
}

func patternDigest(n int64) string {
	h := sha256.New()
	_, _ = io.Copy(h, &patternReader{n: n})

	return hex.EncodeToString(h.Sum(nil))
}

func binaryHandler(size int64, declareLength bool) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.android.package-archive")

		if declareLength {
			w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		}

		w.WriteHeader(http.StatusOK)

		if flusher, ok := w.(http.Flusher); ok && !declareLength {
			flusher.Flush()
		}

		_, _ = io.Copy(w, &patternReader{n: size})
	}
}

func newTestStreamer(t *testing.T, opts Options) (*Streamer, *cache.Manager) {
	t.Helper()

	manager := cache.NewManager(t.TempDir(), "apk", zerolog.Nop())
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}

	opts.Native = true

	return NewStreamer(manager, opts, zerolog.Nop()), manager
}

func TestStreamer_KnownLength(t *testing.T) {
	t.Parallel()

	const size = 5_000_000

	server := httptest.NewServer(binaryHandler(size, true))
	t.Cleanup(server.Close)

	streamer, manager := newTestStreamer(t, Options{ProgressStep: 2})
	rec := &recorder{}

	result, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "plex-1.0.apk"}, rec.report)
	require.NoError(t, err)

	assertProgressContract(t, rec.values, KnownSizeCap)
	assert.Equal(t, int64(size), result.Bytes)
	assert.Equal(t, patternDigest(size), result.SHA256)
	assert.Equal(t, filepath.Join(manager.Dir(), "plex-1.0.apk"), result.Path)
	assert.Contains(t, result.URI, "file://")

	info, err := os.Stat(result.Path)
	require.NoError(t, err)
	assert.Equal(t, int64(size), info.Size())

	_, err = os.Stat(result.Path + partSuffix)
	assert.True(t, os.IsNotExist(err), "temporary file must be gone")
}

func TestStreamer_UnknownLength30MB(t *testing.T) {
	t.Parallel()

	app := domain.App{ID: "cinema", Name: "Cinema HD", Version: "3.0", Size: "30MB"}
	size := app.SizeBytes()
	require.Equal(t, int64(30_000_000), size)

	server := httptest.NewServer(binaryHandler(size, false))
	t.Cleanup(server.Close)

	for _, encoding := range []string{config.EncodingBinary, config.EncodingBase64} {
		t.Run(encoding, func(t *testing.T) {
			t.Parallel()

			streamer, manager := newTestStreamer(t, Options{ProgressStep: 2, Encoding: encoding, ChunkSize: 8192})
			rec := &recorder{}

			result, err := streamer.Download(context.Background(), Request{
				URL:          server.URL,
				FileName:     app.FileName(),
				DeclaredSize: size,
			}, rec.report)
			require.NoError(t, err)

			assertProgressContract(t, rec.values, UnknownSizeCap)
			assert.Equal(t, size, result.Bytes)

			file, err := os.Open(result.Path)
			require.NoError(t, err)

			t.Cleanup(func() { _ = file.Close() })

			var reader io.Reader = file
			if encoding == config.EncodingBase64 {
				reader = chunkenc.NewDecoder(file)
			}

			decoded, err := io.Copy(io.Discard, reader)
			require.NoError(t, err)
			assert.Equal(t, size, decoded)

			materialized, err := Materialize(manager, result)
			require.NoError(t, err)
			assert.Equal(t, app.FileName(), materialized.FileName)
			assert.Equal(t, size, materialized.Bytes)

			entries, err := manager.List()
			require.NoError(t, err)
			require.Len(t, entries, 1)
			assert.Equal(t, app.FileName(), entries[0].Name)
		})
	}
}

func TestStreamer_Failures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    error
	}{
		{
			name: "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				http.Error(w, "gone", http.StatusNotFound)
			},
			want: domain.ErrDownloadFailed,
		},
		{
			name: "html content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				_, _ = io.WriteString(w, "<html><body>Please log in</body></html>")
			},
			want: domain.ErrUnexpectedContentType,
		},
		{
			name: "html body behind binary content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/octet-stream")
				_, _ = io.WriteString(w, "<!DOCTYPE html><html><head><title>Error</title></head><body>quota exceeded</body></html>")
			},
			want: domain.ErrUnexpectedContentType,
		},
		{
			name: "json error without content type",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.Header()["Content-Type"] = nil
				_, _ = io.WriteString(w, `{"error":"file not found","code":404}`)
			},
			want: domain.ErrUnexpectedContentType,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(testCase.handler)
			t.Cleanup(server.Close)

			streamer, manager := newTestStreamer(t, Options{})
			rec := &recorder{}

			_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "x-1.apk"}, rec.report)
			require.ErrorIs(t, err, testCase.want)
			assert.NotContains(t, rec.values, 100)

			entries, err := manager.List()
			require.NoError(t, err)
			assert.Empty(t, entries, "failed downloads leave no artifacts")
		})
	}
}

func TestStreamer_TextLikeBodiesAccepted(t *testing.T) {
	t.Parallel()

	ascii := bytes.Repeat([]byte("x"), 1<<20)

	tests := []struct {
		name        string
		contentType string
		chunks      [][]byte
	}{
		{
			name:        "ascii body declared as apk",
			contentType: "application/vnd.android.package-archive",
			chunks:      [][]byte{ascii},
		},
		{
			name:        "ascii body declared as octet-stream",
			contentType: "application/octet-stream",
			chunks:      [][]byte{ascii},
		},
		{
			name:        "zip header split across reads",
			contentType: "application/octet-stream",
			chunks:      [][]byte{[]byte("P"), []byte("K\x03\x04"), ascii[:4096]},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var want []byte
			for _, chunk := range testCase.chunks {
				want = append(want, chunk...)
			}

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", testCase.contentType)
				w.WriteHeader(http.StatusOK)

				for _, chunk := range testCase.chunks {
					_, _ = w.Write(chunk)

					if flusher, ok := w.(http.Flusher); ok {
						flusher.Flush()
					}
				}
			}))
			t.Cleanup(server.Close)

			streamer, _ := newTestStreamer(t, Options{ProgressStep: 2})
			rec := &recorder{}

			result, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "text-1.apk"}, rec.report)
			require.NoError(t, err)
			assert.Equal(t, int64(len(want)), result.Bytes)
			require.NotEmpty(t, rec.values)
			assert.Equal(t, 100, rec.values[len(rec.values)-1])

			got, err := os.ReadFile(result.Path)
			require.NoError(t, err)
			assert.Equal(t, want, got)
		})
	}
}

func TestNeedsSniff(t *testing.T) {
	t.Parallel()

	tests := []struct {
		contentType string
		want        bool
	}{
		{"", true},
		{"application/octet-stream", true},
		{"binary/octet-stream; charset=binary", true},
		{"not a media type;;", true},
		{"application/vnd.android.package-archive", false},
		{"application/zip", false},
	}

	for _, testCase := range tests {
		assert.Equal(t, testCase.want, needsSniff(testCase.contentType), testCase.contentType)
	}
}

func TestIsMarkup(t *testing.T) {
	t.Parallel()

	assert.True(t, isMarkup(mimetype.Detect([]byte("<!DOCTYPE html><html><body>denied</body></html>"))))
	assert.True(t, isMarkup(mimetype.Detect([]byte(`<?xml version="1.0"?><Error><Code>AccessDenied</Code></Error>`))))
	assert.True(t, isMarkup(mimetype.Detect([]byte(`{"error":"expired"}`))))
	assert.False(t, isMarkup(mimetype.Detect(bytes.Repeat([]byte("x"), 512))))
	assert.False(t, isMarkup(mimetype.Detect([]byte("P"))))
	assert.False(t, isMarkup(mimetype.Detect([]byte("PK\x03\x04\x14\x00\x08\x00"))))
}

func TestStreamer_StatusDetail(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	streamer, _ := newTestStreamer(t, Options{})

	_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "x.apk"}, nil)

	var statusErr *domain.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
}

func TestStreamer_Timeout(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(5 * time.Second):
		}
	}))
	t.Cleanup(server.Close)

	streamer, _ := newTestStreamer(t, Options{Timeout: 100 * time.Millisecond})

	_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "x.apk"}, nil)
	require.ErrorIs(t, err, domain.ErrDownloadTimeout)
}

func TestStreamer_CancelStopsReports(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(binaryHandler(20_000_000, true))
	t.Cleanup(server.Close)

	streamer, manager := newTestStreamer(t, Options{ProgressStep: 1})

	var alive atomic.Bool
	alive.Store(true)

	reportsAfterClose := 0
	report := func(p int) {
		if !alive.Load() {
			reportsAfterClose++
		}

		if p >= 10 {
			alive.Store(false)
		}
	}

	_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "x.apk", Alive: alive.Load}, report)
	require.ErrorIs(t, err, domain.ErrDownloadCancelled)
	assert.Zero(t, reportsAfterClose)

	entries, err := manager.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestStreamer_PlatformUnsupported(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32

	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		hits.Add(1)
	}))
	t.Cleanup(server.Close)

	manager := cache.NewManager(t.TempDir(), "apk", zerolog.Nop())
	streamer := NewStreamer(manager, Options{Native: false}, zerolog.Nop())

	_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "x.apk"}, nil)
	require.ErrorIs(t, err, domain.ErrPlatformUnsupported)
	assert.Zero(t, hits.Load())
}

func TestStreamer_CleansStaleArtifactsFirst(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(binaryHandler(1024, true))
	t.Cleanup(server.Close)

	streamer, manager := newTestStreamer(t, Options{})
	require.NoError(t, manager.EnsureDirectory())
	require.NoError(t, os.WriteFile(manager.Path("old-1.apk"), []byte("stale"), 0o600))
	require.NoError(t, os.WriteFile(manager.Path("new-2.apk"), []byte("previous copy"), 0o600))

	_, err := streamer.Download(context.Background(), Request{URL: server.URL, FileName: "new-2.apk"}, nil)
	require.NoError(t, err)

	entries, err := manager.List()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "new-2.apk", entries[0].Name)
	assert.Equal(t, int64(1024), entries[0].Size)
}

func TestStreamer_InvalidArguments(t *testing.T) {
	t.Parallel()

	streamer, _ := newTestStreamer(t, Options{})

	_, err := streamer.Download(context.Background(), Request{URL: " ", FileName: "x.apk"}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)

	_, err = streamer.Download(context.Background(), Request{URL: "example.com/x.apk"}, nil)
	require.ErrorIs(t, err, domain.ErrInvalidArgument)
}

func TestNormalizeURL(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://example.com/a.apk", NormalizeURL("example.com/a.apk"))
	assert.Equal(t, "https://example.com/a.apk", NormalizeURL("//example.com/a.apk"))
	assert.Equal(t, "http://example.com/a.apk", NormalizeURL(" http://example.com/a.apk "))
	assert.Equal(t, "https://example.com/a.apk", NormalizeURL("https://example.com/a.apk"))
}

func TestOptionsFromConfig(t *testing.T) {
	t.Parallel()

	opts := OptionsFromConfig(config.Default().Download, true)

	assert.True(t, opts.Native)
	assert.Equal(t, 180*time.Second, opts.Timeout)
	assert.Equal(t, int64(28_000_000), opts.FallbackSize)
	assert.Equal(t, config.EncodingBinary, opts.Encoding)
}
