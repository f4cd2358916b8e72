// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import (
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Category tags used by the catalog.
const (
	CategoryStreaming = "streaming"
	CategorySupport   = "support"
	CategoryMedia     = "media"
	CategoryUtility   = "utility"
)

// App describes one installable application in the catalog.
// Apps are produced by the catalog loader and never mutated afterwards.
type App struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Size        string `json:"size"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	DownloadURL string `json:"downloadUrl"`
	PackageName string `json:"packageName"`
	Featured    bool   `json:"featured"`
	Category    string `json:"category"`
}

// knownPackages maps lowercased display names to package identifiers
// that cannot be derived from the name.
var knownPackages = map[string]string{
	"cinema hd":        "com.cinemahdv2",
	"dreamstreams 3.0": "com.dreamstreams.app",
	"vibeztv":          "com.vibeztv.app",
	"plex":             "com.plexapp.android",
	"ipvanish":         "com.ixonn.ipvanish",
	"downloader":       "com.esaba.downloader",
}

// Package returns the resolved package identifier for the app.
func (a App) Package() string {
	return ResolvePackageName(a.Name, a.PackageName)
}

// FileName returns the cache file name the app's APK is stored under.
func (a App) FileName() string {
	return GenerateFileName(a.Name, a.Version)
}

// SizeBytes returns the declared size in bytes, or 0 when it is unknown.
func (a App) SizeBytes() int64 {
	return ParseSize(a.Size)
}

// ResolvePackageName returns the package identifier for an app.
// An explicit identifier wins, then the known table, then a name-derived
// reverse-domain identifier. The result is never empty.
func ResolvePackageName(name, explicit string) string {
	if pkg := strings.TrimSpace(explicit); pkg != "" {
		return pkg
	}

	key := strings.ToLower(strings.Join(strings.Fields(name), " "))
	if pkg, ok := knownPackages[key]; ok {
		return pkg
	}

	sanitized := SanitizeName(name)
	if sanitized == "" {
		sanitized = "unknown"
	}

	return "com." + sanitized + ".app"
}

// GenerateFileName builds "<sanitized name>-<version>.apk", using "latest"
// when no version is known.
func GenerateFileName(name, version string) string {
	sanitized := SanitizeName(name)
	if sanitized == "" {
		sanitized = "app"
	}

	version = strings.TrimSpace(version)
	if version == "" {
		version = "latest"
	}

	version = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || unicode.IsSpace(r) {
			return '_'
		}

		return r
	}, version)

	return sanitized + "-" + version + ".apk"
}

// SanitizeName lowercases a display name, folds accents and drops every
// character outside [a-z0-9].
func SanitizeName(name string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), name)
	if err != nil {
		folded = name
	}

	var b strings.Builder

	for _, r := range strings.ToLower(folded) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// ParseSize converts a human size such as "25MB" to bytes.
// Blank or unparseable values yield 0.
func ParseSize(size string) int64 {
	size = strings.TrimSpace(size)
	if size == "" {
		return 0
	}

	n, err := humanize.ParseBytes(size)
	if err != nil {
		return 0
	}

	return int64(n) //nolint:gosec // APK sizes are far below MaxInt64
}

// FormatSize renders a byte count for display.
func FormatSize(n int64) string {
	if n < 0 {
		n = 0
	}

	return humanize.Bytes(uint64(n))
}
