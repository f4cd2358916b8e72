// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package domain

import "time"

// OutputPort defines the interface for presenting command results.
// This is a domain port that adapters implement for different output formats.
type OutputPort interface {
	// Success outputs a success message with optional structured data
	Success(message string, data interface{}) error

	// Error outputs an error message
	Error(message string) error

	// Info outputs an informational message
	Info(message string) error

	// Progress outputs progress information for long-running operations
	Progress(message string) error

	// Table outputs tabular data
	Table(headers []string, rows [][]string) error

	// IsQuiet returns true if output should be suppressed
	IsQuiet() bool
}

// DownloadResult is the outcome of a completed download.
type DownloadResult struct {
	AppID    string        `json:"app_id"`
	FileName string        `json:"file_name"`
	Path     string        `json:"path"`
	URI      string        `json:"uri"`
	Bytes    int64         `json:"bytes"`
	SHA256   string        `json:"sha256"`
	Encoding string        `json:"encoding"`
	Duration time.Duration `json:"duration"`
}

// AppStatus is one row of the status listing.
type AppStatus struct {
	AppID            string    `json:"app_id"`
	Name             string    `json:"name"`
	PackageName      string    `json:"package_name"`
	Installed        bool      `json:"installed"`
	InstalledVersion string    `json:"installed_version,omitempty"`
	CatalogVersion   string    `json:"catalog_version,omitempty"`
	UpdateAvailable  bool      `json:"update_available"`
	Actions          []Action  `json:"actions"`
	CheckedAt        time.Time `json:"checked_at"`
}

// CacheEntry describes one file in the APK cache.
type CacheEntry struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}
