// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package catalog loads the list of installable apps from a local file or
// a remote JSON endpoint.
package catalog

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/SnowMediaEnt/snow-media-center/internal/domain"
)

// ErrInvalidCatalog is returned when the payload is not a recognised catalog.
var ErrInvalidCatalog = errors.New("invalid catalog: expected an array or an object with apps")

// Field defaults applied to sparse records.
const (
	DefaultVersion     = "1.0"
	DefaultSize        = "25MB"
	DefaultName        = "Unknown App"
	DefaultDescription = "No description available"
)

// Parse accepts a bare array of apps, an object with an "apps" array, or an
// object keyed by app id. Records missing an id are keyed by their name.
// Later records with an id already seen are dropped.
func Parse(data []byte) ([]domain.App, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidCatalog
	}

	root := gjson.ParseBytes(data)

	var records []gjson.Result

	switch {
	case root.IsArray():
		records = root.Array()
	case root.IsObject() && root.Get("apps").IsArray():
		records = root.Get("apps").Array()
	case root.IsObject():
		root.ForEach(func(_, value gjson.Result) bool {
			records = append(records, value)
			return true
		})
	default:
		return nil, ErrInvalidCatalog
	}

	apps := make([]domain.App, 0, len(records))
	seen := make(map[string]struct{}, len(records))

	for _, record := range records {
		if !record.IsObject() {
			continue
		}

		app := fromRecord(record)
		if _, dup := seen[app.ID]; dup {
			continue
		}

		seen[app.ID] = struct{}{}

		apps = append(apps, app)
	}

	return apps, nil
}

func fromRecord(r gjson.Result) domain.App {
	name := r.Get("name").String()

	id := r.Get("id").String()
	if id == "" {
		id = strings.ToLower(strings.Join(strings.Fields(name), ""))
	}

	if id == "" {
		id = "unknown"
	}

	if name == "" {
		name = DefaultName
	}

	downloadURL := r.Get("apk").String()
	if downloadURL == "" {
		downloadURL = r.Get("downloadUrl").String()
	}

	return domain.App{
		ID:          id,
		Name:        name,
		Version:     stringOr(r.Get("version"), DefaultVersion),
		Size:        stringOr(r.Get("size"), DefaultSize),
		Description: stringOr(r.Get("description"), DefaultDescription),
		Icon:        r.Get("icon").String(),
		DownloadURL: downloadURL,
		PackageName: r.Get("packageName").String(),
		Featured:    r.Get("featured").Bool(),
		Category:    stringOr(r.Get("category"), domain.CategoryStreaming),
	}
}

func stringOr(value gjson.Result, fallback string) string {
	if s := strings.TrimSpace(value.String()); s != "" {
		return s
	}

	return fallback
}

// Categories returns the distinct categories in first-seen order.
func Categories(apps []domain.App) []string {
	var out []string

	seen := make(map[string]struct{})

	for _, app := range apps {
		if _, ok := seen[app.Category]; ok {
			continue
		}

		seen[app.Category] = struct{}{}

		out = append(out, app.Category)
	}

	return out
}

// InCategory filters apps to one category, featured apps first.
func InCategory(apps []domain.App, category string) []domain.App {
	var featured, rest []domain.App

	for _, app := range apps {
		if app.Category != category {
			continue
		}

		if app.Featured {
			featured = append(featured, app)
		} else {
			rest = append(rest, app)
		}
	}

	return append(featured, rest...)
}

// Find returns the app whose id matches ref, falling back to a
// case-insensitive display name match.
func Find(apps []domain.App, ref string) (domain.App, error) {
	for _, app := range apps {
		if app.ID == ref {
			return app, nil
		}
	}

	for _, app := range apps {
		if strings.EqualFold(app.Name, ref) {
			return app, nil
		}
	}

	return domain.App{}, fmt.Errorf("%w: %s", domain.ErrAppNotFound, ref)
}
