// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

package download

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/SnowMediaEnt/snow-media-center/internal/cache"
	"github.com/SnowMediaEnt/snow-media-center/internal/chunkenc"
	"github.com/SnowMediaEnt/snow-media-center/internal/config"
)

// Materialize turns a base64 artifact back into an installable APK next to
// it, removing the text copy. Binary results are returned unchanged.
func Materialize(cacheManager *cache.Manager, result *Result) (*Result, error) {
	if result == nil || result.Encoding != config.EncodingBase64 {
		return result, nil
	}

	apkName := strings.TrimSuffix(result.FileName, Base64Suffix)
	apkPath := cacheManager.Path(apkName)
	partPath := apkPath + partSuffix

	// #nosec G304 - path is inside the cache directory
	src, err := os.Open(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", result.Path, err)
	}

	defer func() {
		_ = src.Close()
	}()

	// #nosec G304 - path is inside the cache directory
	dst, err := os.OpenFile(partPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", partPath, err)
	}

	written, err := io.Copy(dst, chunkenc.NewDecoder(src))
	if err == nil {
		err = dst.Sync()
	}

	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(partPath)

		return nil, fmt.Errorf("failed to decode %s: %w", result.FileName, err)
	}

	if err := os.Rename(partPath, apkPath); err != nil {
		_ = os.Remove(partPath)

		return nil, fmt.Errorf("failed to finalize %s: %w", apkName, err)
	}

	_ = os.Remove(result.Path)

	uri, err := cacheManager.ResolveURI(apkName)
	if err != nil {
		return nil, err
	}

	return &Result{
		FileName:    apkName,
		Path:        apkPath,
		URI:         uri,
		Bytes:       written,
		SHA256:      result.SHA256,
		Encoding:    config.EncodingBinary,
		ContentType: result.ContentType,
		Duration:    result.Duration,
	}, nil
}
