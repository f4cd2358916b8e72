// SPDX-FileCopyrightText: 2025 The Snow Media Center Authors
// SPDX-License-Identifier: EUPL-1.2

// Package chunkenc encodes binary data to standard base64 in bounded
// windows. Output is byte-identical to a single-shot encode because every
// window is cut on a 3-byte boundary and any remainder is carried into the
// next write.
package chunkenc

import (
	"encoding/base64"
	"fmt"
	"io"
	"strings"
)

// DefaultChunkSize is the encoding window used when none is configured.
const DefaultChunkSize = 8190

// AlignChunkSize rounds size down to a multiple of 3, with a minimum of 3.
func AlignChunkSize(size int) int {
	if size < 3 {
		return 3
	}

	return size - size%3
}

// EncodeChunked returns the standard base64 encoding of data, working
// through it chunkSize bytes at a time.
func EncodeChunked(data []byte, chunkSize int) string {
	chunkSize = AlignChunkSize(chunkSize)

	var out strings.Builder

	out.Grow(base64.StdEncoding.EncodedLen(len(data)))

	buf := make([]byte, base64.StdEncoding.EncodedLen(chunkSize))

	for start := 0; start < len(data); start += chunkSize {
		end := min(start+chunkSize, len(data))
		n := base64.StdEncoding.EncodedLen(end - start)
		base64.StdEncoding.Encode(buf[:n], data[start:end])
		out.Write(buf[:n])
	}

	return out.String()
}

// Writer streams base64 text to an underlying writer. At most two input
// bytes are held between calls; Close flushes them with padding.
type Writer struct {
	w         io.Writer
	chunkSize int
	carry     [2]byte
	carryLen  int
	buf       []byte
	written   int64
	closed    bool
}

// NewWriter returns a Writer encoding in windows of chunkSize input bytes.
func NewWriter(w io.Writer, chunkSize int) *Writer {
	chunkSize = AlignChunkSize(chunkSize)

	return &Writer{
		w:         w,
		chunkSize: chunkSize,
		buf:       make([]byte, base64.StdEncoding.EncodedLen(chunkSize)),
	}
}

// Write encodes p. It reports len(p) on success even though up to two
// bytes may be held back until the next Write or Close.
func (e *Writer) Write(p []byte) (int, error) {
	if e.closed {
		return 0, fmt.Errorf("chunkenc: write after close")
	}

	consumed := len(p)

	if e.carryLen > 0 {
		need := 3 - e.carryLen
		if len(p) < need {
			copy(e.carry[e.carryLen:], p)
			e.carryLen += len(p)

			return consumed, nil
		}

		var head [3]byte

		copy(head[:], e.carry[:e.carryLen])
		copy(head[e.carryLen:], p[:need])
		p = p[need:]
		e.carryLen = 0

		if err := e.emit(head[:]); err != nil {
			return 0, err
		}
	}

	for len(p) >= 3 {
		n := min(len(p), e.chunkSize)
		n -= n % 3

		if err := e.emit(p[:n]); err != nil {
			return 0, err
		}

		p = p[n:]
	}

	e.carryLen = copy(e.carry[:], p)

	return consumed, nil
}

// Close flushes any carried bytes. It does not close the underlying writer.
func (e *Writer) Close() error {
	if e.closed {
		return nil
	}

	e.closed = true

	if e.carryLen == 0 {
		return nil
	}

	err := e.emit(e.carry[:e.carryLen])
	e.carryLen = 0

	return err
}

// Written returns the number of encoded bytes written so far.
func (e *Writer) Written() int64 {
	return e.written
}

func (e *Writer) emit(p []byte) error {
	n := base64.StdEncoding.EncodedLen(len(p))
	base64.StdEncoding.Encode(e.buf[:n], p)

	written, err := e.w.Write(e.buf[:n])
	e.written += int64(written)

	if err != nil {
		return fmt.Errorf("chunkenc: %w", err)
	}

	return nil
}

// NewDecoder returns a reader that decodes base64 text from r.
func NewDecoder(r io.Reader) io.Reader {
	return base64.NewDecoder(base64.StdEncoding, r)
}

// DecodedLen returns the number of bytes encoded by a padded base64 text.
func DecodedLen(encoded []byte) int {
	n := len(encoded)
	if n == 0 {
		return 0
	}

	size := n / 4 * 3

	if encoded[n-1] == '=' {
		size--
	}

	if n > 1 && encoded[n-2] == '=' {
		size--
	}

	return size
}
