// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chatroom

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/gabriel-vasile/mimetype"

	"github.com/jeranaias/chatspaces/internal/model"
)

// DefaultMaxImageBytes is the attachment size ceiling.
const DefaultMaxImageBytes = 5 * 1024 * 1024

// Compose is the not-yet-sent input of a chatroom.
type Compose struct {
	Text      string
	Image     string // data URI
	ImageName string
}

// Empty reports whether submitting would be rejected.
func (c Compose) Empty() bool {
	return strings.TrimSpace(c.Text) == "" && c.Image == ""
}

// =============================================================================
// IMAGE ATTACHMENT
// =============================================================================

// TooLargeNotice is the message shown when an attachment exceeds maxBytes.
func TooLargeNotice(maxBytes int64) string {
	return fmt.Sprintf("Image too large! Max %s.", humanize.IBytes(uint64(maxBytes)))
}

// EncodeImage validates data as an image no larger than maxBytes and returns
// it as a data URI.
func EncodeImage(data []byte, maxBytes int64) (string, error) {
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", model.ErrImageTooLarge
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		return "", model.ErrNotAnImage
	}
	// Drop parameters such as "; charset=utf-8" for svg
	mediaType, _, _ := strings.Cut(mime.String(), ";")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// ReadImage reads the file at path fully and encodes it with EncodeImage. The
// size is checked before the file is read.
func ReadImage(ctx context.Context, path string, maxBytes int64) (name, uri string, err error) {
	if err := ctx.Err(); err != nil {
		return "", "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", "", fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", "", fmt.Errorf("stat image: %w", err)
	}
	if info.IsDir() {
		return "", "", model.ErrNotAnImage
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return "", "", model.ErrImageTooLarge
	}

	var r io.Reader = f
	if maxBytes > 0 {
		// The file may grow between Stat and Read
		r = io.LimitReader(f, maxBytes+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", fmt.Errorf("read image: %w", err)
	}

	uri, err = EncodeImage(data, maxBytes)
	if err != nil {
		return "", "", err
	}
	return filepath.Base(path), uri, nil
}

// ImageMIME returns the media type of a data URI produced by EncodeImage.
func ImageMIME(uri string) string {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return ""
	}
	mediaType, _, _ := strings.Cut(rest, ";")
	return mediaType
}

// DecodeImage returns the raw bytes of a data URI produced by EncodeImage.
func DecodeImage(uri string) ([]byte, error) {
	_, payload, ok := strings.Cut(uri, ";base64,")
	if !ok {
		return nil, fmt.Errorf("not a base64 data URI")
	}
	return base64.StdEncoding.DecodeString(payload)
}
