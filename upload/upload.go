// Package upload validates user files and hands them to a storage backend.
package upload

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"aiinspire/models"
)

var (
	ErrTypeNotAllowed = errors.New("file type not allowed")
	ErrTooLarge       = errors.New("file too large")
)

const sniffLen = 512

// Backend persists one object and returns its public URL.
type Backend interface {
	Name() string
	Save(ctx context.Context, r io.Reader, ext, kind string) (string, error)
}

type Result struct {
	URL         string `json:"url"`
	Kind        string `json:"kind"`
	Size        int64  `json:"size"`
	ContentType string `json:"contentType"`
	Backend     string `json:"-"`
}

// Inspect sniffs the content type from the head of r and checks it and size
// against limits. The returned reader replays the sniffed bytes.
func Inspect(r io.Reader, size int64, limits models.UploadLimits) (io.Reader, string, string, error) {
	br := bufio.NewReaderSize(r, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, "", "", fmt.Errorf("read upload head: %w", err)
	}
	contentType := http.DetectContentType(head)

	kind, max, ok := limits.Classify(contentType)
	if !ok {
		return nil, contentType, "", fmt.Errorf("%w: %s", ErrTypeNotAllowed, contentType)
	}
	if size > max {
		return nil, contentType, kind, fmt.Errorf("%w: %d bytes, limit %d", ErrTooLarge, size, max)
	}
	return br, contentType, kind, nil
}

// Extension picks a file extension, preferring the client filename when it
// agrees with the sniffed type.
func Extension(filename, contentType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext != "" {
		if t := mime.TypeByExtension(ext); t != "" && strings.HasPrefix(t, strings.SplitN(contentType, ";", 2)[0]) {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// Store validates r and saves it through b.
func Store(ctx context.Context, b Backend, r io.Reader, filename string, size int64, limits models.UploadLimits) (*Result, error) {
	body, contentType, kind, err := Inspect(r, size, limits)
	if err != nil {
		return nil, err
	}
	url, err := b.Save(ctx, body, Extension(filename, contentType), kind)
	if err != nil {
		return nil, fmt.Errorf("%s save: %w", b.Name(), err)
	}
	return &Result{URL: url, Kind: kind, Size: size, ContentType: contentType, Backend: b.Name()}, nil
}
