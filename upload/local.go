package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Local writes files below Root as <prefix>/yyyy/mm/<uuid><ext>.
type Local struct {
	Root    string
	Prefix  string
	BaseURL string
	Now     func() time.Time
}

func (l *Local) Name() string { return "local" }

func (l *Local) Save(ctx context.Context, r io.Reader, ext, kind string) (string, error) {
	now := time.Now
	if l.Now != nil {
		now = l.Now
	}
	t := now().UTC()

	prefix := path.Clean("/" + filepath.ToSlash(l.Prefix))[1:]
	rel := path.Join(prefix, fmt.Sprintf("%04d", t.Year()), fmt.Sprintf("%02d", int(t.Month())), uuid.NewString()+ext)
	dst := filepath.Join(l.Root, filepath.FromSlash(rel))

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", errors.Join(err, os.Remove(dst))
	}
	if err := f.Close(); err != nil {
		return "", err
	}
	return strings.TrimRight(l.BaseURL, "/") + "/" + rel, nil
}
