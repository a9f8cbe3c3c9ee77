// Package file reads transactions from a JSON document on disk.
package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"

	"rewards/internal/core"
	"rewards/internal/source"
)

// Source re-reads the file on every Load so edits show up without a restart.
type Source struct {
	path string
}

var _ source.TransactionSource = (*Source)(nil)

func New(path string) *Source {
	return &Source{path: path}
}

func (s *Source) Name() string { return "file:" + s.path }

// Path returns the file being read.
func (s *Source) Path() string { return s.path }

// Load decodes the file. A missing or unreadable file wraps
// source.ErrSourceUnavailable; a malformed one wraps source.ErrMalformedDocument.
func (s *Source) Load(ctx context.Context) ([]core.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s does not exist", source.ErrSourceUnavailable, s.path)
		}
		return nil, fmt.Errorf("%w: %v", source.ErrSourceUnavailable, err)
	}
	defer f.Close()

	txs, err := source.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return txs, nil
}
