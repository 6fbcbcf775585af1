package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/oklog/ulid/v2"

	"gym-membership/internal/domain"
	"gym-membership/internal/domain/ports/adapter"
)

var _ adapter.ProofStore = (*LocalProofStore)(nil)

var allowedProofExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".pdf": true,
}

// LocalProofStore keeps payment proofs on disk under dir and returns URLs
// under publicPrefix, which the HTTP server maps back to Open.
type LocalProofStore struct {
	dir          string
	publicPrefix string
	maxBytes     int64
}

func NewLocalProofStore(dir, publicPrefix string, maxBytes int64) (*LocalProofStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create proof dir: %w", err)
	}
	if !strings.HasSuffix(publicPrefix, "/") {
		publicPrefix += "/"
	}
	return &LocalProofStore{dir: dir, publicPrefix: publicPrefix, maxBytes: maxBytes}, nil
}

// Save writes the proof as "<userID>-<ulid><ext>".
func (s *LocalProofStore) Save(ctx context.Context, userID, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedProofExt[ext] {
		return "", fmt.Errorf("proof file type %q: %w", ext, domain.ErrInvalidArgument)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := fmt.Sprintf("%s-%s%s", sanitize(userID), ulid.Make().String(), ext)
	path := filepath.Join(s.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o640)
	if err != nil {
		return "", fmt.Errorf("create proof: %w", err)
	}
	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(f, src)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.maxBytes > 0 && n > s.maxBytes {
		err = fmt.Errorf("proof exceeds %d bytes: %w", s.maxBytes, domain.ErrInvalidArgument)
	}
	if err == nil && n == 0 {
		err = domain.ErrProofRequired
	}
	if err != nil {
		_ = os.Remove(path)
		return "", err
	}
	return s.publicPrefix + name, nil
}

// Open accepts either a bare file name or a URL returned by Save.
func (s *LocalProofStore) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	path, ok := s.path(name)
	if !ok {
		return nil, domain.ErrNotFound
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalProofStore) Delete(ctx context.Context, name string) error {
	path, ok := s.path(name)
	if !ok {
		return domain.ErrNotFound
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove proof: %w", err)
	}
	return nil
}

func (s *LocalProofStore) path(name string) (string, bool) {
	name = strings.TrimPrefix(name, s.publicPrefix)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", false
	}
	return filepath.Join(s.dir, name), true
}

func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		}
		return '_'
	}, s)
}
