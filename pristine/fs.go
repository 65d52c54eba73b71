package pristine

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/klauspost/compress/zstd"

	"github.com/nanowc/wcedit/checksum"
)

// FSStore is a filesystem-backed Store rooted at a single directory
// (typically the administrative area's pristine subdirectory). Text bases
// are stored zstd-compressed, named by their checksum.
type FSStore struct {
	root string
}

// NewFSStore creates an FSStore rooted at root. The directory is created if
// it does not already exist.
func NewFSStore(root string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("pristine: create store root: %w", err)
	}
	return &FSStore{root: root}, nil
}

func (s *FSStore) pathFor(sum checksum.Checksum) string {
	hex := sum.String()
	// Two-level fan-out keeps any one directory from accumulating every
	// text base the working copy has ever seen.
	return filepath.Join(s.root, hex[:2], hex[2:]+".zst")
}

func (s *FSStore) Has(ctx context.Context, sum checksum.Checksum) (bool, error) {
	_, err := os.Stat(s.pathFor(sum))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("pristine: stat: %w", err)
	}
	return true, nil
}

func (s *FSStore) Open(ctx context.Context, sum checksum.Checksum) (io.ReadCloser, error) {
	f, err := os.Open(s.pathFor(sum))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", sum, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("pristine: open: %w", err)
	}

	dec, err := zstd.NewReader(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("pristine: init decoder: %w", err)
	}
	return &decodingReadCloser{dec: dec, f: f}, nil
}

type decodingReadCloser struct {
	dec *zstd.Decoder
	f   *os.File
}

func (d *decodingReadCloser) Read(p []byte) (int, error) {
	return d.dec.Read(p)
}

func (d *decodingReadCloser) Close() error {
	d.dec.Close()
	return d.f.Close()
}

func (s *FSStore) NewWriter(ctx context.Context) (Writer, error) {
	stagingDir := filepath.Join(s.root, "tmp")
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return nil, fmt.Errorf("pristine: create staging dir: %w", err)
	}

	stagingPath := filepath.Join(stagingDir, uuid.NewString()+".tmp")
	f, err := os.OpenFile(stagingPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pristine: open staging file: %w", err)
	}

	enc, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		os.Remove(stagingPath)
		return nil, fmt.Errorf("pristine: init encoder: %w", err)
	}

	return &fsWriter{
		store:       s,
		f:           f,
		enc:         enc,
		stagingPath: stagingPath,
		hasher:      checksum.NewHasher(),
	}, nil
}

type fsWriter struct {
	store       *FSStore
	f           *os.File
	enc         *zstd.Encoder
	stagingPath string
	hasher      *checksum.Hasher
	done        bool
}

func (w *fsWriter) Write(p []byte) (int, error) {
	if _, err := w.hasher.Write(p); err != nil {
		return 0, err
	}
	return w.enc.Write(p)
}

func (w *fsWriter) Close() (checksum.Checksum, error) {
	if w.done {
		return checksum.Checksum{}, fmt.Errorf("pristine: writer already finalized")
	}
	w.done = true

	if err := w.enc.Close(); err != nil {
		w.f.Close()
		os.Remove(w.stagingPath)
		return checksum.Checksum{}, fmt.Errorf("pristine: finalize encoder: %w", err)
	}
	if err := w.f.Close(); err != nil {
		os.Remove(w.stagingPath)
		return checksum.Checksum{}, fmt.Errorf("pristine: close staging file: %w", err)
	}

	sum := w.hasher.Sum()
	dest := w.store.pathFor(sum)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		os.Remove(w.stagingPath)
		return checksum.Checksum{}, fmt.Errorf("pristine: create fan-out dir: %w", err)
	}

	if err := os.Rename(w.stagingPath, dest); err != nil {
		os.Remove(w.stagingPath)
		return checksum.Checksum{}, fmt.Errorf("pristine: install text base: %w", err)
	}

	return sum, nil
}

func (w *fsWriter) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	w.enc.Close()
	w.f.Close()
	return os.Remove(w.stagingPath)
}

func (s *FSStore) Remove(ctx context.Context, sum checksum.Checksum) error {
	err := os.Remove(s.pathFor(sum))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
