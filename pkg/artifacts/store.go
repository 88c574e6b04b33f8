// Package artifacts keeps exported measurement protocols on disk, addressed
// by the BLAKE2b-256 digest of their content, and issues signed download
// links for them.
package artifacts

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"

	"github.com/AndreasQService/QToolKlone-sub000/pkg/models"
)

// ErrNotFound is returned for unknown digests
var ErrNotFound = errors.New("artifact not found")

// Store is a content-addressed artifact directory. Each artifact is stored
// as <digest> with a <digest>.json sidecar holding its name and type.
type Store struct {
	dir    string
	logger *zap.Logger
}

// NewStore opens or creates the artifact directory
func NewStore(dir string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Digest returns the hex BLAKE2b-256 digest of data
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// Put stores data and returns its reference. Storing identical content
// twice keeps one copy; the latest name wins.
func (s *Store) Put(name, contentType string, data []byte) (models.ArtifactRef, error) {
	ref := models.ArtifactRef{
		Name:        name,
		ContentType: contentType,
		Digest:      Digest(data),
		Size:        int64(len(data)),
	}

	if err := writeAtomic(s.blobPath(ref.Digest), data); err != nil {
		return models.ArtifactRef{}, fmt.Errorf("failed to store artifact: %w", err)
	}

	meta, err := json.Marshal(ref)
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("failed to marshal artifact metadata: %w", err)
	}
	if err := writeAtomic(s.metaPath(ref.Digest), meta); err != nil {
		return models.ArtifactRef{}, fmt.Errorf("failed to store artifact metadata: %w", err)
	}

	s.logger.Debug("Stored artifact", zap.String("digest", ref.Digest), zap.String("name", name), zap.Int64("size", ref.Size))
	return ref, nil
}

// Stat returns the reference of a stored artifact
func (s *Store) Stat(digest string) (models.ArtifactRef, error) {
	if !validDigest(digest) {
		return models.ArtifactRef{}, ErrNotFound
	}

	data, err := os.ReadFile(s.metaPath(digest))
	if errors.Is(err, os.ErrNotExist) {
		return models.ArtifactRef{}, ErrNotFound
	}
	if err != nil {
		return models.ArtifactRef{}, fmt.Errorf("failed to read artifact metadata: %w", err)
	}

	var ref models.ArtifactRef
	if err := json.Unmarshal(data, &ref); err != nil {
		return models.ArtifactRef{}, fmt.Errorf("failed to parse artifact metadata: %w", err)
	}
	return ref, nil
}

// Open returns the content of a stored artifact. The caller closes it.
func (s *Store) Open(digest string) (io.ReadSeekCloser, models.ArtifactRef, error) {
	ref, err := s.Stat(digest)
	if err != nil {
		return nil, models.ArtifactRef{}, err
	}

	f, err := os.Open(s.blobPath(digest))
	if errors.Is(err, os.ErrNotExist) {
		return nil, models.ArtifactRef{}, ErrNotFound
	}
	if err != nil {
		return nil, models.ArtifactRef{}, fmt.Errorf("failed to open artifact: %w", err)
	}
	return f, ref, nil
}

func (s *Store) blobPath(digest string) string {
	return filepath.Join(s.dir, digest)
}

func (s *Store) metaPath(digest string) string {
	return filepath.Join(s.dir, digest+".json")
}

// validDigest rejects anything that is not a hex BLAKE2b-256 digest, which
// also keeps path separators out of file names
func validDigest(digest string) bool {
	if len(digest) != 2*blake2b.Size256 {
		return false
	}
	_, err := hex.DecodeString(digest)
	return err == nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
