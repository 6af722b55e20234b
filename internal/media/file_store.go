package media

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
)

// fileStore implements Store on the local file system.
type fileStore struct {
	dir     string
	baseURL string
	logger  zerolog.Logger
}

// NewFileStore creates a store writing into dir. Objects are served from
// baseURL by whatever serves that directory.
func NewFileStore(dir, baseURL string, logger zerolog.Logger) (Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &fileStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		logger:  logger.With().Str("component", "file-store").Logger(),
	}, nil
}

// Put writes body to <dir>/<name>.
func (s *fileStore) Put(ctx context.Context, name, _ string, body io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(name)
	path := filepath.Join(s.dir, name)

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		s.logger.Error().Err(err).Str("file", path).Msg("failed to create upload file")
		return "", fmt.Errorf("failed to create upload file %s: %w", path, err)
	}

	written, err := io.Copy(file, body)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		s.logger.Error().Err(err).Str("file", path).Msg("failed to write upload file")
		return "", fmt.Errorf("failed to write upload file %s: %w", path, err)
	}

	s.logger.Info().
		Str("file", path).
		Int64("bytes", written).
		Msg("upload stored on local file system")

	return s.baseURL + "/" + name, nil
}
