// Package artifact copies freshly built artifacts to their published
// locations. The copy stages into a temporary file next to the destination
// and renames into place, so a failed copy never truncates a prior release.
package artifact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	rkerrors "github.com/mflab/relkit/internal/errors"
	"github.com/mflab/relkit/internal/logfields"
)

// Publish copies src to dest, overwriting any prior copy. Returns the sha256
// digest of the published content.
func Publish(src, dest string) (string, error) {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return "", rkerrors.PublishFailed(src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	info, err := in.Stat()
	if err != nil {
		return "", rkerrors.PublishFailed(src, err)
	}
	if info.IsDir() {
		return "", rkerrors.New(rkerrors.CategoryPublish, rkerrors.SeverityFatal, "artifact is a directory").
			WithContext("artifact", src)
	}

	destDir := filepath.Dir(dest)
	if err := os.MkdirAll(destDir, 0o750); err != nil {
		return "", rkerrors.PublishFailed(dest, err)
	}

	tmp, err := os.CreateTemp(destDir, "."+filepath.Base(dest)+".tmp-")
	if err != nil {
		return "", rkerrors.PublishFailed(dest, err)
	}
	tmpName := tmp.Name()
	defer func() {
		// No-op when the rename already happened.
		_ = os.Remove(tmpName)
	}()

	hash := sha256.New()
	if _, err := io.Copy(io.MultiWriter(tmp, hash), in); err != nil {
		_ = tmp.Close()
		return "", rkerrors.PublishFailed(dest, err)
	}
	if err := tmp.Chmod(info.Mode().Perm()); err != nil {
		_ = tmp.Close()
		return "", rkerrors.PublishFailed(dest, err)
	}
	if err := tmp.Close(); err != nil {
		return "", rkerrors.PublishFailed(dest, err)
	}

	if err := os.Rename(tmpName, dest); err != nil {
		return "", rkerrors.PublishFailed(dest, err)
	}

	digest := hex.EncodeToString(hash.Sum(nil))
	slog.Info("Artifact published",
		logfields.Artifact(dest),
		slog.String("sha256", digest),
		slog.Int64("bytes", info.Size()))
	return digest, nil
}

// Digest returns the sha256 digest of a file, for comparing published
// artifacts across runs.
func Digest(path string) (string, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("open artifact: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	hash := sha256.New()
	if _, err := io.Copy(hash, f); err != nil {
		return "", fmt.Errorf("hash artifact: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
