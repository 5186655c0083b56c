package extraction

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/mholt/archives"
	"github.com/pkg/errors"
)

// ErrTooLarge is returned when the extracted entries exceed the byte limit.
var ErrTooLarge = errors.New("extracted archive exceeds size limit")

// ExtractArchive extracts the entries of a ZIP archive accepted by keep to a
// temporary directory. maxBytes caps the total extracted size; zero means no
// limit. The caller removes destDir when done.
func ExtractArchive(ctx context.Context, archivePath string, keep func(name string) bool, maxBytes int64) ([]string, string, error) {
	destDir, err := os.MkdirTemp("", "extract-*")
	if err != nil {
		return nil, "", err
	}

	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		os.RemoveAll(destDir)
		return nil, "", errors.Wrap(err, "open archive")
	}

	var (
		files   []string
		written int64
	)
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || (keep != nil && !keep(path)) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		reader, err := fsys.Open(path)
		if err != nil {
			return err
		}
		defer reader.Close()

		destPath := filepath.Join(destDir, path)
		if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
			return err
		}

		outFile, err := os.Create(destPath)
		if err != nil {
			return err
		}
		defer outFile.Close()

		var src io.Reader = reader
		if maxBytes > 0 {
			src = io.LimitReader(reader, maxBytes-written+1)
		}
		n, err := io.Copy(outFile, src)
		if err != nil {
			return err
		}
		written += n
		if maxBytes > 0 && written > maxBytes {
			return ErrTooLarge
		}

		files = append(files, destPath)
		return nil
	})
	if err != nil {
		os.RemoveAll(destDir)
		return nil, "", err
	}

	return files, destDir, nil
}

// ExtractBytes writes an in-memory archive to a temporary file and extracts
// it like ExtractArchive.
func ExtractBytes(ctx context.Context, name string, data []byte, keep func(name string) bool, maxBytes int64) ([]string, string, error) {
	tmp, err := os.CreateTemp("", "upload-*"+filepath.Ext(name))
	if err != nil {
		return nil, "", err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return nil, "", errors.Wrap(err, "write archive")
	}
	if err := tmp.Close(); err != nil {
		return nil, "", err
	}
	return ExtractArchive(ctx, tmp.Name(), keep, maxBytes)
}
