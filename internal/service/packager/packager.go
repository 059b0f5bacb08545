package packager

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/zip"

	"github.com/avgplus/avg-release/internal/domain/release"
	"github.com/avgplus/avg-release/internal/logger"
)

// Archive describes a written release archive.
type Archive struct {
	// Path is the archive file.
	Path string
	// Files counts regular file entries.
	Files int
	// Size is the archive size in bytes.
	Size int64
}

// Package zips the staging tree into outputPath. Entry names are relative
// to the staging root and use forward slashes; directories get explicit entries.
// The archive is written next to outputPath and renamed into place, so a
// failed run never leaves a truncated archive behind.
// The parent directory of outputPath must already exist.
func Package(ctx context.Context, stagingPath, outputPath string) (*Archive, error) {
	ctx = logger.WithName(ctx, "package")

	parent := filepath.Dir(outputPath)
	if info, err := os.Stat(parent); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: output directory %s is missing", release.ErrArchiveWriteFailed, parent)
	}

	logger.InfoKV(ctx, "Creating archive", "from", stagingPath, "to", outputPath)

	tmp, err := os.CreateTemp(parent, "."+filepath.Base(outputPath)+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: %w", release.ErrArchiveWriteFailed, err)
	}

	tmpPath := tmp.Name()
	committed := false

	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	files, err := writeArchive(ctx, tmp, stagingPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", release.ErrArchiveWriteFailed, err)
	}

	if err = tmp.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", release.ErrArchiveWriteFailed, err)
	}

	if err = os.Rename(tmpPath, outputPath); err != nil {
		return nil, fmt.Errorf("%w: %w", release.ErrArchiveWriteFailed, err)
	}

	committed = true

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", release.ErrArchiveWriteFailed, err)
	}

	archive := &Archive{
		Path:  outputPath,
		Files: files,
		Size:  info.Size(),
	}

	logger.InfoKV(ctx, "Archive created", "path", archive.Path, "files", archive.Files, "size", archive.Size)

	return archive, nil
}

// writeArchive streams every entry of root into w and returns the file count.
func writeArchive(ctx context.Context, w io.Writer, root string) (int, error) {
	zw := zip.NewWriter(w)
	files := 0

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		if err := ctx.Err(); err != nil {
			return err
		}

		if path == root {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}

		header.Name = filepath.ToSlash(rel)

		if d.IsDir() {
			header.Name += "/"
			header.Method = zip.Store

			_, err = zw.CreateHeader(header)

			return err
		}

		if !info.Mode().IsRegular() {
			logger.WarnKV(ctx, "Skipping non-regular file", "path", path)
			return nil
		}

		header.Method = zip.Deflate

		entry, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}

		if err = copyFile(entry, path); err != nil {
			return err
		}

		files++

		return nil
	})
	if err != nil {
		_ = zw.Close()
		return 0, err
	}

	return files, zw.Close()
}

func copyFile(w io.Writer, path string) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = io.Copy(w, f)

	return err
}
