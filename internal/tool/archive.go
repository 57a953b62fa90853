package tool

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
	"github.com/h2non/filetype/types"
	"github.com/spf13/afero"
)

// headerSize is the number of bytes filetype needs to identify a file.
const headerSize = 262

// extractBinary installs the downloaded file at destPath. Archives are
// detected by their magic bytes and only the entry named binName below
// root is extracted; anything else is taken to be the binary itself.
func extractBinary(fs afero.Fs, downloadPath, destPath, root, binName string) error {
	kind, err := sniff(fs, downloadPath)
	if err != nil {
		return err
	}

	switch kind {
	case matchers.TypeGz:
		return extractTarGzFile(fs, downloadPath, destPath, root, binName)
	case matchers.TypeZip:
		return extractZipFile(fs, downloadPath, destPath, root, binName)
	default:
		return fs.Rename(downloadPath, destPath)
	}
}

func sniff(fs afero.Fs, filePath string) (types.Type, error) {
	f, err := fs.Open(filePath)
	if err != nil {
		return types.Unknown, fmt.Errorf("failed to open download: %w", err)
	}
	defer f.Close() //nolint:errcheck // close on read-only file

	head := make([]byte, headerSize)

	n, err := io.ReadFull(f, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return types.Unknown, fmt.Errorf("failed to read download: %w", err)
	}

	kind, err := filetype.Match(head[:n])
	if err != nil && err != filetype.ErrEmptyBuffer {
		return types.Unknown, fmt.Errorf("failed to detect file type: %w", err)
	}

	return kind, nil
}

// matchEntry reports whether an archive entry is the wanted binary.
func matchEntry(name, root, binName string) bool {
	name = path.Clean(strings.TrimPrefix(strings.ReplaceAll(name, "\\", "/"), "./"))
	if root == "" {
		return path.Base(name) == binName
	}

	return name == path.Join(root, binName)
}

// extractTarGzFile extracts a single binary from a tar.gz file.
func extractTarGzFile(fs afero.Fs, archivePath, destPath, root, binName string) error {
	archiveFile, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close() //nolint:errcheck // close on read-only file

	gzr, err := gzip.NewReader(archiveFile)
	if err != nil {
		return fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzr.Close() //nolint:errcheck // close on reader

	tr := tar.NewReader(gzr)

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}

		if err != nil {
			return fmt.Errorf("failed to read tar: %w", err)
		}

		if header.Typeflag != tar.TypeReg || !matchEntry(header.Name, root, binName) {
			continue
		}

		return writeEntry(fs, tr, destPath)
	}

	return fmt.Errorf("binary %s not found in archive", path.Join(root, binName))
}

// extractZipFile extracts a single binary from a zip file.
func extractZipFile(fs afero.Fs, archivePath, destPath, root, binName string) error {
	archiveFile, err := fs.Open(archivePath)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer archiveFile.Close() //nolint:errcheck // close on read-only file

	info, err := archiveFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat archive: %w", err)
	}

	zr, err := zip.NewReader(archiveFile, info.Size())
	if err != nil {
		return fmt.Errorf("failed to read zip: %w", err)
	}

	for _, f := range zr.File {
		if f.FileInfo().IsDir() || !matchEntry(f.Name, root, binName) {
			continue
		}

		rc, err := f.Open()
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", f.Name, err)
		}

		err = writeEntry(fs, rc, destPath)
		_ = rc.Close() //nolint:errcheck // close on reader

		return err
	}

	return fmt.Errorf("binary %s not found in archive", path.Join(root, binName))
}

func writeEntry(fs afero.Fs, r io.Reader, destPath string) error {
	out, err := fs.Create(destPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close() //nolint:errcheck // close on error path

		return fmt.Errorf("failed to extract binary: %w", err)
	}

	return out.Close()
}
