package fetch

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/conn-castle/m/internal/failure"
	"github.com/conn-castle/m/internal/messages"
)

type archiveFormat int

const (
	formatTarGz archiveFormat = iota
	formatZip
)

const unpackDir = ".unpack"

func detectFormat(rawURL string) (archiveFormat, error) {
	name := strings.ToLower(urlPath(rawURL))
	switch {
	case strings.HasSuffix(name, ".tgz"), strings.HasSuffix(name, ".tar.gz"):
		return formatTarGz, nil
	case strings.HasSuffix(name, ".zip"):
		return formatZip, nil
	}
	return 0, fmt.Errorf(messages.FetchUnsupportedFormatFmt, failure.ErrExtraction, rawURL)
}

// extract unpacks archivePath into destDir, hoisting the contents of a
// single top-level directory.
func extract(format archiveFormat, archivePath string, destDir string) error {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, destDir, err)
	}
	scratch := filepath.Join(destDir, unpackDir)
	if err := os.MkdirAll(scratch, 0o755); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, scratch, err)
	}

	var err error
	switch format {
	case formatZip:
		err = extractZip(archivePath, scratch)
	default:
		err = extractTarGz(archivePath, scratch)
	}
	if err != nil {
		return err
	}
	return hoist(scratch, destDir, archivePath)
}

func extractTarGz(archivePath string, dest string) error {
	file, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf(messages.FetchOpenArchiveFmt, failure.ErrExtraction, archivePath, err)
	}
	defer func() { _ = file.Close() }()

	gz, err := gzip.NewReader(file)
	if err != nil {
		return fmt.Errorf(messages.FetchOpenArchiveFmt, failure.ErrExtraction, archivePath, err)
	}
	defer func() { _ = gz.Close() }()

	tr := tar.NewReader(gz)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf(messages.FetchReadEntryFmt, failure.ErrExtraction, err)
		}
		target, err := safeJoin(dest, header.Name)
		if err != nil {
			return err
		}
		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
			}
		case tar.TypeReg:
			if err := writeFile(target, tr, os.FileMode(header.Mode).Perm()); err != nil {
				return err
			}
		case tar.TypeSymlink:
			if err := writeSymlink(dest, target, header.Linkname); err != nil {
				return err
			}
		default:
			// Devices, fifos and hard links never appear in release archives.
		}
	}
}

func extractZip(archivePath string, dest string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf(messages.FetchOpenArchiveFmt, failure.ErrExtraction, archivePath, err)
	}
	defer func() { _ = reader.Close() }()

	for _, file := range reader.File {
		target, err := safeJoin(dest, file.Name)
		if err != nil {
			return err
		}
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
			}
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return fmt.Errorf(messages.FetchReadEntryFmt, failure.ErrExtraction, err)
		}
		err = writeFile(target, rc, file.Mode().Perm())
		_ = rc.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// safeJoin resolves an archive entry name inside dest.
func safeJoin(dest string, name string) (string, error) {
	cleaned := filepath.FromSlash(name)
	if filepath.IsAbs(cleaned) {
		return "", fmt.Errorf(messages.FetchUnsafeEntryFmt, failure.ErrExtraction, name)
	}
	target := filepath.Join(dest, cleaned)
	rel, err := filepath.Rel(dest, target)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf(messages.FetchUnsafeEntryFmt, failure.ErrExtraction, name)
	}
	return target, nil
}

func writeFile(target string, r io.Reader, perm os.FileMode) error {
	if perm == 0 {
		perm = 0o644
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	if _, err := io.Copy(out, r); err != nil {
		_ = out.Close()
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	return nil
}

// writeSymlink creates a link whose target stays inside root.
func writeSymlink(root string, target string, linkname string) error {
	if filepath.IsAbs(linkname) {
		return fmt.Errorf(messages.FetchUnsafeEntryFmt, failure.ErrExtraction, linkname)
	}
	if _, err := safeJoin(root, filepath.Join(filepath.Dir(mustRel(root, target)), linkname)); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	if err := os.Symlink(linkname, target); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, target, err)
	}
	return nil
}

func mustRel(root string, target string) string {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return target
	}
	return rel
}

// hoist moves the unpacked tree from scratch into destDir. A lone top-level
// directory is flattened away.
func hoist(scratch string, destDir string, archivePath string) error {
	entries, err := os.ReadDir(scratch)
	if err != nil {
		return fmt.Errorf(messages.FetchReadEntryFmt, failure.ErrExtraction, err)
	}
	if len(entries) == 0 {
		return fmt.Errorf(messages.FetchEmptyArchiveFmt, failure.ErrExtraction, filepath.Base(archivePath))
	}
	root := scratch
	if len(entries) == 1 && entries[0].IsDir() {
		root = filepath.Join(scratch, entries[0].Name())
		entries, err = os.ReadDir(root)
		if err != nil {
			return fmt.Errorf(messages.FetchReadEntryFmt, failure.ErrExtraction, err)
		}
	}
	for _, entry := range entries {
		from := filepath.Join(root, entry.Name())
		to := filepath.Join(destDir, entry.Name())
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, to, err)
		}
	}
	if err := os.RemoveAll(scratch); err != nil {
		return fmt.Errorf(messages.FetchWriteEntryFmt, failure.ErrExtraction, scratch, err)
	}
	return nil
}
