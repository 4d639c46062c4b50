package archive

import (
	"archive/zip"
	"bufio"
	"io"
	"os"
	"path"
	"path/filepath"
	"sort"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
)

const (
	// ScriptsPrefix is the directory deployment scripts live under inside
	// the output package.
	ScriptsPrefix = "scripts"

	copyBufferSize = 8192
)

// WriteEntry streams the file at path into w under entryName. Every failure
// comes back as a *PackagingError.
func WriteEntry(filePath, entryName string, w *zip.Writer) error {
	f, err := os.Open(filePath)
	if err != nil {
		return &PackagingError{Entry: entryName, Err: errors.Wrap(err, "opening source")}
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return &PackagingError{Entry: entryName, Err: errors.Wrap(err, "reading source info")}
	}

	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return &PackagingError{Entry: entryName, Err: errors.Wrap(err, "building header")}
	}
	header.Name = entryName
	header.Method = zip.Deflate

	entry, err := w.CreateHeader(header)
	if err != nil {
		return &PackagingError{Entry: entryName, Err: errors.Wrap(err, "creating entry")}
	}

	// hide os.File's WriterTo so the copy goes through the fixed buffer
	buf := make([]byte, copyBufferSize)
	if _, err := io.CopyBuffer(entry, struct{ io.Reader }{f}, buf); err != nil {
		return &PackagingError{Entry: entryName, Err: errors.Wrap(err, "copying contents")}
	}
	return nil
}

// AssembleOutputArchive writes the deployment package to dest: the manifest
// under its bare name, every regular file directly inside scriptsDir under
// scripts/, then the binary under its bare name. dest is replaced atomically
// so a failed assembly never leaves a partial archive behind.
func AssembleOutputArchive(manifestPath, scriptsDir, binaryPath, dest string) (string, error) {
	scripts, err := listScripts(scriptsDir)
	if err != nil {
		return "", err
	}

	pending, err := renameio.NewPendingFile(dest, renameio.WithPermissions(0644))
	if err != nil {
		return "", errors.Wrapf(err, "creating %s", dest)
	}
	defer pending.Cleanup() //nolint:errcheck // no-op once replaced

	bw := bufio.NewWriter(pending)
	zw := zip.NewWriter(bw)

	if err := WriteEntry(manifestPath, filepath.Base(manifestPath), zw); err != nil {
		return "", err
	}
	for _, script := range scripts {
		name := path.Join(ScriptsPrefix, filepath.Base(script))
		if err := WriteEntry(script, name, zw); err != nil {
			return "", err
		}
	}
	if err := WriteEntry(binaryPath, filepath.Base(binaryPath), zw); err != nil {
		return "", err
	}

	if err := zw.Close(); err != nil {
		return "", &PackagingError{Entry: filepath.Base(dest), Err: errors.Wrap(err, "finalizing archive")}
	}
	if err := bw.Flush(); err != nil {
		return "", &PackagingError{Entry: filepath.Base(dest), Err: errors.Wrap(err, "flushing archive")}
	}
	if err := pending.CloseAtomicallyReplace(); err != nil {
		return "", errors.Wrapf(err, "replacing %s", dest)
	}
	return dest, nil
}

func listScripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "listing scripts in %s", dir)
	}

	var scripts []string
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		scripts = append(scripts, filepath.Join(dir, e.Name()))
	}
	sort.Strings(scripts)
	return scripts, nil
}
