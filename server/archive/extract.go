// Package archive reads and writes the zip archives that flow through a job:
// toolchain distributions, source bundles and the assembled output package.
package archive

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

const defaultFileMode os.FileMode = 0644

// Extract unpacks the zip stream r into dest and returns dest. Existing files
// are overwritten. A failure part way through leaves whatever was already
// written in place.
func Extract(r io.Reader, dest string) (string, error) {
	// zip needs random access, so the stream is spooled to disk first
	spool, err := os.CreateTemp("", "archive-*.zip")
	if err != nil {
		return "", errors.Wrap(err, "creating spool file")
	}
	defer func() {
		spool.Close()
		os.Remove(spool.Name())
	}()

	size, err := io.Copy(spool, r)
	if err != nil {
		return "", errors.Wrap(err, "spooling archive")
	}

	zr, err := zip.NewReader(spool, size)
	if err != nil {
		return "", errors.Wrap(err, "reading archive")
	}

	if err := os.MkdirAll(dest, 0755); err != nil {
		return "", errors.Wrapf(err, "creating %s", dest)
	}

	for _, f := range zr.File {
		if err := extractEntry(f, dest); err != nil {
			return "", err
		}
	}
	return dest, nil
}

func extractEntry(f *zip.File, dest string) error {
	target, err := resolve(dest, f.Name)
	if err != nil {
		return err
	}

	if f.FileInfo().IsDir() {
		return errors.Wrapf(os.MkdirAll(target, 0755), "creating directory %s", target)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, "creating parent of %s", target)
	}

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = defaultFileMode
	}

	src, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, "opening entry %s", f.Name)
	}
	defer src.Close()

	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return errors.Wrapf(err, "creating %s", target)
	}

	if _, err := io.Copy(out, src); err != nil {
		out.Close()
		return errors.Wrapf(err, "writing %s", target)
	}
	return errors.Wrapf(out.Close(), "closing %s", target)
}

// resolve maps an entry name onto dest, refusing names that would land
// outside of it.
func resolve(dest, name string) (string, error) {
	target := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, target)
	if err != nil {
		return "", errors.Wrapf(err, "resolving entry %s", name)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Errorf("entry %s escapes destination directory", name)
	}
	return target, nil
}
