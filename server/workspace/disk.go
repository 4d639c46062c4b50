package workspace

import (
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// DiskSpace is measured in bytes.
type DiskSpace struct {
	Total     uint64
	Free      uint64
	Available uint64
}

func StatDisk(path string) (DiskSpace, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return DiskSpace{}, errors.Wrapf(err, "statfs %s", path)
	}
	bsize := uint64(st.Bsize) //nolint:unconvert // int64 on linux, uint32 on darwin
	return DiskSpace{
		Total:     st.Blocks * bsize,
		Free:      st.Bfree * bsize,
		Available: st.Bavail * bsize,
	}, nil
}
