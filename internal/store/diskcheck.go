package store

import (
	"fmt"

	"github.com/shirou/gopsutil/disk"
)

// CheckFreeSpace fails when the filesystem holding path has less than
// minimumFreeGB gigabytes available. A zero minimum disables the check.
func CheckFreeSpace(path string, minimumFreeGB uint) error {
	if minimumFreeGB == 0 {
		return nil
	}
	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("disk usage for %s: %w", path, err)
	}
	freeGB := usage.Free / (1 << 30)
	if freeGB < uint64(minimumFreeGB) {
		return fmt.Errorf("not enough space on %s: %d GB free, %d GB required",
			path, freeGB, minimumFreeGB)
	}
	return nil
}
