//go:build unix

package photoflat

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func sameDevice(a, b string) (bool, error) {
	var aStat, bStat unix.Stat_t
	if err := unix.Stat(a, &aStat); err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", a, err)
	}
	if err := unix.Stat(b, &bStat); err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", b, err)
	}
	return aStat.Dev == bStat.Dev, nil
}
