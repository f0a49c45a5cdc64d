//go:build !windows

package entry

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
)

// Owner returns the user and group names of path, falling back to numeric ids
func Owner(path string) (string, string) {
	info, err := os.Lstat(path)
	if err != nil {
		return "", ""
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", ""
	}

	uid := strconv.FormatUint(uint64(st.Uid), 10)
	gid := strconv.FormatUint(uint64(st.Gid), 10)
	if u, err := user.LookupId(uid); err == nil {
		uid = u.Username
	}
	if g, err := user.LookupGroupId(gid); err == nil {
		gid = g.Name
	}
	return uid, gid
}
