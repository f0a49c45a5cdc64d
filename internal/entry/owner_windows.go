//go:build windows

package entry

// Owner is not reported on Windows
func Owner(path string) (string, string) {
	return "", ""
}
