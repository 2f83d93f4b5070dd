package ipc

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// OpenInput opens the input stream named by url, either "fd://N" for an
// inherited file descriptor, or a file path.
func OpenInput(url string) (*os.File, error) {
	if fd, ok, err := parseFD(url); ok {
		if err != nil {
			return nil, err
		}
		return os.NewFile(fd, url), nil
	}
	return os.Open(url)
}

// OpenOutput opens the output stream named by url, see OpenInput. Files are
// created or truncated.
func OpenOutput(url string) (*os.File, error) {
	if fd, ok, err := parseFD(url); ok {
		if err != nil {
			return nil, err
		}
		return os.NewFile(fd, url), nil
	}
	return os.OpenFile(url, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
}

func parseFD(url string) (uintptr, bool, error) {
	num, ok := strings.CutPrefix(url, "fd://")
	if !ok {
		return 0, false, nil
	}
	fd, err := strconv.ParseUint(num, 10, 31)
	if err != nil {
		return 0, true, fmt.Errorf("invalid url %q: %w", url, err)
	}
	return uintptr(fd), true, nil
}
