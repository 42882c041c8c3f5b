package ipc

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
)

// listenFdsStart is the first descriptor passed by socket activation
const listenFdsStart = 3

// activatedListener returns the pre-bound listener handed over through
// LISTEN_FDS, if any. LISTEN_PID, when set, must name this process.
func activatedListener() (net.Listener, bool, error) {
	fds, err := strconv.Atoi(os.Getenv("LISTEN_FDS"))
	if err != nil || fds < 1 {
		return nil, false, nil
	}

	if pid := os.Getenv("LISTEN_PID"); pid != "" && pid != strconv.Itoa(os.Getpid()) {
		return nil, false, nil
	}

	os.Unsetenv("LISTEN_FDS")
	os.Unsetenv("LISTEN_PID")
	os.Unsetenv("LISTEN_FDNAMES")

	f := os.NewFile(uintptr(listenFdsStart), "LISTEN_FD_3")
	defer f.Close()

	listener, err := net.FileListener(f)
	if err != nil {
		return nil, false, fmt.Errorf("failed to use activated socket: %w", err)
	}
	return listener, true, nil
}

// listenSocket creates a unix socket listener, removing any stale socket
// file. The socket is readable and writable by the owner only.
func listenSocket(socketPath string) (net.Listener, error) {
	socketDir := filepath.Dir(socketPath)
	if err := os.MkdirAll(socketDir, 0700); err != nil {
		return nil, fmt.Errorf("creating socket directory %s: %w", socketDir, err)
	}

	// Remove stale socket file from a previous run.
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("removing stale socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, err
	}

	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("setting socket permissions: %w", err)
	}

	return listener, nil
}
