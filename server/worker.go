package server

import (
	"fmt"
	"net"
	"os"
	"strconv"
)

const (
	// workerFDEnv names the env var carrying the inherited listener's file
	// descriptor number in worker processes.
	workerFDEnv = "HERMES_WORKER_FD"
	// workerIDEnv names the env var carrying the worker's index.
	workerIDEnv = "HERMES_WORKER_ID"
	// workerFDStart is where ExtraFiles land in the child: after
	// stdin/stdout/stderr.
	workerFDStart = 3
)

// IsWorker reports whether this process was spawned as a worker and should
// adopt an inherited listener instead of binding its own.
func IsWorker() bool {
	return os.Getenv(workerFDEnv) != ""
}

// WorkerID returns the worker index, or -1 outside worker processes.
func WorkerID() int {
	id, err := strconv.Atoi(os.Getenv(workerIDEnv))
	if err != nil {
		return -1
	}
	return id
}

// InheritedListener rebuilds the listening socket from the file descriptor
// passed down by the parent supervisor.
func InheritedListener() (net.Listener, error) {
	fdStr := os.Getenv(workerFDEnv)
	fd, err := strconv.Atoi(fdStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q", workerFDEnv, fdStr)
	}

	file := os.NewFile(uintptr(fd), "hermes-listener")
	if file == nil {
		return nil, fmt.Errorf("file descriptor %d is not open", fd)
	}
	defer file.Close()

	listener, err := net.FileListener(file)
	if err != nil {
		return nil, fmt.Errorf("failed to adopt inherited listener: %w", err)
	}
	return listener, nil
}
