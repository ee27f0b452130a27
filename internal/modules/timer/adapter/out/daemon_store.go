package out

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	timerout "pomoguard/internal/modules/timer/port/out"
)

// maxSocketPath stays under the sun_path limit on both Linux and macOS.
const maxSocketPath = 100

type FileDaemonStore struct {
	dir        string
	pidPath    string
	socketPath string
	logPath    string
}

// NewFileDaemonStore keeps pid, socket and log under dir. A socket path that
// would be too long for a unix address moves to the temp dir instead.
func NewFileDaemonStore(dir string) timerout.DaemonStore {
	return &FileDaemonStore{
		dir:        dir,
		pidPath:    filepath.Join(dir, "daemon.pid"),
		socketPath: socketPathFor(dir),
		logPath:    filepath.Join(dir, "daemon.log"),
	}
}

func socketPathFor(dir string) string {
	path := filepath.Join(dir, "daemon.sock")
	if len(path) <= maxSocketPath {
		return path
	}
	sum := sha256.Sum256([]byte(dir))
	return filepath.Join(os.TempDir(), "pomoguard-"+hex.EncodeToString(sum[:6])+".sock")
}

// WritePID replaces the pid file atomically; a reader either sees the old pid
// or the new one.
func (s *FileDaemonStore) WritePID(_ context.Context, pid int) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create daemon dir: %w", err)
	}
	tmp := s.pidPath + ".tmp"
	if err := os.WriteFile(tmp, []byte(strconv.Itoa(pid)), 0o644); err != nil {
		return fmt.Errorf("write daemon pid: %w", err)
	}
	return os.Rename(tmp, s.pidPath)
}

func (s *FileDaemonStore) ReadPID(_ context.Context) (int, error) {
	raw, err := os.ReadFile(s.pidPath)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return 0, fmt.Errorf("decode daemon pid: %w", err)
	}
	return pid, nil
}

func (s *FileDaemonStore) ClearPID(_ context.Context) error {
	if err := os.Remove(s.pidPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove daemon pid: %w", err)
	}
	return nil
}

func (s *FileDaemonStore) SocketPath() string { return s.socketPath }
func (s *FileDaemonStore) LogPath() string    { return s.logPath }
