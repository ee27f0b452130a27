package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
	apperrors "pomoguard/internal/platform/errors"
	"pomoguard/internal/platform/logger"
)

const (
	daemonStartTimeout  = 5 * time.Second
	daemonStopTimeout   = 2 * time.Second
	defaultLogTailLines = 200
)

type runtimeState struct {
	cancel    context.CancelFunc
	startedAt time.Time
}

type DaemonConfig struct {
	HomePath   string
	HTTPAddr   string
	Engine     *Engine
	Installer  timerout.Installer
	History    timerout.HistoryStore
	Daemon     timerout.DaemonStore
	IPCServer  timerout.IPCServer
	IPCClient  timerout.IPCClient
	Components []timerout.Component
	Log        logger.Logger
}

// DaemonService hosts the engine in a background process and routes commands
// to it. Inside the daemon calls reach the engine directly; elsewhere they go
// over the IPC socket, starting the daemon on first use.
type DaemonService struct {
	homePath   string
	httpAddr   string
	engine     *Engine
	installer  timerout.Installer
	history    timerout.HistoryStore
	daemon     timerout.DaemonStore
	ipcServer  timerout.IPCServer
	ipcClient  timerout.IPCClient
	components []timerout.Component
	log        logger.Logger

	mu      sync.RWMutex
	runtime *runtimeState
}

func NewDaemonService(cfg DaemonConfig) *DaemonService {
	log := cfg.Log
	if log == nil {
		log = logger.Nop()
	}
	return &DaemonService{
		homePath:   cfg.HomePath,
		httpAddr:   cfg.HTTPAddr,
		engine:     cfg.Engine,
		installer:  cfg.Installer,
		history:    cfg.History,
		daemon:     cfg.Daemon,
		ipcServer:  cfg.IPCServer,
		ipcClient:  cfg.IPCClient,
		components: cfg.Components,
		log:        log.With(logger.Component("timer.daemon")),
	}
}

// Attach adds components supervised alongside the IPC server. Components
// built on top of this service's usecase are attached after construction.
func (s *DaemonService) Attach(components ...timerout.Component) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.components = append(s.components, components...)
}

func (s *DaemonService) RunDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	if pid, err := s.daemon.ReadPID(ctx); err == nil && pid > 0 && pid != os.Getpid() && processAlive(pid) && socketReachable(s.daemon.SocketPath()) {
		return fmt.Errorf("%w: pid=%d", domain.ErrDaemonRunning, pid)
	}
	if s.ipcServer == nil {
		return fmt.Errorf("ipc server is not configured")
	}

	if s.installer != nil {
		seeded, err := s.installer.Install(ctx)
		switch {
		case err != nil:
			s.log.Warn("install defaults failed", logger.Err(err))
		case seeded:
			s.log.Info("seeded default settings")
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.mu.Lock()
	s.runtime = &runtimeState{cancel: cancel, startedAt: time.Now().UTC()}
	s.mu.Unlock()

	if err := s.engine.Reinitialize(runCtx); err != nil {
		s.cleanupRuntime(context.Background())
		return err
	}
	if err := s.daemon.WritePID(ctx, os.Getpid()); err != nil {
		s.cleanupRuntime(context.Background())
		return err
	}
	s.log.Info("timer daemon started",
		logger.Int("pid", os.Getpid()),
		logger.String("socket", s.daemon.SocketPath()),
	)

	g, gctx := errgroup.WithContext(runCtx)
	g.Go(func() error {
		return s.ipcServer.Serve(gctx, s.daemon.SocketPath(), daemonHandler{s: s})
	})
	s.mu.RLock()
	components := append([]timerout.Component(nil), s.components...)
	s.mu.RUnlock()
	for _, c := range components {
		c := c
		g.Go(func() error {
			if err := c.Run(gctx); err != nil {
				return fmt.Errorf("%s: %w", c.Name(), err)
			}
			return nil
		})
	}
	err := g.Wait()
	s.cleanupRuntime(context.Background())
	if err != nil && !errors.Is(err, net.ErrClosed) && !errors.Is(err, context.Canceled) {
		s.log.Error("timer daemon stopped", logger.Err(err))
		return err
	}
	s.log.Info("timer daemon stopped")
	return nil
}

func (s *DaemonService) StartDaemon(ctx context.Context) error {
	if err := s.cleanupStaleArtifacts(ctx); err != nil {
		return err
	}
	status, err := s.DaemonStatus(ctx)
	if err == nil && status.Running {
		if socketReachable(s.daemon.SocketPath()) {
			return nil
		}
		return fmt.Errorf("%w: daemon process is alive but socket is unavailable", domain.ErrDaemonStartFailed)
	}

	execPath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("resolve executable: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.daemon.LogPath()), 0o755); err != nil {
		return fmt.Errorf("create daemon log dir: %w", err)
	}
	if err := os.Remove(s.daemon.SocketPath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale daemon socket: %w", err)
	}

	logFile, err := os.OpenFile(s.daemon.LogPath(), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open daemon log: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command(execPath, "daemon", "__run", "--home", s.homePath)
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	cmd.Stdin = nil
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}
	if err := s.daemon.WritePID(ctx, cmd.Process.Pid); err != nil {
		return err
	}
	_ = cmd.Process.Release()

	if err := waitForSocket(s.daemon.SocketPath(), daemonStartTimeout); err != nil {
		_ = s.daemon.ClearPID(ctx)
		return fmt.Errorf("%w: %v", domain.ErrDaemonStartFailed, err)
	}
	return nil
}

func (s *DaemonService) StopDaemon(ctx context.Context) error {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil && rt.cancel != nil {
		rt.cancel()
		return nil
	}

	if s.ipcClient != nil {
		_ = s.ipcClient.Stop(ctx, s.daemon.SocketPath())
	}

	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			_ = os.Remove(s.daemon.SocketPath())
			return nil
		}
		return err
	}
	if pid <= 0 || !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
		return nil
	}
	if err := syscall.Kill(pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return fmt.Errorf("stop daemon pid=%d: %w", pid, err)
	}
	deadline := time.Now().Add(daemonStopTimeout)
	for time.Now().Before(deadline) {
		if !processAlive(pid) {
			break
		}
		time.Sleep(100 * time.Millisecond)
	}
	if processAlive(pid) {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
	if err := s.daemon.ClearPID(ctx); err != nil {
		return err
	}
	_ = os.Remove(s.daemon.SocketPath())
	return nil
}

func (s *DaemonService) DaemonStatus(ctx context.Context) (timerout.DaemonRuntimeStatus, error) {
	out := timerout.DaemonRuntimeStatus{SocketPath: s.daemon.SocketPath()}

	if s.inProcess() {
		out.Running = true
		out.PID = os.Getpid()
		out.Status = s.status(ctx)
		out.HasStatus = true
		return out, nil
	}

	pid, err := s.daemon.ReadPID(ctx)
	if err == nil {
		out.PID = pid
		out.Running = processAlive(pid)
	}
	if out.Running && s.ipcClient != nil {
		status, statusErr := s.ipcClient.Status(ctx, s.daemon.SocketPath())
		if statusErr == nil {
			out.Status = status
			out.HasStatus = true
		}
	}
	return out, nil
}

func (s *DaemonService) DaemonLogs(_ context.Context, tail int) (string, error) {
	if tail <= 0 {
		tail = defaultLogTailLines
	}
	file, err := os.Open(s.daemon.LogPath())
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("open daemon log: %w", err)
	}
	defer file.Close()

	lines := make([]string, 0, tail)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if len(lines) < tail {
			lines = append(lines, line)
			continue
		}
		copy(lines, lines[1:])
		lines[len(lines)-1] = line
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("scan daemon log: %w", err)
	}
	return strings.Join(lines, "\n"), nil
}

// Dispatch validates the action locally so a bad request never starts the
// daemon, then routes it.
func (s *DaemonService) Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	if _, err := domain.ParseAction(string(cmd.Action)); err != nil {
		return domain.Response{}, err
	}
	if s.inProcess() || s.ipcClient == nil {
		return s.engine.Handle(ctx, cmd)
	}
	resp, err := s.ipcClient.Dispatch(ctx, s.daemon.SocketPath(), cmd)
	if err == nil || !errors.Is(err, apperrors.ErrDaemonUnavailable) {
		return resp, err
	}
	s.log.Info("daemon unavailable, starting it", logger.String("action", string(cmd.Action)))
	if err := s.StartDaemon(ctx); err != nil {
		return domain.Response{}, err
	}
	return s.ipcClient.Dispatch(ctx, s.daemon.SocketPath(), cmd)
}

func (s *DaemonService) State(ctx context.Context) (domain.View, error) {
	resp, err := s.Dispatch(ctx, domain.Command{Action: domain.ActionGetState})
	if err != nil {
		return domain.View{}, err
	}
	return resp.State, nil
}

// Subscribe yields engine updates inside the daemon and a closed channel
// anywhere else.
func (s *DaemonService) Subscribe(buffer int) (<-chan domain.View, func()) {
	if s.inProcess() {
		return s.engine.Subscribe(buffer)
	}
	ch := make(chan domain.View)
	close(ch)
	return ch, func() {}
}

func (s *DaemonService) History(ctx context.Context, limit int) ([]domain.PhaseRecord, error) {
	if s.history == nil {
		return nil, nil
	}
	return s.history.List(ctx, limit)
}

func (s *DaemonService) inProcess() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime != nil
}

func (s *DaemonService) status(ctx context.Context) timerout.DaemonStatus {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	out := timerout.DaemonStatus{
		Initialized: s.engine.Initialized(),
		HTTPAddr:    s.httpAddr,
		Subscribers: s.engine.Subscribers(),
	}
	if rt != nil {
		out.StartedAt = rt.startedAt
	}
	if view, err := s.engine.State(ctx); err == nil {
		out.State = view
	}
	return out
}

func (s *DaemonService) cleanupRuntime(ctx context.Context) {
	s.mu.Lock()
	rt := s.runtime
	s.runtime = nil
	s.mu.Unlock()
	if rt != nil && rt.cancel != nil {
		rt.cancel()
	}
	s.engine.Shutdown(ctx)
	_ = s.daemon.ClearPID(ctx)
	_ = os.Remove(s.daemon.SocketPath())
}

func (s *DaemonService) cleanupStaleArtifacts(ctx context.Context) error {
	pid, err := s.daemon.ReadPID(ctx)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return err
		}
	} else if pid > 0 && !processAlive(pid) {
		_ = s.daemon.ClearPID(ctx)
		_ = os.Remove(s.daemon.SocketPath())
	}

	if _, statErr := os.Stat(s.daemon.SocketPath()); statErr == nil {
		if !socketReachable(s.daemon.SocketPath()) {
			if removeErr := os.Remove(s.daemon.SocketPath()); removeErr != nil && !os.IsNotExist(removeErr) {
				return fmt.Errorf("remove stale daemon socket: %w", removeErr)
			}
		}
	}
	return nil
}

// daemonHandler serves IPC requests. It always talks to the local engine so an
// in-flight request during shutdown can never loop back through the client.
type daemonHandler struct {
	s *DaemonService
}

func (h daemonHandler) Dispatch(ctx context.Context, cmd domain.Command) (domain.Response, error) {
	return h.s.engine.Handle(ctx, cmd)
}

func (h daemonHandler) Status(ctx context.Context) (timerout.DaemonStatus, error) {
	return h.s.status(ctx), nil
}

func (h daemonHandler) Stop(ctx context.Context) error {
	return h.s.StopDaemon(ctx)
}

func waitForSocket(path string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if socketReachable(path) {
			return nil
		}
		time.Sleep(100 * time.Millisecond)
	}
	return fmt.Errorf("daemon socket not ready: %s", path)
}

func socketReachable(path string) bool {
	conn, err := net.DialTimeout("unix", path, 150*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}
