package out

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"path/filepath"
	"time"

	"pomoguard/internal/modules/timer/domain"
	timerout "pomoguard/internal/modules/timer/port/out"
	apperrors "pomoguard/internal/platform/errors"
)

const (
	ipcServiceName = "Timer"
	ipcCallTimeout = 10 * time.Second
)

type JSONRPCServer struct{}

type JSONRPCClient struct{}

func NewJSONRPCServer() timerout.IPCServer {
	return &JSONRPCServer{}
}

func NewJSONRPCClient() timerout.IPCClient {
	return &JSONRPCClient{}
}

type rpcHandler struct {
	h timerout.IPCHandler
}

type commandReq struct {
	Command domain.Command
}

type statusResp struct {
	Status timerout.DaemonStatus
}

type empty struct{}

func (s *rpcHandler) Dispatch(req commandReq, resp *domain.Response) error {
	out, err := s.h.Dispatch(context.Background(), req.Command)
	if err != nil {
		return err
	}
	*resp = out
	return nil
}

func (s *rpcHandler) Status(_ empty, resp *statusResp) error {
	status, err := s.h.Status(context.Background())
	if err != nil {
		return err
	}
	resp.Status = status
	return nil
}

func (s *rpcHandler) Stop(_ empty, _ *empty) error {
	return s.h.Stop(context.Background())
}

func (s *JSONRPCServer) Serve(ctx context.Context, socketPath string, handler timerout.IPCHandler) error {
	if err := os.MkdirAll(filepath.Dir(socketPath), 0o755); err != nil {
		return fmt.Errorf("create ipc dir: %w", err)
	}
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove stale ipc socket: %w", err)
	}
	ln, err := net.Listen("unix", socketPath)
	if err != nil {
		return fmt.Errorf("listen ipc socket: %w", err)
	}
	if err := os.Chmod(socketPath, 0o600); err != nil {
		_ = ln.Close()
		return fmt.Errorf("chmod ipc socket: %w", err)
	}
	defer ln.Close()

	rpcSrv := rpc.NewServer()
	if err := rpcSrv.RegisterName(ipcServiceName, &rpcHandler{h: handler}); err != nil {
		return fmt.Errorf("register ipc handler: %w", err)
	}

	stop := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = ln.Close()
		case <-stop:
		}
	}()
	defer close(stop)

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			return err
		}
		go rpcSrv.ServeCodec(jsonrpc.NewServerCodec(conn))
	}
}

func (c *JSONRPCClient) Dispatch(ctx context.Context, socketPath string, cmd domain.Command) (domain.Response, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return domain.Response{}, err
	}
	defer client.Close()
	resp := domain.Response{}
	if err := client.Call(ipcServiceName+".Dispatch", commandReq{Command: cmd}, &resp); err != nil {
		return domain.Response{}, err
	}
	return resp, nil
}

func (c *JSONRPCClient) Status(ctx context.Context, socketPath string) (timerout.DaemonStatus, error) {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return timerout.DaemonStatus{}, err
	}
	defer client.Close()
	resp := statusResp{}
	if err := client.Call(ipcServiceName+".Status", empty{}, &resp); err != nil {
		return timerout.DaemonStatus{}, err
	}
	return resp.Status, nil
}

func (c *JSONRPCClient) Stop(ctx context.Context, socketPath string) error {
	client, err := dialClient(ctx, socketPath)
	if err != nil {
		return err
	}
	defer client.Close()
	return client.Call(ipcServiceName+".Stop", empty{}, &empty{})
}

// dialClient reports any connection failure as ErrDaemonUnavailable so callers
// can start the daemon and retry.
func dialClient(ctx context.Context, socketPath string) (*rpc.Client, error) {
	d := net.Dialer{}
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrDaemonUnavailable, err)
	}
	_ = conn.SetDeadline(time.Now().Add(ipcCallTimeout))
	return rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn)), nil
}
