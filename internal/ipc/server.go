package ipc

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"os"
	"strings"
	"sync"

	"log/slog"

	"slidesmith/internal/build"
	"slidesmith/internal/daemon"
	"slidesmith/internal/logging"
	"slidesmith/internal/settings"
)

// Server exposes daemon control via JSON-RPC over a Unix domain socket.
type Server struct {
	path      string
	daemon    *daemon.Daemon
	logger    *slog.Logger
	listener  net.Listener
	rpcServer *rpc.Server

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewServer configures the IPC server at the given socket path.
func NewServer(ctx context.Context, path string, d *daemon.Daemon, logger *slog.Logger) (*Server, error) {
	if d == nil {
		return nil, errors.New("ipc server requires daemon")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := os.RemoveAll(path); err != nil {
		return nil, fmt.Errorf("remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", path)
	if err != nil {
		return nil, fmt.Errorf("listen on socket: %w", err)
	}

	rpcServer := rpc.NewServer()
	srv := &service{daemon: d, logger: logger, ctx: ctx}
	if err := rpcServer.RegisterName("Slidesmith", srv); err != nil {
		listener.Close()
		return nil, fmt.Errorf("register rpc service: %w", err)
	}

	serverCtx, cancel := context.WithCancel(ctx)
	return &Server{
		path:      path,
		daemon:    d,
		logger:    logger,
		listener:  listener,
		rpcServer: rpcServer,
		ctx:       serverCtx,
		cancel:    cancel,
	}, nil
}

// Serve starts accepting RPC connections until the context is canceled.
func (s *Server) Serve() {
	s.logger.Debug("IPC server listening", logging.String("socket", s.path))
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := s.listener.Accept()
			if err != nil {
				select {
				case <-s.ctx.Done():
					return
				default:
				}
				s.logger.Warn("accept failed", logging.Error(err))
				continue
			}
			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.rpcServer.ServeCodec(jsonrpc.NewServerCodec(c))
			}(conn)
		}
	}()
}

// Close stops the server and removes the socket file.
func (s *Server) Close() {
	s.cancel()
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
	if err := os.RemoveAll(s.path); err != nil {
		s.logger.Warn("failed to remove socket",
			logging.String("socket", s.path),
			logging.Error(err))
	}
}

type service struct {
	daemon *daemon.Daemon
	logger *slog.Logger
	ctx    context.Context
}

func (s *service) log() *slog.Logger {
	if s.logger == nil {
		return logging.NewNop()
	}
	return logging.WithComponent(s.logger, "ipc")
}

func summarize(rec *build.Record) *BuildSummary {
	if rec == nil {
		return nil
	}
	return &BuildSummary{
		ID:          rec.ID,
		Trigger:     string(rec.Trigger),
		Outcome:     string(rec.Outcome),
		FailedStage: string(rec.FailedStage),
		Error:       rec.Error,
		Output:      rec.Output,
		SlideCount:  rec.SlideCount,
		Repeats:     rec.Repeats,
		Track:       rec.Track,
		StartedAt:   rec.StartedAt,
		FinishedAt:  rec.FinishedAt,
	}
}

func (s *service) Status(_ StatusRequest, resp *StatusResponse) error {
	status := s.daemon.Status(s.ctx)
	wf := status.Workflow
	resp.Running = status.Running
	resp.Building = wf.Running
	resp.Trigger = string(wf.Trigger)
	resp.Stage = string(wf.Progress.Stage)
	resp.StageDetail = wf.Progress.Detail
	resp.Last = summarize(wf.Last)
	resp.Checks = make([]CheckStatus, 0, len(status.Checks))
	for _, check := range status.Checks {
		resp.Checks = append(resp.Checks, CheckStatus{
			Name:   check.Name,
			Passed: check.Passed,
			Detail: check.Detail,
		})
	}
	resp.Schedule = wf.Schedule
	resp.NextRun = wf.NextRun
	resp.UptimeSeconds = int64(wf.Uptime.Seconds())
	resp.Heartbeat = wf.Heartbeat
	resp.SettingsDBPath = status.SettingsDBPath
	resp.LockPath = status.LockFilePath
	resp.PID = status.PID
	return nil
}

func (s *service) Rebuild(_ RebuildRequest, resp *RebuildResponse) error {
	s.log().Debug("rebuild requested")
	sub := s.daemon.Submit(build.TriggerCLI)
	resp.Accepted = sub.Accepted
	resp.Reason = sub.Reason
	if sub.Accepted {
		s.log().Info("build submitted via IPC",
			logging.String(logging.FieldBuildID, sub.BuildID))
	}
	return nil
}

func (s *service) ConfigGet(req ConfigGetRequest, resp *ConfigGetResponse) error {
	resolver := s.daemon.Resolver()
	if key := strings.TrimSpace(req.Key); key != "" {
		k := settings.Key(strings.ToUpper(key))
		def, ok := settings.Lookup(k)
		if !ok {
			return fmt.Errorf("unknown setting %s", key)
		}
		val, err := resolver.Resolve(s.ctx, k)
		if err != nil {
			return err
		}
		resp.Values = []ConfigValue{{
			Key:    string(k),
			Value:  val.Raw,
			Source: val.Source.String(),
			Group:  def.Group,
		}}
		return nil
	}
	snap, err := resolver.ResolveAll(s.ctx)
	if err != nil {
		return err
	}
	resp.Values = make([]ConfigValue, 0, len(settings.Registry))
	for _, def := range settings.Registry {
		val := snap.Value(def.Key)
		resp.Values = append(resp.Values, ConfigValue{
			Key:    string(def.Key),
			Value:  val.Raw,
			Source: val.Source.String(),
			Group:  def.Group,
		})
	}
	return nil
}

func (s *service) ConfigSet(req ConfigSetRequest, resp *ConfigSetResponse) error {
	key := settings.Key(strings.ToUpper(strings.TrimSpace(req.Key)))
	if err := s.daemon.Resolver().SetOverride(s.ctx, key, req.Value); err != nil {
		return err
	}
	resp.Key = string(key)
	resp.Value = req.Value
	s.log().Info("override stored via IPC", logging.String("key", string(key)))
	return nil
}

func (s *service) ConfigUnset(req ConfigUnsetRequest, resp *ConfigUnsetResponse) error {
	key := settings.Key(strings.ToUpper(strings.TrimSpace(req.Key)))
	removed, err := s.daemon.Resolver().ClearOverride(s.ctx, key)
	if err != nil {
		return err
	}
	resp.Removed = removed
	return nil
}

func (s *service) ConfigReset(_ ConfigResetRequest, resp *ConfigResetResponse) error {
	cleared, err := s.daemon.Resolver().ClearAll(s.ctx)
	if err != nil {
		return err
	}
	resp.Cleared = cleared
	s.log().Info("overrides cleared via IPC", logging.Int64("cleared_count", cleared))
	return nil
}

func (s *service) ConfigList(_ ConfigListRequest, resp *ConfigListResponse) error {
	overrides, err := s.daemon.Resolver().Overrides(s.ctx)
	if err != nil {
		return err
	}
	resp.Overrides = make(map[string]string, len(overrides))
	for k, v := range overrides {
		resp.Overrides[string(k)] = v
	}
	return nil
}

func (s *service) TestNotification(_ TestNotificationRequest, resp *TestNotificationResponse) error {
	if err := s.daemon.TestNotification(s.ctx); err != nil {
		resp.Sent = false
		resp.Message = err.Error()
		return nil
	}
	resp.Sent = true
	resp.Message = "test notification sent"
	return nil
}

func (s *service) Plan(_ PlanRequest, resp *PlanResponse) error {
	preview, err := s.daemon.PreviewPlan(s.ctx)
	if err != nil {
		return err
	}
	resp.SlideCount = preview.SlideCount
	resp.Repeats = preview.Repeats
	resp.PerSlideSeconds = preview.PerSlideSeconds
	resp.SlideshowSeconds = preview.SlideshowSeconds
	resp.AppendClip = preview.AppendClip
	resp.AppendSeconds = preview.AppendSeconds
	resp.TotalSeconds = preview.TotalSeconds
	resp.TrackCount = preview.TrackCount
	resp.SampleTrack = preview.SampleTrack
	resp.OverlayEnabled = preview.OverlayEnabled
	resp.OverlayStart = preview.OverlayStart
	resp.OverlayEnd = preview.OverlayEnd
	return nil
}
