package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/vigilglc/sortid/server"
	api "github.com/vigilglc/sortid/server/api/rpcpb"
	"github.com/vigilglc/sortid/server/config"
	"github.com/vigilglc/sortid/server/idgen"
	"github.com/vigilglc/sortid/server/utils/syncutil"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type serviceServer struct {
	api.UnimplementedIDServiceServer
	lg *zap.Logger
	sv *server.Server
}

func newServiceServer(sv *server.Server) *serviceServer {
	return &serviceServer{lg: sv.Config.GetLogger(), sv: sv}
}

// NewGRPCServer registers the id service of sv on a new grpc server.
func NewGRPCServer(sv *server.Server) *grpc.Server {
	ss := newServiceServer(sv)
	gSrv := grpc.NewServer(grpc.UnaryInterceptor(ss.observe))
	api.RegisterIDServiceServer(gSrv, ss)
	return gSrv
}

// StartService serves grpc on cfg.ServiceAddr and, if configured, metrics on cfg.MetricsAddr
// until either listener fails.
func StartService(cfg *config.ServerConfig) error {
	lg := cfg.GetLogger()
	sv := server.NewServer(cfg)
	addr := cfg.ServiceAddr
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		lg.Error("failed to listen network",
			zap.String("addr", addr), zap.Error(err),
		)
		return err
	}
	gSrv := NewGRPCServer(sv)
	var fw syncutil.FuncWatcher
	errC := make(chan error, 2)
	var mSrv *http.Server
	if len(cfg.MetricsAddr) != 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", sv.Metrics().Handler())
		mSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
		fw.Attach(func() {
			if err := mSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("metrics server stopped", zap.String("addr", cfg.MetricsAddr), zap.Error(err))
				errC <- err
			}
		})
	}
	fw.Attach(func() {
		lg.Info("serving id service", zap.String("addr", addr))
		if err := gSrv.Serve(lis); err != nil {
			errC <- err
		}
	})
	err = <-errC
	gSrv.Stop()
	if mSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = mSrv.Shutdown(ctx)
		cancel()
	}
	fw.Wait()
	return err
}

func (ss *serviceServer) observe(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo,
	handler grpc.UnaryHandler) (resp interface{}, err error) {
	start := time.Now()
	resp, err = handler(ctx, req)
	m := ss.sv.Metrics()
	m.RequestDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	m.RequestsTotal.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	if err != nil {
		ss.lg.Error("failed to process request",
			zap.String("method", info.FullMethod), zap.Any("request", req), zap.Error(err))
	}
	return
}

func toStatusError(err error) error {
	switch {
	case errors.Is(err, server.ErrInvalidArgs), errors.Is(err, server.ErrMalformedID):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, server.ErrClockMovedBackwards):
		return status.Error(codes.Unavailable, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}

func (ss *serviceServer) Next(ctx context.Context, req *api.NextRequest) (*api.NextResponse, error) {
	ids, err := ss.sv.NextIDs(ctx, req.Count)
	if err != nil {
		return nil, toStatusError(err)
	}
	resp := &api.NextResponse{Node: ss.sv.Config.Node, IDs: make([]string, len(ids))}
	for i, id := range ids {
		resp.IDs[i] = id.String()
	}
	return resp, nil
}

func (ss *serviceServer) Inspect(_ context.Context, req *api.InspectRequest) (*api.InspectResponse, error) {
	id, err := ss.sv.Inspect(req.ID)
	if err != nil {
		return nil, toStatusError(err)
	}
	return NewInspectResponse(id), nil
}

func (ss *serviceServer) Status(_ context.Context, _ *api.StatusRequest) (*api.StatusResponse, error) {
	st := ss.sv.Status()
	return &api.StatusResponse{
		Name:          st.Name,
		Node:          st.Node,
		Issued:        st.Issued,
		Exhausted:     st.Exhausted,
		Regressions:   st.Regressions,
		LastTimestamp: st.LastTimestamp,
		UptimeSeconds: int64(time.Since(st.Started) / time.Second),
	}, nil
}

// NewInspectResponse lays out the fields of id.
func NewInspectResponse(id idgen.ID) *api.InspectResponse {
	return &api.InspectResponse{
		ID:        id.String(),
		Timestamp: id.Timestamp(),
		Time:      id.Time().Format(time.RFC3339Nano),
		Sequence:  uint32(id.Sequence()),
		Node:      id.Node(),
		Version:   uint32(id.Version()),
		Variant:   uint32(id.Variant()),
	}
}
