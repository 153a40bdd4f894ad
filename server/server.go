package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vigilglc/sortid/server/config"
	"github.com/vigilglc/sortid/server/idgen"
	"github.com/vigilglc/sortid/server/metrics"
	"go.uber.org/zap"
)

type Server struct {
	lg      *zap.Logger
	Config  *config.ServerConfig
	gen     *idgen.Generator
	metrics *metrics.Metrics
	started time.Time
}

type Status struct {
	idgen.Stats
	Name    string
	Started time.Time
}

func NewServer(cfg *config.ServerConfig, opts ...idgen.Option) *Server {
	gen := idgen.New(cfg.Node, append(cfg.GetGeneratorOptions(), opts...)...)
	srv := &Server{
		lg:      cfg.GetLogger(),
		Config:  cfg,
		gen:     gen,
		metrics: metrics.New(gen.Stats),
		started: time.Now(),
	}
	srv.lg.Info("id generator started",
		zap.Uint32("node", cfg.Node),
		zap.Bool("spin-yield", cfg.SpinYield),
		zap.Uint32("max-batch", cfg.MaxBatch),
	)
	return srv
}

func (srv *Server) Metrics() *metrics.Metrics { return srv.metrics }

// NextIDs mints count ids in generation order, zero count means one.
func (srv *Server) NextIDs(ctx context.Context, count uint32) (ids []idgen.ID, err error) {
	if count == 0 {
		count = 1
	}
	if count > srv.Config.MaxBatch {
		return nil, fmt.Errorf("%w: count %d exceeds max batch %d", ErrInvalidArgs, count, srv.Config.MaxBatch)
	}
	srv.metrics.BatchSize.Observe(float64(count))
	ids = make([]idgen.ID, 0, count)
	for i := uint32(0); i < count; i++ {
		if err = ctx.Err(); err != nil {
			return nil, err
		}
		id, err := srv.gen.Next()
		if err != nil {
			srv.lg.Error("failed to generate id", zap.Uint32("count", count), zap.Error(err))
			if errors.Is(err, idgen.ErrClockMovedBackwards) {
				return nil, fmt.Errorf("%w: %v", ErrClockMovedBackwards, err)
			}
			return nil, err
		}
		ids = append(ids, id)
	}
	srv.lg.Debug("generated ids", zap.Uint32("count", count), zap.Stringer("first", ids[0]))
	return ids, nil
}

// Inspect decodes an id minted by any node.
func (srv *Server) Inspect(s string) (idgen.ID, error) {
	id, err := idgen.Parse(s)
	if err != nil {
		return idgen.Nil, fmt.Errorf("%w: %v", ErrMalformedID, err)
	}
	return id, nil
}

func (srv *Server) Status() Status {
	return Status{
		Stats:   srv.gen.Stats(),
		Name:    srv.Config.Name,
		Started: srv.started,
	}
}
