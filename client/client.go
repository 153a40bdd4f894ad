package client

import (
	"context"
	"errors"
	"sync"

	"github.com/vigilglc/sortid/server/api/rpcpb"
	"github.com/vigilglc/sortid/server/utils/syncutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

var (
	ErrClientClosed = errors.New("client: closed")
)

type Client interface {
	rpcpb.IDServiceClient
	Host() string
	Closed() bool
	Close() error
}

type rpcClient struct {
	host string

	rwmu   sync.RWMutex
	conn   *grpc.ClientConn
	closed bool
	idCli  rpcpb.IDServiceClient
}

// NewClient dials host lazily, opts are appended to the default dial options.
func NewClient(ctx context.Context, host string, opts ...grpc.DialOption) (Client, error) {
	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		rpcpb.CallOptions(),
	}, opts...)
	conn, err := grpc.DialContext(ctx, host, dialOpts...)
	if err != nil {
		return nil, err
	}
	return &rpcClient{host: host, conn: conn, idCli: rpcpb.NewIDServiceClient(conn)}, nil
}

func (rc *rpcClient) Next(ctx context.Context, in *rpcpb.NextRequest, opts ...grpc.CallOption) (*rpcpb.NextResponse, error) {
	defer syncutil.SchedLockers(rc.rwmu.RLocker())()
	if rc.closed {
		return nil, ErrClientClosed
	}
	return rc.idCli.Next(ctx, in, opts...)
}

func (rc *rpcClient) Inspect(ctx context.Context, in *rpcpb.InspectRequest, opts ...grpc.CallOption) (*rpcpb.InspectResponse, error) {
	defer syncutil.SchedLockers(rc.rwmu.RLocker())()
	if rc.closed {
		return nil, ErrClientClosed
	}
	return rc.idCli.Inspect(ctx, in, opts...)
}

func (rc *rpcClient) Status(ctx context.Context, in *rpcpb.StatusRequest, opts ...grpc.CallOption) (*rpcpb.StatusResponse, error) {
	defer syncutil.SchedLockers(rc.rwmu.RLocker())()
	if rc.closed {
		return nil, ErrClientClosed
	}
	return rc.idCli.Status(ctx, in, opts...)
}

func (rc *rpcClient) Host() string {
	return rc.host
}

func (rc *rpcClient) Closed() bool {
	defer syncutil.SchedLockers(rc.rwmu.RLocker())()
	return rc.closed
}

func (rc *rpcClient) Close() error {
	defer syncutil.SchedLockers(&rc.rwmu)()
	if rc.closed {
		return nil
	}
	rc.closed = true
	return rc.conn.Close()
}
