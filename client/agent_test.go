package client

import (
	"context"
	"errors"
	"net"
	"sync/atomic"
	"testing"

	"github.com/vigilglc/sortid/server"
	"github.com/vigilglc/sortid/server/api"
	"github.com/vigilglc/sortid/server/api/rpcpb"
	"github.com/vigilglc/sortid/server/config"
	"github.com/vigilglc/sortid/server/idgen"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

type settableClock struct {
	ticks uint64
}

func (clk *settableClock) Ticks() uint64 { return atomic.LoadUint64(&clk.ticks) }
func (clk *settableClock) Set(ticks uint64) { atomic.StoreUint64(&clk.ticks, ticks) }

// startNodes serves one generator per node on in-memory listeners keyed by host name.
func startNodes(t *testing.T, nodes map[string]uint32, clocks map[string]idgen.Clock) grpc.DialOption {
	t.Helper()
	listeners := map[string]*bufconn.Listener{}
	for host, node := range nodes {
		cfg := config.DefaultServerConfig()
		cfg.Node = node
		cfg.LogLevel = "error"
		var opts []idgen.Option
		if clk, ok := clocks[host]; ok {
			opts = append(opts, idgen.WithClock(clk))
		}
		gSrv := api.NewGRPCServer(server.NewServer(cfg, opts...))
		lis := bufconn.Listen(1 << 20)
		go func() { _ = gSrv.Serve(lis) }()
		t.Cleanup(gSrv.Stop)
		listeners[host] = lis
	}
	return grpc.WithContextDialer(func(ctx context.Context, addr string) (net.Conn, error) {
		lis, ok := listeners[addr]
		if !ok {
			return nil, errors.New("unknown host " + addr)
		}
		return lis.Dial()
	})
}

func TestAgentPickSpreadsOverNodes(t *testing.T) {
	dialer := startNodes(t, map[string]uint32{"node-a": 1, "node-b": 2}, nil)
	agt := NewAgent(context.Background(), []string{"node-a", "node-b", " node-a "}, dialer)
	defer func() { _ = agt.Close() }()

	if hosts := agt.AllHosts(); len(hosts) != 2 {
		t.Fatalf("expected 2 hosts, actual: %v", hosts)
	}
	if nodes := agt.AllNodes(); len(nodes) != 2 {
		t.Fatalf("expected 2 alive nodes, actual: %v", nodes)
	}
	seen := map[uint32]struct{}{}
	for i := 0; i < 200 && len(seen) < 2; i++ {
		err := agt.Pick(func(ctx context.Context, c Client) error {
			resp, err := c.Next(ctx, &rpcpb.NextRequest{Count: 1})
			if err != nil {
				return err
			}
			id, err := idgen.Parse(resp.IDs[0])
			if err != nil {
				return err
			}
			seen[id.Node()] = struct{}{}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	if len(seen) != 2 {
		t.Fatalf("expected ids from both nodes, actual: %v", seen)
	}
}

func TestAgentParksNodeOnClockRegression(t *testing.T) {
	clk := &settableClock{ticks: 1000}
	dialer := startNodes(t, map[string]uint32{"node-a": 1, "node-b": 2},
		map[string]idgen.Clock{"node-a": clk})
	agt := NewAgent(context.Background(), []string{"node-a", "node-b"}, dialer)
	defer func() { _ = agt.Close() }()

	next := func(ctx context.Context, c Client) error {
		_, err := c.Next(ctx, &rpcpb.NextRequest{Count: 1})
		return err
	}
	if err := agt.PickByNode(1, next); err != nil {
		t.Fatal(err)
	}
	clk.Set(900)
	if err := agt.PickByNode(1, next); err == nil {
		t.Fatalf("expected clock regression error")
	}
	if nodes := agt.AllNodes(); len(nodes) != 1 || nodes[0] != 2 {
		t.Fatalf("expected only node 2 alive, actual: %v", nodes)
	}
	if err := agt.PickByNode(1, next); !errors.Is(err, ErrNoAvailableClients) {
		t.Fatalf("expected ErrNoAvailableClients, actual: %v", err)
	}
	for i := 0; i < 10; i++ {
		if err := agt.Pick(next); err != nil {
			t.Fatal(err)
		}
	}

	clk.Set(2000)
	if err := agt.Resolve(); err != nil {
		t.Fatal(err)
	}
	if nodes := agt.AllNodes(); len(nodes) != 2 {
		t.Fatalf("expected 2 alive nodes after resolve, actual: %v", nodes)
	}
	if err := agt.PickByNode(1, next); err != nil {
		t.Fatal(err)
	}
}

func TestAgentClosed(t *testing.T) {
	dialer := startNodes(t, map[string]uint32{"node-a": 1}, nil)
	agt := NewAgent(context.Background(), []string{"node-a"}, dialer)
	if err := agt.Close(); err != nil {
		t.Fatal(err)
	}
	if err := agt.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	if err := agt.Resolve(); !errors.Is(err, ErrAgentStopped) {
		t.Fatalf("expected ErrAgentStopped, actual: %v", err)
	}
	if err := agt.Pick(func(context.Context, Client) error { return nil }); !errors.Is(err, ErrNoAvailableClients) {
		t.Fatalf("expected ErrNoAvailableClients, actual: %v", err)
	}
}
