package client

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/vigilglc/sortid/server/api/rpcpb"
	"github.com/vigilglc/sortid/server/utils/syncutil"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	ErrNoAvailableClients = errors.New("client-agent: no available clients")
	ErrAgentStopped       = errors.New("client-agent: stopped")
)

// Agent spreads calls over several servers, each minting ids for its own node.
// A server answering Unavailable or Internal, e.g. after its clock moved backwards,
// is parked until a later Resolve finds it healthy again.
type Agent interface {
	Context() context.Context
	AllHosts() []string
	AllNodes() []uint32
	AddClients(hosts []string)
	Close() error
	Resolve() error
	Pick(act func(context.Context, Client) error) error
	PickByNode(node uint32, act func(context.Context, Client) error) error
}

const (
	resolveTimeout  = 1 * time.Second
	resolveInterval = 10 * time.Second
)

type agentClient struct {
	Client
	node uint32
}

type agent struct {
	ctx      context.Context
	cancel   func()
	dialOpts []grpc.DialOption

	closeOnce sync.Once

	rwmu         sync.RWMutex
	aliveClients map[string]*agentClient
	deadClients  map[string]*agentClient

	aliveClientsSlc []*agentClient

	fw         syncutil.FuncWatcher
	resolveReq chan chan error
}

func NewAgent(ctx context.Context, initHosts []string, dialOpts ...grpc.DialOption) Agent {
	ret := new(agent)
	ret.ctx, ret.cancel = context.WithCancel(ctx)
	ret.dialOpts = dialOpts
	ret.aliveClients = map[string]*agentClient{}
	ret.deadClients = map[string]*agentClient{}
	ret.resolveReq = make(chan chan error)

	ret.AddClients(initHosts)
	ret.fw.Attach(func() {
		var timer = time.NewTimer(resolveInterval)
		defer timer.Stop()
		for {
			select {
			case <-ret.ctx.Done():
				return
			case <-timer.C:
				_ = ret.doResolve()
				timer.Reset(resolveInterval)
			case errC := <-ret.resolveReq:
				errC <- ret.doResolve()
				timer.Reset(resolveInterval)
			}
		}
	})
	return ret
}

func (agt *agent) Context() context.Context {
	return agt.ctx
}

func (agt *agent) AddClients(hosts []string) {
	for _, host := range hosts {
		host = strings.TrimSpace(host)
		if len(host) == 0 {
			continue
		}
		agt.rwmu.RLock()
		_, alive := agt.aliveClients[host]
		_, dead := agt.deadClients[host]
		agt.rwmu.RUnlock()
		if alive || dead {
			continue
		}
		cli, err := NewClient(agt.ctx, host, agt.dialOpts...)
		if err != nil {
			continue
		}
		ac := &agentClient{Client: cli}
		healthy := agt.probe(ac) == nil
		agt.rwmu.Lock()
		_, alive = agt.aliveClients[host]
		_, dead = agt.deadClients[host]
		if alive || dead {
			agt.rwmu.Unlock()
			_ = cli.Close()
			continue
		}
		if healthy {
			agt.aliveClients[host] = ac
		} else {
			agt.deadClients[host] = ac
		}
		agt.rebuildAliveSlc()
		agt.rwmu.Unlock()
	}
}

// probe asks the server for its node, which also tells whether it is reachable.
func (agt *agent) probe(ac *agentClient) error {
	ctx, cancel := context.WithTimeout(agt.ctx, resolveTimeout)
	defer cancel()
	resp, err := ac.Status(ctx, &rpcpb.StatusRequest{})
	if err != nil {
		return err
	}
	ac.node = resp.Node
	return nil
}

func (agt *agent) AllHosts() []string {
	defer syncutil.SchedLockers(agt.rwmu.RLocker())()
	var hosts []string
	for _, hc := range [...]map[string]*agentClient{agt.aliveClients, agt.deadClients} {
		for host := range hc {
			hosts = append(hosts, host)
		}
	}
	return hosts
}

func (agt *agent) AllNodes() []uint32 {
	defer syncutil.SchedLockers(agt.rwmu.RLocker())()
	var nodes []uint32
	for _, cli := range agt.aliveClientsSlc {
		nodes = append(nodes, cli.node)
	}
	return nodes
}

func (agt *agent) Close() (err error) {
	agt.closeOnce.Do(func() {
		agt.cancel()
		agt.fw.Wait()
		defer syncutil.SchedLockers(&agt.rwmu)()
		for _, hc := range [...]map[string]*agentClient{agt.aliveClients, agt.deadClients} {
			for _, cli := range hc {
				if er := cli.Close(); err == nil {
					err = er
				}
			}
		}
		agt.aliveClients = map[string]*agentClient{}
		agt.deadClients = map[string]*agentClient{}
		agt.aliveClientsSlc = nil
	})
	return
}

// Resolve probes parked servers now instead of waiting for the next interval.
func (agt *agent) Resolve() error {
	errC := make(chan error, 1)
	select {
	case <-agt.ctx.Done():
		return ErrAgentStopped
	case agt.resolveReq <- errC:
	}
	return <-errC
}

func (agt *agent) doResolve() error {
	agt.rwmu.RLock()
	var dead []*agentClient
	for _, cli := range agt.deadClients {
		dead = append(dead, cli)
	}
	agt.rwmu.RUnlock()
	var err error
	for _, cli := range dead {
		if er := agt.probe(cli); er != nil {
			err = er
			continue
		}
		agt.deadClient2Alive(cli.Host())
	}
	return err
}

func (agt *agent) Pick(act func(context.Context, Client) error) error {
	for {
		agt.rwmu.RLock()
		if len(agt.aliveClientsSlc) == 0 {
			agt.rwmu.RUnlock()
			return ErrNoAvailableClients
		}
		cli := agt.aliveClientsSlc[rand.Intn(len(agt.aliveClientsSlc))]
		agt.rwmu.RUnlock()
		err := act(agt.ctx, cli)
		if shouldParkClient(err) {
			agt.aliveClient2Dead(cli.Host())
		} else {
			return err
		}
	}
}

func (agt *agent) PickByNode(node uint32, act func(context.Context, Client) error) error {
	agt.rwmu.RLock()
	var client *agentClient
	for _, cli := range agt.aliveClientsSlc {
		if cli.node == node {
			client = cli
			break
		}
	}
	agt.rwmu.RUnlock()
	if client == nil {
		return ErrNoAvailableClients
	}
	err := act(agt.ctx, client)
	if shouldParkClient(err) {
		agt.aliveClient2Dead(client.Host())
	}
	return err
}

func shouldParkClient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, grpc.ErrServerStopped) {
		return true
	}
	if s, ok := status.FromError(err); ok {
		switch s.Code() {
		case codes.Internal, codes.Unavailable:
			return true
		}
	}
	return false
}

// rebuildAliveSlc must be called with rwmu held.
func (agt *agent) rebuildAliveSlc() {
	agt.aliveClientsSlc = agt.aliveClientsSlc[:0]
	for _, cli := range agt.aliveClients {
		agt.aliveClientsSlc = append(agt.aliveClientsSlc, cli)
	}
}

func (agt *agent) aliveClient2Dead(host string) {
	defer syncutil.SchedLockers(&agt.rwmu)()
	if cli, ok := agt.aliveClients[host]; ok {
		delete(agt.aliveClients, host)
		agt.deadClients[host] = cli
		agt.rebuildAliveSlc()
	}
}

func (agt *agent) deadClient2Alive(host string) {
	defer syncutil.SchedLockers(&agt.rwmu)()
	if cli, ok := agt.deadClients[host]; ok {
		delete(agt.deadClients, host)
		agt.aliveClients[host] = cli
		agt.rebuildAliveSlc()
	}
}
