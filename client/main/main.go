package main

import (
	"context"
	"time"

	grb "github.com/desertbit/grumble"
	"github.com/vigilglc/sortid/client"
	"github.com/vigilglc/sortid/client/app"
	"github.com/vigilglc/sortid/server/api/rpcpb"
)

const requestTimeout = 5 * time.Second

func initApp(ctx context.Context) {
	var agent client.Agent
	app.SetOnHostsFunc(func(hosts []string) error {
		if len(hosts) == 0 {
			return app.ErrClientStateInvalid
		}
		agent = client.NewAgent(ctx, hosts)
		return nil
	})
	app.SetExeNextFunc(func(count uint32) (resp *rpcpb.NextResponse, err error) {
		err = agent.Pick(func(ctx context.Context, cli client.Client) error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			resp, err = cli.Next(ctx, &rpcpb.NextRequest{Count: count})
			return err
		})
		return
	})
	app.SetExeInspectFunc(func(ID string) (resp *rpcpb.InspectResponse, err error) {
		err = agent.Pick(func(ctx context.Context, cli client.Client) error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			resp, err = cli.Inspect(ctx, &rpcpb.InspectRequest{ID: ID})
			return err
		})
		return
	})
	app.SetExeStatusFunc(func(node *uint32) (resps []*rpcpb.StatusResponse, err error) {
		var status = func(ctx context.Context, cli client.Client) error {
			ctx, cancel := context.WithTimeout(ctx, requestTimeout)
			defer cancel()
			resp, err := cli.Status(ctx, &rpcpb.StatusRequest{})
			if err == nil {
				resps = append(resps, resp)
			}
			return err
		}
		if node != nil {
			err = agent.PickByNode(*node, status)
			return
		}
		for _, n := range agent.AllNodes() {
			if err = agent.PickByNode(n, status); err != nil {
				return
			}
		}
		return
	})
	app.App.OnClose(func() error {
		if agent != nil {
			return agent.Close()
		}
		return nil
	})
}

func main() {
	initApp(context.Background())
	grb.Main(app.App)
}
