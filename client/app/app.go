package app

import (
	"math"
	"strings"

	grb "github.com/desertbit/grumble"
	jsoniter "github.com/json-iterator/go"
	"github.com/vigilglc/sortid/server/api/rpcpb"
)

const (
	flagHost = "host"

	argCount = "N"
	argID    = "ID"
	argNode  = "node"
)

var (
	exeNext    func(count uint32) (*rpcpb.NextResponse, error)
	exeInspect func(ID string) (*rpcpb.InspectResponse, error)
	exeStatus  func(node *uint32) ([]*rpcpb.StatusResponse, error)
	onHosts    func(hosts []string) error
)

func SetExeNextFunc(f func(count uint32) (*rpcpb.NextResponse, error)) { exeNext = f }

func SetExeInspectFunc(f func(ID string) (*rpcpb.InspectResponse, error)) { exeInspect = f }

// SetExeStatusFunc sets the STATUS executor, a nil node asks every known node.
func SetExeStatusFunc(f func(node *uint32) ([]*rpcpb.StatusResponse, error)) { exeStatus = f }

// SetOnHostsFunc is called once with the hosts given by --host before the shell starts.
func SetOnHostsFunc(f func(hosts []string) error) { onHosts = f }

var json = jsoniter.ConfigCompatibleWithStandardLibrary

func printJSON(c *grb.Context, v interface{}) error {
	bs, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = c.App.Println(string(bs))
	return err
}

var (
	App = grb.New(&grb.Config{
		Name:        "sortid-cli",
		Description: "client for sortid-server",
		Flags: func(f *grb.Flags) {
			f.StringL(flagHost, "127.0.0.1:7410", "host to connect, e.g. \"127.0.0.1:7410\"")
		},
		HistoryLimit: 1000,
		Prompt:       ">>>",
	})

	cmdNext = &grb.Command{
		Name:    "NEXT",
		Aliases: []string{"next"},
		Help:    "generate N ids",
		Usage:   "NEXT [N]",
		Args: func(a *grb.Args) {
			a.Uint64(argCount, "count of ids to generate", grb.Default(uint64(1)))
		},
		Run: func(c *grb.Context) error {
			N := c.Args.Uint64(argCount)
			if N == 0 || N > math.MaxUint32 {
				return ErrCountArgumentInvalid
			}
			if exeNext == nil {
				return ErrClientStateInvalid
			}
			resp, err := exeNext(uint32(N))
			if err != nil {
				return err
			}
			for _, ID := range resp.IDs {
				_, _ = c.App.Println(ID)
			}
			return nil
		},
	}
	cmdInspect = &grb.Command{
		Name:    "INSPECT",
		Aliases: []string{"inspect"},
		Help:    "decode an id into its fields",
		Usage:   "INSPECT ID",
		Args: func(a *grb.Args) {
			a.String(argID, "id in canonical form, e.g. \"1ef0c2a4-3b5d-4e21-8000-0000002a9f1c\"")
		},
		Run: func(c *grb.Context) error {
			if exeInspect == nil {
				return ErrClientStateInvalid
			}
			resp, err := exeInspect(strings.TrimSpace(c.Args.String(argID)))
			if err != nil {
				return err
			}
			return printJSON(c, resp)
		},
	}
	cmdStatus = &grb.Command{
		Name:    "STATUS",
		Aliases: []string{"status"},
		Help:    "get generator status",
		Usage:   "STATUS [node]",
		Args: func(a *grb.Args) {
			a.Int64(argNode, "node to ask, every node if omitted", grb.Default(int64(-1)))
		},
		Run: func(c *grb.Context) error {
			if exeStatus == nil {
				return ErrClientStateInvalid
			}
			var node *uint32
			if n := c.Args.Int64(argNode); n >= 0 {
				if n > math.MaxUint32 {
					return ErrNodeArgumentInvalid
				}
				u := uint32(n)
				node = &u
			}
			resp, err := exeStatus(node)
			if err != nil {
				return err
			}
			return printJSON(c, resp)
		},
	}
)

func init() {
	App.AddCommand(cmdNext)
	App.AddCommand(cmdInspect)
	App.AddCommand(cmdStatus)

	App.OnInit(func(a *grb.App, flags grb.FlagMap) error {
		var hosts []string
		for _, host := range strings.Split(flags.String(flagHost), ";") {
			if host = strings.TrimSpace(host); len(host) != 0 {
				hosts = append(hosts, host)
			}
		}
		if onHosts == nil {
			return ErrClientStateInvalid
		}
		return onHosts(hosts)
	})
}
