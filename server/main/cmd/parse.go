package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

const (
	confFilePathFlag   = "config"
	nodeFlag           = "node"
	serviceAddrFlag    = "addr"
	metricsAddrFlag    = "metrics"
	spinYieldFlag      = "yield"
	developmentFlag    = "dev"
	logLevelFlag       = "level"
	logOutputPathsFlag = "logout"
)

type CommandFlags struct {
	bFlags  map[string]bool
	sFlags  map[string]string
	uFlags  map[string]uint32
	ssFlags map[string][]string
}

func NewCommandFlags() *CommandFlags {
	return &CommandFlags{
		bFlags:  map[string]bool{},
		sFlags:  map[string]string{},
		uFlags:  map[string]uint32{},
		ssFlags: map[string][]string{},
	}
}

func (cf *CommandFlags) ConfFilePath() (res string, set bool) {
	res, set = cf.sFlags[confFilePathFlag]
	return
}

func (cf *CommandFlags) Node() (res uint32, set bool) {
	res, set = cf.uFlags[nodeFlag]
	return
}

func (cf *CommandFlags) ServiceAddr() (res string, set bool) {
	res, set = cf.sFlags[serviceAddrFlag]
	return
}

func (cf *CommandFlags) MetricsAddr() (res string, set bool) {
	res, set = cf.sFlags[metricsAddrFlag]
	return
}

func (cf *CommandFlags) SpinYield() (res bool, set bool) {
	res, set = cf.bFlags[spinYieldFlag]
	return
}

func (cf *CommandFlags) Development() (res bool, set bool) {
	res, set = cf.bFlags[developmentFlag]
	return
}

func (cf *CommandFlags) LogLevel() (res string, set bool) {
	res, set = cf.sFlags[logLevelFlag]
	return
}

func (cf *CommandFlags) LogOutputPaths() (res []string, set bool) {
	res, set = cf.ssFlags[logOutputPathsFlag]
	return
}

type Hook func(cmdFlags *CommandFlags) error

// parseFlags collects the flags explicitly given on the command line.
func parseFlags(cmd *cobra.Command) (*CommandFlags, error) {
	var cmdFlags = NewCommandFlags()
	for _, sf := range [...]string{confFilePathFlag, serviceAddrFlag, metricsAddrFlag, logLevelFlag} {
		if val, err := cmd.Flags().GetString(sf); err == nil && len(val) != 0 {
			if val = strings.TrimSpace(val); len(val) == 0 {
				continue
			}
			cmdFlags.sFlags[sf] = val
		}
	}
	for _, bf := range [...]string{spinYieldFlag, developmentFlag} {
		if sBool, err := cmd.Flags().GetString(bf); err == nil && len(sBool) != 0 {
			sBool = strings.ToLower(strings.TrimSpace(sBool))
			var val = false
			if sBool == "true" {
				val = true
			} else if sBool != "false" {
				return nil, fmt.Errorf("cmd flag %s, true or false expected", bf)
			}
			cmdFlags.bFlags[bf] = val
		}
	}
	for _, uf := range [...]string{nodeFlag} {
		if sUint, err := cmd.Flags().GetString(uf); err == nil && len(sUint) != 0 {
			val, err := strconv.ParseUint(strings.TrimSpace(sUint), 0, 32)
			if err != nil {
				return nil, fmt.Errorf("cmd flag %s, 32-bit unsigned integer expected: %w", uf, err)
			}
			cmdFlags.uFlags[uf] = uint32(val)
		}
	}
	for _, ssf := range [...]string{logOutputPathsFlag} {
		if val, err := cmd.Flags().GetStringSlice(ssf); err == nil && len(val) != 0 {
			cmdFlags.ssFlags[ssf] = val
		}
	}
	return cmdFlags, nil
}

func newRootCommand(hook Hook) *cobra.Command {
	root := &cobra.Command{
		Use: "sortid-server [--config file] [--node id] [--addr host:port] [--metrics host:port] " +
			"[--yield true|false] [--dev true|false] [--level lv] [--logout out...]",
		Short:         "serve sortable 128-bit ids over grpc",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdFlags, err := parseFlags(cmd)
			if err != nil {
				return err
			}
			return hook(cmdFlags)
		},
	}
	root.Flags().String(confFilePathFlag, "", "server config file path")
	root.Flags().String(nodeFlag, "", "node id embedded in every id, decimal or 0x-prefixed")
	root.Flags().String(serviceAddrFlag, "", "grpc listen address")
	root.Flags().String(metricsAddrFlag, "", "prometheus metrics listen address")
	root.Flags().String(spinYieldFlag, "", "yield the processor while waiting for the next tick")
	root.Flags().String(developmentFlag, "", "development mode")
	root.Flags().String(logLevelFlag, "", "log level")
	root.Flags().StringSlice(logOutputPathsFlag, nil, "log output paths")
	return root
}

// Parse runs the root command against args and hands the parsed flags to hook.
func Parse(args []string, hook Hook) error {
	root := newRootCommand(hook)
	root.SetArgs(args)
	return root.Execute()
}
