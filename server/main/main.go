package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/vigilglc/sortid/server/api"
	"github.com/vigilglc/sortid/server/config"
	"github.com/vigilglc/sortid/server/main/cmd"
)

// configEnv names the config file when --config is not given, may come from .env.
const configEnv = "SORTID_CONFIG"

func main() {
	_ = godotenv.Load()
	var cfg *config.ServerConfig
	if err := cmd.Parse(os.Args[1:], func(cmdFlags *cmd.CommandFlags) (err error) {
		fn, set := cmdFlags.ConfFilePath()
		if !set {
			fn, set = os.LookupEnv(configEnv)
		}
		if set {
			cfg, err = config.ReadServerConfig(fn)
		} else {
			cfg = config.DefaultServerConfig()
		}
		if err != nil {
			return err
		}
		if u, set := cmdFlags.Node(); set {
			cfg.Node = u
		}
		if s, set := cmdFlags.ServiceAddr(); set {
			cfg.ServiceAddr = s
		}
		if s, set := cmdFlags.MetricsAddr(); set {
			cfg.MetricsAddr = s
		}
		if b, set := cmdFlags.SpinYield(); set {
			cfg.SpinYield = b
		}
		if b, set := cmdFlags.Development(); set {
			cfg.Development = b
		}
		if s, set := cmdFlags.LogLevel(); set {
			cfg.LogLevel = s
		}
		if ss, set := cmdFlags.LogOutputPaths(); set {
			cfg.LogOutputPaths = ss
		}
		return config.Validate(cfg)
	}); err != nil {
		log.Fatal(err)
	}
	if cfg == nil {
		return
	}
	if err := api.StartService(cfg); err != nil {
		log.Fatal(err)
	}
}
