// Command tum runs a reverse TCP tunnel: it acts as either the IR
// (public-facing) or EU (backend-access) side, selected interactively
// at startup.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mehrannoway-ops/TuM/internal/bootstrap"
	"github.com/mehrannoway-ops/TuM/internal/config"
	"github.com/mehrannoway-ops/TuM/internal/logging"
	"github.com/mehrannoway-ops/TuM/internal/rlimit"
	"github.com/mehrannoway-ops/TuM/internal/supervisor"
)

var log = logging.Logger("main")

func main() {
	os.Exit(run())
}

func run() int {
	role := flag.String("role", "", "skip the interactive role prompt: \"eu\" or \"ir\"")
	flag.Parse()

	tun := config.Default()
	tun.ApplyEnv()
	if err := tun.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}

	raised := rlimit.Raise(uint64(tun.NofileTarget))
	log.Info("raised soft nofile limit", "target", tun.NofileTarget, "actual", raised)

	p := bootstrap.New(os.Stdin, os.Stdout)

	roleName := *role
	if roleName == "" {
		selected, err := p.SelectRole()
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		roleName = selected
	}

	root := supervisor.NewRoot()

	var runErr error
	switch roleName {
	case "eu":
		cfg, err := p.EUConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid EU configuration: %v\n", err)
			return 1
		}
		runErr = runEU(root, tun, cfg)
	case "ir":
		cfg, err := p.IRConfig()
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid IR configuration: %v\n", err)
			return 1
		}
		runErr = runIR(root, tun, cfg)
	default:
		fmt.Fprintln(os.Stderr, "invalid role selection")
		return 1
	}

	if runErr != nil {
		fmt.Fprintf(os.Stderr, "%v\n", runErr)
		return 1
	}

	root.WatchSignals()
	return 0
}
