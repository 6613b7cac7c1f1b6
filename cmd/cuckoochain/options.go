package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/decred/slog"
	"github.com/jrick/logrotate/rotator"

	"github.com/cuckoochain/node/blockchain"
	"github.com/cuckoochain/node/chaincfg"
	"github.com/cuckoochain/node/internal/logctx"
	"github.com/cuckoochain/node/mempool"
	"github.com/cuckoochain/node/p2p"
	"github.com/cuckoochain/node/pow"
)

// globalOptions are shared by every subcommand, mirroring the teacher's
// params.go network-selection pattern.
type globalOptions struct {
	Network  string `short:"n" long:"network" description:"network profile" choice:"mainnet" choice:"regtest" default:"mainnet"`
	DataDir  string `short:"d" long:"datadir" description:"data directory" default:"~/.cuckoochain"`
	LogLevel string `long:"loglevel" description:"logging level" choice:"trace" choice:"debug" choice:"info" choice:"warn" choice:"error" default:"info"`
}

func (o *globalOptions) params() (*chaincfg.Params, error) {
	switch o.Network {
	case "mainnet":
		return chaincfg.MainNetParams(), nil
	case "regtest":
		return chaincfg.RegNetParams(), nil
	default:
		return nil, fmt.Errorf("unknown network %q", o.Network)
	}
}

func (o *globalOptions) dataDir() (string, error) {
	dir := o.DataDir
	if dir == "~/.cuckoochain" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(home, ".cuckoochain")
	}
	return filepath.Join(dir, o.Network), nil
}

// initLogging opens a rotating log file under dataDir/logs and attaches it,
// alongside stdout, as the backend for every package's subsystem logger,
// following the teacher's UseLogger wiring convention.
func initLogging(dataDir, level string) (io.Closer, error) {
	logDir := filepath.Join(dataDir, "logs")
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, err
	}

	logFile := filepath.Join(logDir, "cuckoochain.log")
	r := rotator.New(logFile, 10*1024, false, 3)

	backend := logctx.NewBackend(io.MultiWriter(os.Stdout, r))

	lvl, ok := slog.LevelFromString(level)
	if !ok {
		lvl = slog.LevelInfo
	}

	attach := func(name string, use func(slog.Logger)) {
		l := backend.Logger(name)
		l.SetLevel(lvl)
		use(l)
	}
	attach("POW ", pow.UseLogger)
	attach("CHST", blockchain.UseLogger)
	attach("MPOL", mempool.UseLogger)
	attach("P2P ", p2p.UseLogger)

	return r, nil
}
