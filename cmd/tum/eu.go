package main

import (
	"context"
	"fmt"

	"golang.org/x/sync/semaphore"

	"github.com/mehrannoway-ops/TuM/internal/autosync"
	"github.com/mehrannoway-ops/TuM/internal/config"
	euinternal "github.com/mehrannoway-ops/TuM/internal/eu"
	"github.com/mehrannoway-ops/TuM/internal/portscan"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
	"github.com/mehrannoway-ops/TuM/internal/sizing"
	"github.com/mehrannoway-ops/TuM/internal/supervisor"
	"github.com/mehrannoway-ops/TuM/internal/tcptune"
)

// runEU wires the dial-concurrency semaphore, one Dialer Worker per
// desired steady-state bridge connection, and (if enabled) the
// AutoSync client, registering every loop with root.
func runEU(root *supervisor.Root, tun config.Tunables, cfg config.EUConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid EU configuration: %w", err)
	}

	poolSize := sizing.PoolSize(sizing.RoleEU, tun.Pool)
	dials := semaphore.NewWeighted(int64(tun.DialConcurrency))

	workerOpts := euinternal.Options{
		IranIP:      cfg.IranIP,
		BridgePort:  cfg.BridgePort,
		LocalHost:   tun.EULocalHost,
		DialTimeout: tun.DialTimeout,
		PoolMaxAge:  tun.PoolMaxAge,
		Tune:        tcptune.Options{KeepaliveSecs: tun.KeepaliveSecs, SockBuf: tun.SockBuf},
		Proxy: proxy.Options{
			CopyChunk:      tun.CopyChunk,
			SessionIdle:    tun.SessionIdle,
			DrainThreshold: tun.DrainThreshold,
		},
	}

	for i := 0; i < poolSize; i++ {
		worker := euinternal.NewWorker(i, workerOpts, dials)
		root.Go(fmt.Sprintf("eu-dialer-%d", i), func(ctx context.Context) error {
			return worker.RunOnce(ctx)
		})
	}

	if cfg.EnableAutoSync {
		client := autosync.NewClient(autosync.ClientOptions{
			IranIP:       cfg.IranIP,
			SyncPort:     cfg.SyncPort,
			BridgePort:   cfg.BridgePort,
			SyncInterval: tun.SyncInterval,
			MaxSyncPorts: tun.MaxSyncPorts,
			DialTimeout:  tun.DialTimeout,
		}, portscan.Enumerate)

		root.Go("autosync-client", client.RunOnce)
	}

	log.Info("EU started", "iran_ip", cfg.IranIP, "bridge_port", cfg.BridgePort, "sync_port", cfg.SyncPort, "pool_size", poolSize, "auto_sync", cfg.EnableAutoSync)
	return nil
}
