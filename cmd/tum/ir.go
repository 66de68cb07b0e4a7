package main

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/mehrannoway-ops/TuM/internal/autosync"
	"github.com/mehrannoway-ops/TuM/internal/bridge"
	"github.com/mehrannoway-ops/TuM/internal/config"
	"github.com/mehrannoway-ops/TuM/internal/dispatcher"
	"github.com/mehrannoway-ops/TuM/internal/listener"
	"github.com/mehrannoway-ops/TuM/internal/pool"
	"github.com/mehrannoway-ops/TuM/internal/proxy"
	"github.com/mehrannoway-ops/TuM/internal/sizing"
	"github.com/mehrannoway-ops/TuM/internal/supervisor"
	"github.com/mehrannoway-ops/TuM/internal/tcptune"
)

// runIR wires the Bridge Pool, Bridge Acceptor, Listener Controller,
// Session Dispatcher, and (if enabled) the AutoSync Acceptor, then
// registers their long-lived loops with root.
func runIR(root *supervisor.Root, tun config.Tunables, cfg config.IRConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid IR configuration: %w", err)
	}

	tune := tcptune.Options{KeepaliveSecs: tun.KeepaliveSecs, SockBuf: tun.SockBuf}

	poolSize := sizing.PoolSize(sizing.RoleIR, tun.Pool)
	bp := pool.New(2*poolSize, clock.New())

	bridgeAddr := net.JoinHostPort(tun.IRBind, itoa(cfg.BridgePort))
	acceptor, err := bridge.New(bridgeAddr, tun.BacklogBridge, bp, tune)
	if err != nil {
		return fmt.Errorf("bind bridge port: %w", err)
	}
	root.Go("bridge-acceptor", func(ctx context.Context) error {
		go func() { <-ctx.Done(); _ = acceptor.Close() }()
		return acceptor.Run()
	})

	disp := dispatcher.New(bp, dispatcher.Options{
		PoolWait:       tun.PoolWait,
		PoolMaxAge:     tun.PoolMaxAge,
		HeaderDeadline: tun.PoolWait,
		Tune:           tune,
		Proxy: proxy.Options{
			CopyChunk:      tun.CopyChunk,
			SessionIdle:    tun.SessionIdle,
			DrainThreshold: tun.DrainThreshold,
		},
	}, tun.MaxSessions)

	ctrl := listener.New(tun.IRBind, tun.BacklogPorts, cfg.BridgePort, cfg.SyncPort,
		func(port int, conn net.Conn) {
			disp.Handle(root.Context(), port, conn)
		})

	root.Go("pool-pinger", func(ctx context.Context) error {
		bp.RunPinger(ctx, tun.PoolPingInterval, tun.PoolMaxAge, time.Second)
		return nil
	})
	root.Go("pool-recycler", func(ctx context.Context) error {
		bp.RunRecycler(ctx, tun.RecycleInterval(), tun.PoolMaxAge)
		return nil
	})

	if cfg.AutoSync {
		syncAddr := net.JoinHostPort(tun.IRBind, itoa(cfg.SyncPort))
		syncAcceptor, err := autosync.NewAcceptor(syncAddr, tun.BacklogSync, tun.MaxSyncPorts, ctrl.ApplyDesired)
		if err != nil {
			return fmt.Errorf("bind sync port: %w", err)
		}
		root.Go("autosync-acceptor", func(ctx context.Context) error {
			go func() { <-ctx.Done(); _ = syncAcceptor.Close() }()
			return syncAcceptor.Run()
		})
	} else {
		ctrl.ApplyDesired(cfg.ManualPorts)
	}

	root.Go("listener-shutdown", func(ctx context.Context) error {
		<-ctx.Done()
		ctrl.CloseAll()
		return nil
	})

	log.Info("IR started", "bridge_port", cfg.BridgePort, "sync_port", cfg.SyncPort, "auto_sync", cfg.AutoSync, "pool_size", poolSize)
	return nil
}
