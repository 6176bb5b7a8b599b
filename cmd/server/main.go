package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/mmo-game/internal/api"
	"github.com/annel0/mmo-game/internal/auth"
	"github.com/annel0/mmo-game/internal/chunklifecycle"
	"github.com/annel0/mmo-game/internal/config"
	"github.com/annel0/mmo-game/internal/engine"
	"github.com/annel0/mmo-game/internal/eventbus"
	"github.com/annel0/mmo-game/internal/logging"
	"github.com/annel0/mmo-game/internal/network"
	"github.com/annel0/mmo-game/internal/observability"
	"github.com/annel0/mmo-game/internal/presence"
	"github.com/annel0/mmo-game/internal/scripthost"
	"github.com/annel0/mmo-game/internal/storage"
	"github.com/annel0/mmo-game/internal/terrainipc"
	"github.com/annel0/mmo-game/internal/worldstore"
)

func main() {
	if err := logging.InitLogger(); err != nil {
		log.Fatalf("logging init failed: %v", err)
	}
	defer logging.CloseLogger()

	logging.Info("starting world-core server")

	shutdownTel, err := observability.InitTelemetry(context.Background(), "mmo_server")
	if err != nil {
		logging.Warn("OpenTelemetry init failed, continuing without tracing: %v", err)
	}

	cfg, err := config.Load("")
	if err != nil {
		logging.Warn("config load failed, using defaults: %v", err)
	}
	var serverCfg config.ServerConfig
	var worldCfg config.WorldConfig
	var presenceCfg config.PresenceConfig
	var eventBusCfg config.EventBusConfig
	if cfg != nil {
		serverCfg = cfg.Server
		worldCfg = cfg.World
		presenceCfg = cfg.Presence
		eventBusCfg = cfg.EventBus
	}

	gameAddr := portAddr(serverCfg.GetTCPPort())
	restAddr := portAddr(serverCfg.GetRESTPort())
	metricsAddr := portAddr(serverCfg.GetMetricsPort())
	saveRoot := worldCfg.GetSaveRoot()
	terraingenPath := worldCfg.GetTerrainGenPath()

	logging.Info("config: game=%s rest=%s metrics=%s save_root=%s terraingen=%s", gameAddr, restAddr, metricsAddr, saveRoot, terraingenPath)

	// === WORLD EVENT BUS ===
	// A durable JetStream bus is used only when explicitly configured;
	// otherwise connect/disconnect notifications still flow to any
	// in-process subscriber (the logging listener below) over an in-memory
	// bus, so chat-router/analytics consumers have something to attach to
	// in local/dev runs without a NATS cluster.
	var bus eventbus.EventBus
	if eventBusCfg.URL != "" {
		retention := 24 * time.Hour
		if eventBusCfg.Retention > 0 {
			retention = time.Duration(eventBusCfg.Retention) * time.Hour
		}
		jsBus, err := eventbus.NewJetStreamBus(eventBusCfg.URL, eventBusCfg.Stream, retention)
		if err != nil {
			logging.Warn("JetStream event bus unavailable, falling back to in-memory: %v", err)
			bus = eventbus.NewMemoryBus(256)
		} else {
			bus = jsBus
			logging.Info("event bus: JetStream connected at %s (stream=%s)", eventBusCfg.URL, eventBusCfg.Stream)
		}
	} else {
		bus = eventbus.NewMemoryBus(256)
		logging.Info("event bus: in-memory (no eventbus.url configured)")
	}
	eventbus.Init(bus)
	if err := eventbus.StartLoggingListener(bus); err != nil {
		logging.Warn("event bus logging listener failed to start: %v", err)
	}
	metricsExporter := eventbus.NewMetricsExporter(bus)
	metricsExporter.StartHTTP(metricsAddr)

	// === SAVE LAYER + TERRAIN GENERATOR SUBPROCESS ===
	save, err := storage.Open(saveRoot)
	if err != nil {
		log.Fatalf("storage.Open failed: %v", err)
	}

	genCtx, genCancel := context.WithCancel(context.Background())
	defer genCancel()
	gen, err := terrainipc.Spawn(genCtx, terraingenPath, saveRoot)
	if err != nil {
		log.Fatalf("terrainipc.Spawn failed: %v", err)
	}
	defer gen.Close()

	// === WORLD STATE + CHUNK LIFECYCLE ===
	store := worldstore.New()
	coord := chunklifecycle.NewCoordinator(store, save, gen)
	chunkMgr := chunklifecycle.New(coord)

	// === NETWORK + ENGINE ===
	// No embedded script engine registers hooks here; this Registry exists
	// so one could attach on_client_login/on_timer_fired/on_structure_import
	// callbacks without any further wiring changes.
	scripts := scripthost.NewRegistry()
	coord.Scripts = scripts

	netServer := network.NewServer(gameAddr)
	eng := engine.New(store, chunkMgr, coord, netServer)
	eng.Events = bus
	eng.Scripts = scripts

	if addr := presenceCfg.GetRedisAddr(); addr != "" {
		presCfg := presence.DefaultConfig()
		presCfg.Addr = addr
		presCfg.Password = presenceCfg.RedisPassword
		presCfg.DB = presenceCfg.RedisDB
		presCfg.NodeID = presenceCfg.GetNodeID()
		eng.Presence = presence.New(presCfg)
		logging.Info("presence: tracking online clients via redis at %s", addr)
	} else {
		logging.Info("presence: no redis configured, presence tracking disabled")
	}

	if err := netServer.Start(); err != nil {
		log.Fatalf("network.Server.Start failed: %v", err)
	}
	go eng.Run()

	// === REST API ===
	userRepo, err := auth.NewMemoryUserRepo()
	if err != nil {
		log.Fatalf("auth.NewMemoryUserRepo failed: %v", err)
	}

	restServer := api.NewRestServer(api.Config{
		Port:   restAddr,
		Users:  userRepo,
		Engine: eng,
	})
	go func() {
		if err := restServer.Start(); err != nil {
			logging.Error("REST API stopped: %v", err)
		}
	}()

	logging.Info("ready: game traffic on %s, admin API on %s", gameAddr, restAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logging.Info("received signal %v, shutting down", sig)

	eng.Stop()
	netServer.Stop()
	metricsExporter.Stop()
	if err := restServer.Stop(); err != nil {
		logging.Error("REST API stop failed: %v", err)
	}
	if eng.Presence != nil {
		if err := eng.Presence.Close(); err != nil {
			logging.Warn("presence registry close failed: %v", err)
		}
	}
	if shutdownTel != nil {
		_ = shutdownTel(context.Background())
	}

	logging.Info("server stopped")
}

func portAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}
