// Command conduit is the process entry point: it loads configuration,
// wires every collaborator the Dispatch Core needs, starts the configured
// channel adapters, and blocks until a shutdown or configuration-reload
// signal arrives. Grounded on Genesis's root main.go crash-retry/hot-reload
// loop.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/prometheus/client_golang/prometheus"

	"conduit/internal/budget"
	"conduit/internal/channel"
	"conduit/internal/config"
	"conduit/internal/connector/cmms"
	"conduit/internal/connector/gist"
	"conduit/internal/connector/plc"
	"conduit/internal/connector/shell"
	"conduit/internal/conversation"
	"conduit/internal/diagramrender"
	"conduit/internal/dispatch"
	"conduit/internal/health"
	"conduit/internal/kb"
	"conduit/internal/llmprovider"
	_ "conduit/internal/llmprovider/gemini"
	_ "conduit/internal/llmprovider/ollama"
	_ "conduit/internal/llmprovider/openai"
	"conduit/internal/metrics"
	"conduit/internal/monitor"
	"conduit/internal/ratelimit"
	"conduit/internal/router"
	"conduit/internal/skill"
)

var wireJSON = jsoniter.ConfigCompatibleWithStandardLibrary

func main() {
	// Create context listening for system signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initial configuration load to get log level before loop; acts as a
	// fallback console setup if the first real load below fails.
	if sysCfg, err := config.LoadSystemConfig("system.json"); err == nil {
		monitor.SetupEnvironment(sysCfg.LogLevel)
	}

	reloadCh := config.Watch(ctx, "config.json", "system.json")

	for {
		err := runAgent(ctx, reloadCh)

		if err != nil {
			slog.Error("System crashed or failed to load config", "error", err)
			slog.Info("Waiting 5 seconds before retrying...")
			select {
			case <-ctx.Done():
				return
			case <-reloadCh:
				slog.Info("Configuration change detected while waiting. Retrying immediately...")
			case <-time.After(5 * time.Second):
			}
		} else {
			select {
			case <-ctx.Done():
				return // User requested exit
			default:
				slog.Info("==== Configuration Reloaded ====")
			}
		}
	}
}

// connectorsConfig is the wire shape of config.json's "connectors" section;
// each connector's own sub-object is only as deep as that connector needs.
type connectorsConfig struct {
	PLC struct {
		BaseURL string `json:"base_url"`
	} `json:"plc"`
	CMMS struct {
		BaseURL string `json:"base_url"`
	} `json:"cmms"`
	Gist struct {
		BaseURL string `json:"base_url"`
		Token   string `json:"token"`
	} `json:"gist"`
	Shell struct {
		Hosts map[string]shell.HostConfig `json:"hosts"`
	} `json:"shell"`
}

// channelWireConfig is the wire shape of one entry in config.json's
// "channels" map.
type channelWireConfig struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	Port    int    `json:"port"`
}

// runAgent executes a single lifecycle of the gateway: load config, wire
// every collaborator, start the configured channels, and block until
// shutdown or a config reload fires.
func runAgent(ctx context.Context, reloadCh <-chan struct{}) error {
	cfg, err := config.Load("config.json")
	if err != nil {
		monitor.PrintBanner()
		monitor.SetupSlog("info")
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	sysCfg, err := config.LoadSystemConfig("system.json")
	if err != nil {
		return fmt.Errorf("failed to load system configuration: %w", err)
	}

	monitor.SetupEnvironment(sysCfg.LogLevel)
	slog.Info("==========================================")

	// --- Core services ---
	reg := prometheus.NewRegistry()
	agg := metrics.New(reg)
	budgetTracker := budget.New()
	healthRegistry := health.NewRegistry()

	providers, err := llmprovider.BuildAll(cfg.Providers, budgetTracker)
	if err != nil {
		return fmt.Errorf("failed to build LLM providers: %w", err)
	}
	table, err := router.LoadTable(cfg.Routing)
	if err != nil {
		return fmt.Errorf("failed to load routing table: %w", err)
	}
	rt := router.New(providers, table, budgetTracker, healthRegistry, agg)

	var connCfg connectorsConfig
	if len(cfg.Connectors) > 0 {
		if err := wireJSON.Unmarshal(cfg.Connectors, &connCfg); err != nil {
			return fmt.Errorf("failed to parse connectors config: %w", err)
		}
	}
	connTimeout := time.Duration(sysCfg.ConnectorTimeoutMs) * time.Millisecond
	plcConn := plc.New(connCfg.PLC.BaseURL, connTimeout)
	cmmsConn := cmms.New(connCfg.CMMS.BaseURL, connTimeout)
	gistConn := gist.New(connCfg.Gist.BaseURL, connCfg.Gist.Token, connTimeout)
	shellConn := shell.New(connCfg.Shell.Hosts, connTimeout)
	for _, c := range []interface {
		Name() string
		HealthCheck(context.Context) error
	}{plcConn, cmmsConn, gistConn, shellConn} {
		agg.RegisterProbe(c.Name(), c.HealthCheck)
	}

	store := kb.NewStore()
	pipeline := kb.NewPipeline(store, skill.NewRouterVision(rt))
	convStore := conversation.New(sysCfg.ConversationCapacity, time.Duration(sysCfg.ConversationTTLSeconds)*time.Second)

	rateLimitMax := cfg.RateLimitPerHour
	if rateLimitMax <= 0 {
		rateLimitMax = 60
	}
	rateLimit := ratelimit.New(rateLimitMax, time.Hour)

	skillRegistry := skill.NewRegistry()
	for _, s := range []skill.Skill{
		skill.NewDiagnose(),
		skill.NewStatus(),
		skill.NewChat(),
		skill.NewPhoto(),
		skill.NewWorkOrder(),
		skill.NewSearch(),
		skill.NewAdmin(),
		skill.NewHelp(),
		skill.NewDiagram(diagramrender.NewStub()),
		skill.NewGist(),
		skill.NewProject(),
		skill.NewShell(),
	} {
		skillRegistry.Register(s)
	}

	sc := &skill.Context{
		Router:         rt,
		KB:             store,
		Enrichment:     pipeline,
		PLC:            plcConn,
		CMMS:           cmmsConn,
		Gist:           gistConn,
		Shell:          shellConn,
		Conversation:   convStore,
		RateLimit:      rateLimit,
		Budget:         budgetTracker,
		Health:         healthRegistry,
		Metrics:        agg,
		Registry:       skillRegistry,
		SystemPrompt:   cfg.SystemPrompt,
		AllowList:      cfg.AllowList,
		ShellAllowList: cfg.ShellAllowList,
		DefaultNodeID:  "default",
	}

	core := dispatch.New(skillRegistry, sc, rateLimit, agg)

	adapters, err := buildChannels(cfg, sysCfg, agg)
	if err != nil {
		return fmt.Errorf("failed to build channels: %w", err)
	}
	notifier := channel.NewNotifier(adapters...)
	sc.Notifier = notifier

	for _, a := range adapters {
		if err := a.Start(ctx, core); err != nil {
			return fmt.Errorf("failed to start channel %s: %w", a.ID(), err)
		}
	}

	// Wait for shutdown signal or reload signal
	select {
	case <-ctx.Done():
		slog.Info("Received shutdown signal. Stopping services...")
		stopChannels(adapters)
		slog.Info("Bye!")
		return nil
	case <-reloadCh:
		slog.Info("Configuration changes detected, stopping services...")
		stopChannels(adapters)
		slog.Info("Draining connections before restart...")
		time.Sleep(1 * time.Second)
		return nil
	}
}

func stopChannels(adapters []channel.Adapter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, a := range adapters {
		if err := a.Stop(ctx); err != nil {
			slog.Error("failed to stop channel", "channel", a.ID(), "error", err)
		}
	}
}

// buildChannels constructs one adapter per enabled entry in cfg.Channels.
func buildChannels(cfg *config.Config, sysCfg *config.SystemConfig, agg *metrics.Aggregator) ([]channel.Adapter, error) {
	var adapters []channel.Adapter

	if raw, ok := cfg.Channels["telegram"]; ok {
		var wc channelWireConfig
		if err := wireJSON.Unmarshal(raw, &wc); err != nil {
			return nil, fmt.Errorf("parse telegram channel config: %w", err)
		}
		if wc.Enabled {
			tg, err := channel.NewTelegram(wc.Token, sysCfg.TelegramMessageLimit, cfg.AllowList)
			if err != nil {
				return nil, fmt.Errorf("init telegram channel: %w", err)
			}
			adapters = append(adapters, tg)
		}
	}

	if raw, ok := cfg.Channels["websocket"]; ok {
		var wc channelWireConfig
		if err := wireJSON.Unmarshal(raw, &wc); err != nil {
			return nil, fmt.Errorf("parse websocket channel config: %w", err)
		}
		if wc.Enabled {
			adapters = append(adapters, channel.NewWebSocket(wc.Port))
		}
	}

	if raw, ok := cfg.Channels["http_api"]; ok {
		var wc channelWireConfig
		if err := wireJSON.Unmarshal(raw, &wc); err != nil {
			return nil, fmt.Errorf("parse http api channel config: %w", err)
		}
		if wc.Enabled {
			port := wc.Port
			if port == 0 {
				port = sysCfg.Port
			}
			adapters = append(adapters, channel.NewHTTPAPI(fmt.Sprintf(":%d", port), agg))
		}
	}

	return adapters, nil
}
