// battista is a real-time, authoritative multiplayer world server: players
// register over HTTP, stream input over WebSocket, and watch a single
// simulation loop fan out incremental world-state diffs every tick.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/prestonhale/battista/config"
	"github.com/prestonhale/battista/gridworld/mapgen"
	"github.com/prestonhale/battista/registry"
	"github.com/prestonhale/battista/simulation"
	"github.com/prestonhale/battista/telemetry"
	"github.com/prestonhale/battista/wsapi"
)

var (
	version   = "dev"
	buildTime = ""
)

func main() {
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	rootCmd := &cobra.Command{
		Use:   "battista",
		Short: "battista runs the grid-world multiplayer server",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the world server",
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, _ := cmd.Flags().GetString("addr")
			configPath, _ := cmd.Flags().GetString("config")
			debug, _ := cmd.Flags().GetBool("debug")
			return runServe(addr, configPath, debug)
		},
	}
	serveCmd.Flags().String("addr", "", "override the listen address from config")
	serveCmd.Flags().String("config", "battista.yaml", "path to a battista.yaml config file")
	serveCmd.Flags().Bool("debug", false, "enable debug-level logging")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the battista version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("battista %s (%s)\n", version, buildTime)
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)

	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Fatal("battista: fatal startup error")
	}
}

func runServe(addr, configPath string, debug bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("battista: loading config: %w", err)
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if debug {
		cfg.LogLevel = "debug"
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("battista: invalid log level %q: %w", cfg.LogLevel, err)
	}
	logrus.SetLevel(level)
	log := logrus.WithField("component", "battista")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("battista: shutdown signal received")
		cancel()
	}()

	mapSide := 3 * cfg.PlotSide
	grid := mapgen.GeneratePlot(mapSide, mapSide, cfg.PlotSide)

	reg := registry.New()
	engine := simulation.New(grid, reg, simulation.Config{
		TickInterval:     cfg.TickInterval,
		MoveInterval:     cfg.MoveInterval,
		PlantMatureTicks: cfg.PlantMatureTicks,
		RequestQueueSize: cfg.RequestQueueSize,
	}, log.WithField("subsystem", "simulation"))

	sweeper, err := telemetry.NewSweeper(reg, engine, cfg.StatsLogInterval, log.WithField("subsystem", "telemetry"))
	if err != nil {
		return fmt.Errorf("battista: building telemetry sweeper: %w", err)
	}
	sweeper.Start()
	defer sweeper.Stop()

	server := wsapi.NewServer(cfg.Addr, engine, reg, nil, log.WithField("subsystem", "wsapi"))

	loopDone := make(chan struct{})
	go func() {
		engine.Run(ctx)
		close(loopDone)
	}()

	log.WithField("addr", cfg.Addr).Info("battista: listening")
	if err := server.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("battista: serving: %w", err)
	}

	// Give the game loop goroutine a moment to observe ctx cancellation
	// before the process exits, mirroring boot.RunServer's bounded grace
	// period on shutdown.
	cancel()
	select {
	case <-loopDone:
	case <-time.After(time.Second):
	}

	return nil
}
