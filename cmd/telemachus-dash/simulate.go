package main

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"telemachus-dash/internal/logging"
	"telemachus-dash/internal/scenario"
	"telemachus-dash/internal/simfeed"
)

var (
	simScenario string
	simAddr     string
	simTick     time.Duration
	simChaos    bool
	simSeed     int64
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run a fake Telemachus data link",
	Long:  "simulate serves /datalink with a scripted vessel so the dashboard can be developed without the game.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		log, closeLog, err := newLogger(cfg, false)
		if err != nil {
			return err
		}
		defer closeLog()

		sc, err := loadScenario(simScenario)
		if err != nil {
			return err
		}
		seed := simSeed
		if seed == 0 {
			seed = time.Now().UnixNano()
		}
		p, err := simfeed.NewProvider(*sc, simTick, seed, log)
		if err != nil {
			return err
		}
		if simChaos {
			p.ToggleChaos()
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		ctx = logging.NewContext(ctx, log)

		srv := &http.Server{
			Addr:              simAddr,
			Handler:           simfeed.NewServer(p, log).Handler(),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		shutdown := context.AfterFunc(ctx, func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
		defer shutdown()

		go p.Run(ctx)
		log.Info("fake data link listening", "addr", simAddr, "path", "/datalink", "scenario", sc.Name, "chaos", simChaos)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

// loadScenario resolves a built-in scenario name or a scenario YAML file.
func loadScenario(name string) (*scenario.Scenario, error) {
	builtIn := scenario.BuiltIn()
	if sc, ok := builtIn[name]; ok {
		return &sc, nil
	}
	if _, err := os.Stat(name); err == nil {
		return scenario.Load(name)
	}
	names := slices.Sorted(maps.Keys(builtIn))
	return nil, fmt.Errorf("unknown scenario %q (built-in: %s)", name, strings.Join(names, ", "))
}

func init() {
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "tour", "Built-in scenario name or path to a scenario YAML")
	simulateCmd.Flags().StringVar(&simAddr, "addr", "127.0.0.1:8085", "Listen address")
	simulateCmd.Flags().DurationVar(&simTick, "tick", time.Second, "Simulation step")
	simulateCmd.Flags().BoolVar(&simChaos, "chaos", false, "Start with chaos mode on (dropped and garbled frames)")
	simulateCmd.Flags().Int64Var(&simSeed, "seed", 0, "Random seed (0 picks one)")
}
