// Command magia-eu runs accelerator coordination workloads against the
// simulated tile. The run command reproduces the stress pattern used to
// validate the event unit: a matrix engine job and both DMA directions
// in flight at once, completing out of order, collected with a single
// wait-all, followed by a synchronization round.
package main

import (
	"bytes"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/luca24balboni/MAGIA-EventUnit/barrier"
	"github.com/luca24balboni/MAGIA-EventUnit/dma"
	"github.com/luca24balboni/MAGIA-EventUnit/eu"
	"github.com/luca24balboni/MAGIA-EventUnit/eutrace"
	"github.com/luca24balboni/MAGIA-EventUnit/mmio"
	"github.com/luca24balboni/MAGIA-EventUnit/monitor"
	"github.com/luca24balboni/MAGIA-EventUnit/tilesim"
)

var (
	waitModeFlag  string
	timeoutCycles uint32
	tracePath     string
	monitorPort   int
	openDashboard bool
	verbose       bool
	chunkSize     uint32
)

var rootCmd = &cobra.Command{
	Use:   "magia-eu",
	Short: "Drive MAGIA tile accelerator workloads",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Optional defaults from a local .env file.
		_ = godotenv.Load()
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run concurrent matmul, DMA, and barrier with out-of-order completion",
	RunE:  runWorkload,
}

func init() {
	runCmd.Flags().StringVar(&waitModeFlag, "wait-mode", "sleep",
		"wait discipline: poll or sleep")
	runCmd.Flags().Uint32Var(&timeoutCycles, "timeout", 1_000_000,
		"polling cycle budget, 0 for unbounded")
	runCmd.Flags().StringVar(&tracePath, "trace", "",
		"record activity into the given SQLite database")
	runCmd.Flags().IntVar(&monitorPort, "monitor-port", 0,
		"serve tile state over HTTP on this port")
	runCmd.Flags().BoolVar(&openDashboard, "open", false,
		"open the monitor in the local browser")
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"log event unit activity")
	runCmd.Flags().Uint32Var(&chunkSize, "chunk-size", 4096,
		"bytes moved per DMA direction")

	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func parseWaitMode(s string) (eu.WaitMode, error) {
	switch s {
	case "poll", "polling":
		return eu.WaitPolling, nil
	case "sleep", "wfe":
		return eu.WaitSleep, nil
	}
	return 0, fmt.Errorf("unknown wait mode %q", s)
}

func runWorkload(_ *cobra.Command, _ []string) error {
	mode, err := parseWaitMode(waitModeFlag)
	if err != nil {
		return err
	}
	irq := mode == eu.WaitSleep

	tile := tilesim.MakeBuilder().Build()
	unit := eu.MakeBuilder().
		WithBus(tile).
		WithSuspender(tile).
		Build()
	drv := dma.MakeBuilder().
		WithBus(tile).
		WithEventUnit(unit).
		Build()
	bar := barrier.MakeBuilder().
		WithBus(tile).
		WithEventUnit(unit).
		Build()

	if verbose {
		hook := eu.NewActivityLogger(log.New(os.Stderr, "eu: ", 0))
		unit.AcceptHook(hook)
		drv.AcceptHook(hook)
	}

	if tracePath != "" {
		rec, err := eutrace.NewRecorder(tracePath)
		if err != nil {
			return err
		}
		defer rec.Close()

		hook := eutrace.NewActivityHook(rec)
		unit.AcceptHook(hook)
		drv.AcceptHook(hook)
	}

	if monitorPort != 0 {
		mon := monitor.NewMonitor().WithPortNumber(monitorPort)
		mon.RegisterTarget("tile", tile)
		mon.RegisterTarget("unit", unit)
		mon.RegisterTarget("dma", drv)
		if _, err := mon.StartServer(); err != nil {
			return err
		}
		if openDashboard {
			if err := mon.OpenDashboard(); err != nil {
				return err
			}
		}
	}

	unit.Init()
	unit.InitMatMul(irq)
	drv.InitEvents(irq)
	bar.InitEvents(irq)

	// Stage a test pattern in external memory.
	pattern := make([]byte, chunkSize)
	for i := range pattern {
		pattern[i] = byte(0x10 + i&0xFF)
	}
	copy(tile.L2(), pattern)
	copy(tile.L1()[chunkSize:], pattern)

	// Launch all three units, then collect completions in one shot.
	tile.StartMatMul()
	inbound := drv.CopyExtToLoc(mmio.L2Base, mmio.L1Base, chunkSize)
	outbound := drv.CopyLocToExt(
		mmio.L1Base+chunkSize, mmio.L2Base+chunkSize, chunkSize)

	required := eu.MatMulDoneMask | eu.DMAAllDoneMask
	detected := unit.WaitAllEvents(required, mode, timeoutCycles)
	if detected&required != required {
		return fmt.Errorf("wait-all timed out after %d cycles", timeoutCycles)
	}

	if !drv.IsComplete(inbound) || !drv.IsComplete(outbound) {
		return fmt.Errorf("DMA tickets not retired: in=%v out=%v",
			drv.IsComplete(inbound), drv.IsComplete(outbound))
	}
	if !bytes.Equal(tile.L1()[:chunkSize], pattern) {
		return fmt.Errorf("inbound DMA data mismatch")
	}
	if !bytes.Equal(tile.L2()[chunkSize:2*chunkSize], pattern) {
		return fmt.Errorf("outbound DMA data mismatch")
	}

	if got := bar.Sync(0, 4, mode, timeoutCycles); got == 0 {
		return fmt.Errorf("barrier round timed out")
	}

	fmt.Printf("completed matmul + 2x DMA + barrier in %d cycles "+
		"(events 0x%08x, mode %s)\n", tile.Cycle(), detected, mode)

	return nil
}
