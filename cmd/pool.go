package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/drgolem/samplepool/pkg/filepool"
)

var poolCmd = &cobra.Command{
	Use:   "pool",
	Short: "Exercise the sample file pool's preload/stream/garbage-collect pipeline",
	Long: `pool drives the sample file pool (pkg/filepool) against real files on disk:
register a sample's preload window, promise its full streamed tail, trigger a
garbage sweep, and report the pool's bookkeeping. Each subcommand constructs
its own pool rooted at the input file's directory and tears it down before
exiting.`,
}

func init() {
	rootCmd.AddCommand(poolCmd)
	poolCmd.AddCommand(poolPreloadCmd)
	poolCmd.AddCommand(poolPromiseCmd)
	poolCmd.AddCommand(poolGCCmd)
	poolCmd.AddCommand(poolStatsCmd)

	poolPreloadCmd.Flags().Int("preload-size", 12288, "Native frames held resident ahead of max-offset")
	poolPreloadCmd.Flags().Uint32("max-offset", 0, "Highest native frame offset a voice may seek to")
	poolPreloadCmd.Flags().Bool("ram", false, "Load the entire file into RAM instead of a bounded preload window")
	poolPreloadCmd.Flags().Int("oversampling", 1, "Integer oversampling factor applied to the preload window")

	poolPromiseCmd.Flags().Int("preload-size", 12288, "Native frames held resident ahead of max-offset")
	poolPromiseCmd.Flags().Duration("timeout", 10*time.Second, "How long to wait for the background stream to finish")

	poolGCCmd.Flags().Duration("clearing-period", 10*time.Second, "Idle duration before a streamed tail is reclaimed")
}

func openSinglePool(fileArg string, preloadSize int, factor int, ramLoading bool, clearingPeriod time.Duration) (*filepool.FilePool, filepool.SampleIdentity) {
	root := filepath.Dir(fileArg)
	name := filepath.Base(fileArg)

	cfg := filepool.DefaultConfig()
	cfg.RootDirectory = root
	cfg.PreloadSize = preloadSize
	cfg.OversamplingFactor = factor
	cfg.LoadInRAM = ramLoading
	if clearingPeriod > 0 {
		cfg.FileClearingPeriod = clearingPeriod
	}

	fp := filepool.New(cfg, filepool.NewSlogLogger())
	return fp, filepool.SampleIdentity{Filename: name}
}

var poolPreloadCmd = &cobra.Command{
	Use:   "preload <file>",
	Short: "Register a sample and report its resolved identity and preload window",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		preloadSize, _ := cmd.Flags().GetInt("preload-size")
		maxOffset, _ := cmd.Flags().GetUint32("max-offset")
		ram, _ := cmd.Flags().GetBool("ram")
		factor, _ := cmd.Flags().GetInt("oversampling")

		fp, id := openSinglePool(args[0], preloadSize, factor, ram, 0)
		defer fp.Close()

		resolved, err := fp.PreloadFile(id, maxOffset)
		if err != nil {
			slog.Error("preload failed", "file", args[0], "error", err)
			os.Exit(1)
		}

		entry, _ := fp.GetFilePromise(resolved)
		md := entry.Metadata()
		fmt.Printf("resolved:    %s\n", resolved)
		fmt.Printf("status:      %s\n", entry.Status())
		fmt.Printf("sampleRate:  %.0f Hz\n", md.SampleRate)
		fmt.Printf("totalFrames: %d\n", md.TotalFrames)
		fmt.Printf("channels:    %d\n", md.Channels)
		fmt.Printf("preloaded:   %d frames\n", entry.PreloadedData().NumFrames())
	},
}

var poolPromiseCmd = &cobra.Command{
	Use:   "promise <file>",
	Short: "Register a sample, request its full streamed tail, and wait for it to finish",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		preloadSize, _ := cmd.Flags().GetInt("preload-size")
		timeout, _ := cmd.Flags().GetDuration("timeout")

		fp, id := openSinglePool(args[0], preloadSize, 1, false, 0)
		defer fp.Close()

		resolved, err := fp.PreloadFile(id, 0)
		if err != nil {
			slog.Error("preload failed", "file", args[0], "error", err)
			os.Exit(1)
		}

		entry, ok := fp.GetFilePromise(resolved)
		if !ok {
			slog.Error("entry vanished immediately after registration", "file", args[0])
			os.Exit(1)
		}

		deadline := time.Now().Add(timeout)
		for entry.Status() != filepool.StatusDone {
			if time.Now().After(deadline) {
				slog.Error("timed out waiting for background load", "file", args[0], "status", entry.Status())
				os.Exit(1)
			}
			time.Sleep(2 * time.Millisecond)
		}

		fmt.Printf("resolved:        %s\n", resolved)
		fmt.Printf("status:          %s\n", entry.Status())
		fmt.Printf("availableFrames: %d\n", entry.AvailableFrames())
	},
}

var poolGCCmd = &cobra.Command{
	Use:   "gc <file>",
	Short: "Load a sample fully, idle it, and watch a garbage sweep reclaim its tail",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		clearingPeriod, _ := cmd.Flags().GetDuration("clearing-period")

		fp, id := openSinglePool(args[0], 4096, 1, false, clearingPeriod)
		defer fp.Close()

		resolved, err := fp.PreloadFile(id, 0)
		if err != nil {
			slog.Error("preload failed", "file", args[0], "error", err)
			os.Exit(1)
		}
		entry, _ := fp.GetFilePromise(resolved)
		for deadline := time.Now().Add(10 * time.Second); entry.Status() != filepool.StatusDone; time.Sleep(2 * time.Millisecond) {
			if time.Now().After(deadline) {
				slog.Error("timed out waiting for background load", "file", args[0], "status", entry.Status())
				os.Exit(1)
			}
		}

		fp.AcquireReader(entry)
		fp.ReleaseReader(entry)

		fmt.Printf("status before sweep: %s (pending=%d)\n", entry.Status(), fp.PendingGarbageCount())
		fmt.Printf("waiting out the %s clearing period...\n", clearingPeriod)
		time.Sleep(clearingPeriod + 50*time.Millisecond)

		fp.TriggerGarbageCollection()
		time.Sleep(50 * time.Millisecond)

		fmt.Printf("status after sweep:  %s\n", entry.Status())
	},
}

var poolStatsCmd = &cobra.Command{
	Use:   "stats <file>",
	Short: "Preload a sample and report the pool's bookkeeping counters",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		fp, id := openSinglePool(args[0], 4096, 1, false, 0)
		defer fp.Close()

		if _, err := fp.PreloadFile(id, 0); err != nil {
			slog.Error("preload failed", "file", args[0], "error", err)
			os.Exit(1)
		}

		fmt.Printf("registered entries: %d\n", fp.Len())
		fmt.Printf("pending garbage:     %d\n", fp.PendingGarbageCount())
	},
}
