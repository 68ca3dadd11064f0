package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "samplepool",
	Short: "Sample file pool: preload/stream/garbage-collect sample files",
	Long: `samplepool - a polyphonic sampler's asynchronous file-data cache: preload
heads resident, stream tails from disk in the background, garbage-collect
idle tails, all behind a lock-free handoff from the audio thread.

Features:
  - Preload/stream/garbage-collect sample file pool
  - Case-insensitive path resolution, oversampling-aware metadata
  - Support for MP3, FLAC, Ogg/Vorbis and WAV audio formats

Commands:
  - pool: Preload, stream and garbage-collect samples through the file pool`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
