// SPDX-License-Identifier: MIT
package cmd

import (
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"vizor/internal/config"
	"vizor/pkg/build"
)

// Command names selected by the CLI. Empty means live visualization.
const (
	CommandList    = "list"
	CommandAnalyze = "analyze"
	CommandExport  = "export"
)

// Options is the parsed CLI result: the merged configuration plus which
// mode the process should run in.
type Options struct {
	Config  *config.Config
	Command string

	// Live mode.
	PickDevice bool // Run the interactive device picker before capture.

	// Analyze / export modes.
	InputFile  string
	ExportFile string
	FFmpegPath string
}

// ParseArgs builds the runtime configuration in layers: defaults, then
// the YAML config file and environment overrides, then command line
// flags on top (flag defaults are the already-merged values, so an
// unset flag never clobbers the file).
func ParseArgs() (*Options, error) {
	buildInfo := build.GetBuildFlags()

	cfg, err := config.LoadConfig("")
	if err != nil {
		return nil, err
	}

	opts := &Options{Config: cfg}

	rootCmd := &cobra.Command{
		Use:           buildInfo.Name,
		Short:         buildInfo.Description,
		Version:       buildInfo.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd:   true,
			DisableDescriptions: true,
			DisableNoDescFlag:   true,
			HiddenDefaultCmd:    true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return nil // Live visualization is the default mode.
		},
	}

	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available audio devices",
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandList
		},
	}
	rootCmd.AddCommand(listCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze <file.wav>",
		Short: "Estimate the tempo (BPM) of a WAV file",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandAnalyze
			opts.InputFile = args[0]
		},
	}
	rootCmd.AddCommand(analyzeCmd)

	exportCmd := &cobra.Command{
		Use:   "export <file.wav>",
		Short: "Render a WAV file through the visualizers into a video",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			opts.Command = CommandExport
			opts.InputFile = args[0]
			if opts.ExportFile == "" {
				opts.ExportFile = exportName(args[0])
			}
		},
	}
	exportCmd.Flags().StringVarP(&opts.ExportFile, "out", "O", "",
		"Output video file. Default is the input name with an .mp4 extension.")
	exportCmd.Flags().StringVar(&opts.FFmpegPath, "ffmpeg", "",
		"Path to the ffmpeg binary. Default uses $PATH.")
	rootCmd.AddCommand(exportCmd)

	// Audio capture configuration.
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.DeviceID, "device", "d", cfg.Audio.DeviceID,
		"Specify input device ID. Use 'list' command to see available devices.")
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.Channels, "channels", "c", cfg.Audio.Channels,
		"Number of channels to capture (1=mono, 2=stereo)")
	rootCmd.PersistentFlags().Float64VarP(&cfg.Audio.SampleRate, "sample-rate", "s", cfg.Audio.SampleRate,
		"Sample rate, measured in Hertz (Hz)")
	rootCmd.PersistentFlags().IntVarP(&cfg.Audio.FramesPerBuffer, "frames-per-buffer", "b", cfg.Audio.FramesPerBuffer,
		"The number of frames per buffer (affects latency)")
	rootCmd.PersistentFlags().BoolVarP(&cfg.Audio.LowLatency, "low-latency", "l", cfg.Audio.LowLatency,
		"Use low latency mode for real-time processing")
	rootCmd.Flags().BoolVarP(&opts.PickDevice, "pick", "p", false,
		"Choose the capture device interactively before starting")

	// Analysis configuration.
	rootCmd.PersistentFlags().IntVar(&cfg.Analysis.FFTSize, "fft-size", cfg.Analysis.FFTSize,
		"FFT size (power of 2)")
	rootCmd.PersistentFlags().Float64Var(&cfg.Analysis.Smoothing, "smoothing", cfg.Analysis.Smoothing,
		"Temporal smoothing of the spectrum [0,1)")
	rootCmd.PersistentFlags().StringVar(&cfg.Analysis.Window, "window", cfg.Analysis.Window,
		"FFT window function (Hann, Hamming, Blackman, ...)")

	// Visualization configuration.
	rootCmd.PersistentFlags().IntVar(&cfg.Viz.Width, "width", cfg.Viz.Width,
		"Canvas width in logical pixels")
	rootCmd.PersistentFlags().IntVar(&cfg.Viz.Height, "height", cfg.Viz.Height,
		"Canvas height in logical pixels")
	rootCmd.PersistentFlags().Float64Var(&cfg.Viz.PixelRatio, "pixel-ratio", cfg.Viz.PixelRatio,
		"Device pixel ratio for the render surfaces")
	rootCmd.PersistentFlags().IntVar(&cfg.Viz.FrameRate, "fps", cfg.Viz.FrameRate,
		"Frames per second for drawing and export")

	// Recording configuration.
	rootCmd.PersistentFlags().BoolVarP(&cfg.Record.Enabled, "record", "r", cfg.Record.Enabled,
		"Record captured audio to a WAV file")
	rootCmd.PersistentFlags().StringVarP(&cfg.Record.OutputFile, "output", "o", cfg.Record.OutputFile,
		"Recording file name. Default is recording-DD-MM-YYYY-HHMMSS.wav")

	// Publishing configuration.
	rootCmd.PersistentFlags().BoolVar(&cfg.Publish.WebSocketEnabled, "ws", cfg.Publish.WebSocketEnabled,
		"Broadcast band energies over WebSocket")
	rootCmd.PersistentFlags().StringVar(&cfg.Publish.WebSocketAddr, "ws-addr", cfg.Publish.WebSocketAddr,
		"WebSocket listen address (host:port)")
	rootCmd.PersistentFlags().BoolVar(&cfg.Publish.UDPEnabled, "udp", cfg.Publish.UDPEnabled,
		"Publish spectrum packets over UDP")
	rootCmd.PersistentFlags().StringVar(&cfg.Publish.UDPTargetAddress, "udp-target", cfg.Publish.UDPTargetAddress,
		"UDP target address (host:port)")

	// Debug configuration.
	rootCmd.PersistentFlags().BoolVarP(&cfg.Debug, "debug", "v", cfg.Debug,
		"Show debug output")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel,
		"Log level (debug, info, warn, error)")

	if cfg.Record.OutputFile == "" {
		cfg.Record.OutputFile = "recording-" +
			time.Now().UTC().Format("02-01-2006-150405") + ".wav"
	}

	rootCmd.SetArgs(os.Args[1:])
	if err := rootCmd.Execute(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return opts, nil
}

// exportName derives the default video name from the input audio file.
func exportName(input string) string {
	if i := strings.LastIndex(input, "."); i > 0 {
		input = input[:i]
	}
	return input + ".mp4"
}
