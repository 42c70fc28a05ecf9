// Package main is the entry point for the dmf2midi CLI
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/james-see/dmf2midi/pkg/api"
	"github.com/james-see/dmf2midi/pkg/config"
	"github.com/james-see/dmf2midi/pkg/converter"
	"github.com/james-see/dmf2midi/pkg/dmf"
	"github.com/james-see/dmf2midi/pkg/dmf/engines"
	"github.com/james-see/dmf2midi/pkg/tui"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile    string
	gameID        string
	maxTicks      int
	loopCount     int
	resetName     string
	linearVolume  bool
	verbose       bool
	configPath    string
	serverPort    int
	mmlDots       int
	octaveReverse bool
	useTriplet    bool
)

// cfg holds the loaded config with command line overrides applied.
var cfg = config.DefaultConfig()

// logger is the package-wide structured logger. Safe to use before initLogger
// is called; defaults to slog.Default().
var logger = slog.Default()

// errFailed reports that at least one input failed after its error was
// already logged.
var errFailed = errors.New("one or more files failed to convert")

func initLogger(debug bool) {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     level,
		AddSource: debug,
	})
	logger = slog.New(h)
	slog.SetDefault(logger)
}

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit code.
func run(args []string) int {
	rootCmd.SetArgs(normalizeArgs(args))
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return -1
	}
	return 0
}

// normalizeArgs accepts the historical single-dash spelling of the linear
// volume switch.
func normalizeArgs(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if a == "-lv" {
			a = "--lv"
		}
		out[i] = a
	}
	return out
}

var rootCmd = &cobra.Command{
	Use:   "dmf2midi <input-file>... [-lv]",
	Short: "Convert DMF music sequences to Standard MIDI Files",
	Long: `dmf2midi converts the DMF sequence format used by PlayStation titles
into Standard MIDI Files. Each input is written next to itself with a .mid
extension.

Examples:
  dmf2midi stage1.dmf
  dmf2midi -lv stage1.dmf stage2.dmf
  dmf2midi --reset xg --loop 2 stage1.dmf -o out.mid
  dmf2midi mid2mml --dots 2 --use-triplet stage1.mid
  dmf2midi tui
  dmf2midi serve --port 8080`,
	Version:           fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	Args:              cobra.MinimumNArgs(1),
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
	RunE:              runConvert,
}

var mid2mmlCmd = &cobra.Command{
	Use:   "mid2mml <input.mid>...",
	Short: "Convert MIDI files to MML text",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runMIDIToMML,
}

var infoCmd = &cobra.Command{
	Use:   "info <input.dmf>...",
	Short: "Print DMF header information",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runInfo,
}

var enginesCmd = &cobra.Command{
	Use:   "engines",
	Short: "List supported game engines",
	RunE:  runEngines,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&gameID, "game", "g", engines.HokutoID, "Game engine")
	pf.IntVar(&maxTicks, "max-ticks", dmf.DefaultMaxTicks, "Scheduler tick bound")
	pf.IntVar(&loopCount, "loop", 1, "Times a looping track plays before it ends (0 = until max-ticks)")
	pf.StringVar(&resetName, "reset", string(dmf.ResetGS), "Reset messages: gs, gm1, gm2, xg")
	pf.BoolVar(&linearVolume, "lv", false, "Linear volume")
	pf.BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.config/dmf2midi/config.json)")

	// Root command
	rootCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (single input only)")

	// mid2mml command
	mid2mmlCmd.Flags().IntVar(&mmlDots, "dots", 1, "Maximum dot count for dotted notes")
	mid2mmlCmd.Flags().BoolVar(&octaveReverse, "octave-reverse", false, "Swap the octave symbols")
	mid2mmlCmd.Flags().BoolVar(&useTriplet, "use-triplet", false, "Use triplets if possible")

	// serve command
	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	// Add commands
	rootCmd.AddCommand(mid2mmlCmd)
	rootCmd.AddCommand(infoCmd)
	rootCmd.AddCommand(enginesCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

// setup configures logging and merges the config file with the flags that
// were set explicitly.
func setup(cmd *cobra.Command, args []string) error {
	initLogger(verbose)

	var err error
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("game") {
		cfg.Game = gameID
	}
	if flags.Changed("max-ticks") {
		cfg.MaxTicks = maxTicks
	}
	if flags.Changed("loop") {
		cfg.Loop = loopCount
	}
	if flags.Changed("reset") {
		cfg.Reset = resetName
	}
	if flags.Changed("lv") {
		cfg.LinearVolume = linearVolume
	}
	if flags.Changed("dots") {
		cfg.MML.Dots = mmlDots
	}
	if flags.Changed("octave-reverse") {
		cfg.MML.OctaveReverse = octaveReverse
	}
	if flags.Changed("use-triplet") {
		cfg.MML.UseTriplet = useTriplet
	}
	if flags.Changed("port") {
		cfg.Server.Port = serverPort
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger.Debug("config", "game", cfg.Game, "max_ticks", cfg.MaxTicks, "loop", cfg.Loop,
		"reset", cfg.Reset, "lv", cfg.LinearVolume)
	return nil
}

func newConverter() *converter.Converter {
	opts := cfg.DMFOptions()
	opts.Logger = logger
	conv := converter.New(cfg.Game, opts)
	conv.SetMMLOptions(cfg.MMLOptions())
	return conv
}

func runConvert(cmd *cobra.Command, args []string) error {
	if outputFile != "" && len(args) > 1 {
		return errors.New("--output can only be used with a single input file")
	}
	return convertAll(args, outputFile)
}

func runMIDIToMML(cmd *cobra.Command, args []string) error {
	for _, in := range args {
		if f := converter.DetectFormat(in); f != converter.FormatMIDI {
			logger.Warn("input does not have a MIDI extension", "file", in)
		}
	}
	return convertAll(args, "")
}

// convertAll converts every input, logging failures and warnings, and
// keeps going after a failed file.
func convertAll(inputs []string, output string) error {
	conv := newConverter()
	failed := false

	for _, in := range inputs {
		res, err := conv.ConvertFile(in, output)
		if err != nil {
			logger.Error("conversion failed", "file", in, "stage", dmf.Stage(err), "err", err)
			failed = true
			continue
		}
		for _, w := range res.Warnings {
			logger.Warn(w, "file", in)
		}
		if res.Written {
			fmt.Printf("Converted %s -> %s\n", in, res.Filename)
		}
	}

	if failed {
		return errFailed
	}
	return nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	loader := converter.NewDMFLoader()
	failed := false
	for _, in := range args {
		data, err := loader.LoadDMFFile(in)
		if err != nil {
			logger.Error("cannot read DMF", "file", in, "stage", dmf.Stage(err), "err", err)
			failed = true
			continue
		}
		desc, err := loader.Describe(data)
		if err != nil {
			logger.Error("cannot read DMF", "file", in, "err", err)
			failed = true
			continue
		}
		fmt.Printf("%s: %s\n", in, desc)
	}
	if failed {
		return errFailed
	}
	return nil
}

func runEngines(cmd *cobra.Command, args []string) error {
	for _, e := range engines.List() {
		fmt.Printf("%-10s %s\n", e.ID, e.Description)
	}
	return nil
}

func runTUI(cmd *cobra.Command, args []string) error {
	return tui.Run(newConverter())
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", cfg.Server.Port)
	fmt.Printf("Swagger docs available at http://localhost:%d/swagger/index.html\n", cfg.Server.Port)
	return api.StartServer(cfg.Server.Port, cfg)
}
