package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"paula/emu/log"
)

type mode byte

const (
	coreMode       mode = iota // Run the audio engine on IPC streams
	playMode                   // Play traces through an engine process
	renderMode                 // Render a trace to a WAV file
	versionMode                // Show paula version
	initConfigMode             // Write a configuration file
)

type (
	CLI struct {
		Core    Core    `cmd:"" help:"Run the audio engine, serving IPC on the given streams."`
		Play    Play    `cmd:"" help:"Play register traces through an engine process."`
		Render  Render  `cmd:"" help:"Render a register trace to a WAV file, without IPC."`
		Version Version `cmd:"" help:"Show paula version."`

		InitConfig InitConfig `cmd:"" name:"init-config" help:"Write the default configuration file."`

		Log    logModMask `help:"${log_help}" placeholder:"mod0,mod1,..."`
		Config string     `name:"config" help:"${config_help}" type:"path"`

		mode mode
	}

	Core struct {
		Input  string `name:"input" short:"i" help:"${input_help}" default:"fd://0" placeholder:"URL"`
		Output string `name:"output" short:"o" help:"${output_help}" default:"fd://1" placeholder:"URL"`
	}

	Play struct {
		Traces []string `arg:"" name:"trace" help:"Register trace files." type:"existingfile"`

		Out          string   `name:"out" short:"o" help:"Write the audio to a WAV file." type:"path"`
		Subsong      int      `name:"subsong" short:"s" help:"Subsong to start playing at." default:"-1"`
		OneSubsong   bool     `name:"one" short:"1" help:"Play only one subsong."`
		NoSongEnd    bool     `name:"no-song-end" short:"n" help:"Loop subsongs forever."`
		Debugger     bool     `name:"debugger" short:"d" help:"Ask the engine to start its debugger."`
		Timeout      *int     `name:"timeout" short:"t" help:"${timeout_help}"`
		Panning      *float64 `name:"panning" short:"p" help:"${panning_help}"`
		Headphones   bool     `name:"headphones" help:"Headphones crossfeed effect."`
		Filter       string   `name:"filter" help:"Filter model (none, a500, a1200, a500e, a1200e)."`
		Interpolator string   `name:"interpolator" help:"Interpolator (default, rh, linear, crux, cspline, anti, sinc)."`
		Engine       string   `name:"engine" help:"${engine_help}" type:"path"`
	}

	Render struct {
		Trace string `arg:"" name:"trace" help:"Register trace file." type:"existingfile"`

		Out     string  `name:"out" short:"o" help:"WAV file to write." required:"" type:"path"`
		Subsong int     `name:"subsong" short:"s" help:"Subsong to render." default:"0"`
		Seconds float64 `name:"seconds" help:"Maximum duration in seconds, 0 for no limit." default:"0"`
	}

	Version struct{}

	InitConfig struct {
		Force bool `name:"force" short:"f" help:"Overwrite an existing file."`
	}
)

var vars = kong.Vars{
	"log_help":     "Enable logging for specified modules.",
	"config_help":  "Configuration file. (default: paula/config.toml in the user config directory)",
	"input_help":   "Stream to read commands from, fd://N or a file path.",
	"output_help":  "Stream to write replies to, fd://N or a file path.",
	"timeout_help": "Song timeout in seconds, -1 for none.",
	"engine_help":  "Engine executable. (default: this executable)",
	"panning_help": "Mix stereo channels, from 0 (full stereo) to 2 (swapped).",
}

func parseArgs(args []string) CLI {
	var cfg CLI
	parser, err := kong.New(&cfg,
		kong.Name("paula"),
		kong.Description("Amiga Paula audio emulator."),
		kong.UsageOnError(),
		kong.Help(printHelp),
		vars)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(args)
	checkf(err, "failed to parse command line")
	checkf(ctx.Error, "failed to parse command line")

	switch {
	case strings.HasPrefix(ctx.Command(), "core"):
		cfg.mode = coreMode
	case strings.HasPrefix(ctx.Command(), "render"):
		cfg.mode = renderMode
	case ctx.Command() == "version":
		cfg.mode = versionMode
	case ctx.Command() == "init-config":
		cfg.mode = initConfigMode
	default:
		cfg.mode = playMode
	}
	return cfg
}

func printHelp(options kong.HelpOptions, ctx *kong.Context) error {
	if err := kong.DefaultHelpPrinter(options, ctx); err != nil {
		return err
	}
	loggingHelp := `
Log modules:
  The --log flag accepts a comma-separated list of modules.

  Valid log modules are:
%s

  As a special case, the following values are accepted:
    - no                     Disable all logging.
    - all                    Enable all logs.
`
	var strs []string
	for _, m := range log.ModuleNames() {
		strs = append(strs, "    - "+m)
	}

	fmt.Fprintf(os.Stderr, loggingHelp, strings.Join(strs, "\n"))
	return nil
}

type logModMask log.ModuleMask

// Decode decodes a comma-separated list of module names into a module mask.
//
// Implements kong.MapperValue interface.
func (lm logModMask) Decode(ctx *kong.DecodeContext) error {
	nolog := false
	allLogs := false

	tok := ctx.Scan.Pop()
	for _, v := range strings.Split(tok.Value.(string), ",") {
		switch v {
		case "all":
			allLogs = true
		case "no":
			nolog = true
		default:
			mod, ok := log.ModuleByName(v)
			if !ok {
				return fmt.Errorf("unknown log module %s", v)
			}
			lm |= logModMask(mod.Mask())
		}
	}

	if nolog {
		if allLogs {
			return fmt.Errorf("cannot use 'all' and 'no' together")
		}
		if lm != 0 {
			return fmt.Errorf("cannot combine 'no' with other log modules")
		}
		log.Disable()
		return nil
	}

	if allLogs {
		lm = logModMask(log.ModuleMaskAll)
	}

	log.EnableDebugModules(log.ModuleMask(lm))
	return nil
}

func checkf(err error, format string, args ...any) {
	if err == nil {
		return
	}
	fmt.Fprint(os.Stderr, fatalMessage(err, format, args...))
	os.Exit(1)
}

// fatalMessage formats the description of a fatal error. The error text is
// never interpreted as a format.
func fatalMessage(err error, format string, args ...any) string {
	msg := fmt.Sprintf(format, args...)
	if err != nil {
		msg = fmt.Sprintf("%s.\n%v", msg, err)
	}
	return fmt.Sprintf("fatal error:\n\t%s\n", msg)
}
