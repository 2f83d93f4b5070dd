package main

import (
	"fmt"
	"os"
	"runtime/debug"

	"paula/emu"
)

func main() {
	args := parseArgs(os.Args[1:])

	switch args.mode {
	case coreMode:
		checkf(coreMain(args.Core), "engine error")
	case playMode:
		checkf(playMain(args.Play, loadConfig(args.Config), args.Config), "playback error")
	case renderMode:
		checkf(renderMain(args.Render, loadConfig(args.Config)), "render error")
	case versionMode:
		printVersion()
	case initConfigMode:
		checkf(initConfigMain(args.InitConfig, args.Config), "failed to write config")
	}
}

func loadConfig(path string) emu.Config {
	if path == "" {
		return emu.LoadConfigOrDefault()
	}
	cfg, err := emu.LoadConfig(path)
	checkf(err, "failed to load config")
	return cfg
}

func printVersion() {
	version, revision := "local", "no revision information"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "" && info.Main.Version != "(devel)" {
			version = info.Main.Version
		}
		dirty := false
		for _, s := range info.Settings {
			switch s.Key {
			case "vcs.revision":
				revision = s.Value
			case "vcs.modified":
				dirty = s.Value == "true"
			}
		}
		if dirty {
			revision += "+dirty"
		}
	}
	fmt.Printf("paula %s (%s)\n", version, revision)
}
