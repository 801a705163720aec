// Command soniclink sends and receives data over an ultrasonic acoustic
// link. Subcommands are dispatched manually from os.Args, following
// cmd/rv and cmd/speaker's flag-per-binary idiom rather than a
// subcommand framework.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/makalin/soniclink/config"
	"github.com/makalin/soniclink/internal/logx"
)

const pkg = "soniclink: "

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	global := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := global.String("config", "", "path to a JSON config file")
	verbose := global.Bool("verbose", false, "enable debug logging")
	logFile := global.String("log-file", "", "write logs to this file instead of stderr")

	// Subcommand flags are parsed by each run* function against a
	// fresh FlagSet so global and subcommand flags don't collide; we
	// only pull the three global flags out of args here before
	// dispatch, same ordering cmd/rv/main.go uses (globals, then mode).
	globalArgs, rest := splitGlobalArgs(args)
	if err := global.Parse(globalArgs); err != nil {
		os.Exit(1)
	}

	cfg := config.New()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, pkg+err.Error())
			os.Exit(1)
		}
		cfg = loaded
	}

	level := logx.LevelFromString(cfg.LogLevel)
	if *verbose {
		level = logx.Debug
	}
	file := cfg.LogFile
	if *logFile != "" {
		file = *logFile
	}
	log := logx.New(file, level)

	var err error
	switch cmd {
	case "send":
		err = runSend(cfg, log, rest)
	case "receive":
		err = runReceive(cfg, log, rest)
	case "sendfile":
		err = runSendFile(cfg, log, rest)
	case "receivefile":
		err = runReceiveFile(cfg, log, rest)
	case "generate-keys":
		err = runGenerateKeys(rest)
	case "devices":
		err = runDevices()
	case "test":
		err = runTest(cfg, log, rest)
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "%sunknown command %q\n", pkg, cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		log.Error(err.Error())
		fmt.Fprintln(os.Stderr, pkg+err.Error())
		os.Exit(1)
	}
}

// splitGlobalArgs pulls out --config/--verbose/--log-file wherever they
// appear in args and returns the rest untouched for the subcommand's
// own FlagSet.
func splitGlobalArgs(args []string) (global, rest []string) {
	for i := 0; i < len(args); i++ {
		a := args[i]
		switch {
		case a == "--config" || a == "--verbose" || a == "--log-file":
			global = append(global, a)
			if a != "--verbose" && i+1 < len(args) {
				i++
				global = append(global, args[i])
			}
		default:
			rest = append(rest, a)
		}
	}
	return global, rest
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: soniclink [--config FILE] [--verbose] [--log-file FILE] <command> [args]

commands:
  send DATA [--public-key F] [--freq-min N] [--freq-max N] [--bitrate N] [--no-encrypt] [--no-compress]
  receive [--output F] [--private-key F] [--freq-min N] [--freq-max N] [--timeout S] [--no-decrypt] [--no-decompress]
  sendfile PATH ... [--public-key F]
  receivefile [--output F] [--private-key F]
  generate-keys [--private-key F] [--public-key F]
  devices
  test`)
}
