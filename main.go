package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/riscvm/config"
	"github.com/lookbusy1344/riscvm/loader"
	"github.com/lookbusy1344/riscvm/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"     // Version number (set by git tag at build time)
	Commit  = "unknown" // Git commit hash
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		configPath  = flag.String("config", "", "Path to a TOML config file (default: platform config dir)")
		maxCycles   = flag.Uint64("max-cycles", 0, "Maximum instructions before halt (0: use config/default)")
		traceState  = flag.Bool("trace", false, "Dump final CPU state after the program exits")
		verboseMode = flag.Bool("verbose", false, "Verbose output")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("riscvm %s\n", Version)
		if Commit != "unknown" {
			fmt.Printf("Commit: %s\n", Commit)
		}
		os.Exit(0)
	}

	if *showHelp || flag.NArg() == 0 {
		printHelp()
		os.Exit(0)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	elfPath := flag.Arg(0)
	extraArgs := flag.Args()[1:]

	if _, err := os.Stat(elfPath); os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Error: file not found: %s\n", elfPath)
		os.Exit(1)
	}

	machine := vm.NewVM()
	machine.MaxCycles = cfg.Execution.MaxCycles
	if *maxCycles > 0 {
		machine.MaxCycles = *maxCycles
	}

	if *verboseMode {
		fmt.Printf("Loading ELF: %s\n", elfPath)
	}

	result, err := loader.Load(elfPath, extraArgs, cfg.Execution.StackSize, machine.Mem, machine.CPU)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading program: %v\n", err)
		os.Exit(1)
	}
	machine.EntryPoint = result.Entry

	if *verboseMode {
		fmt.Printf("Entry point: 0x%016x, initial SP: 0x%016x\n", result.Entry, result.SP)
	}

	if err := machine.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		machine.DumpState(os.Stderr)
		os.Exit(1)
	}

	if *traceState || cfg.Execution.EnableTrace {
		machine.DumpState(os.Stdout)
	}

	fmt.Printf("Program exited with code: %d\n", machine.ExitCode)
	os.Exit(int(machine.ExitCode))
}

// loadConfig reads the named config file, or the default config path when
// path is empty. A missing file is not an error; LoadFrom yields defaults.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFrom(path)
	}
	return config.Load()
}

func printHelp() {
	fmt.Printf(`riscvm %s - a user-mode RV64GC emulator

Usage: riscvm [options] <elf-file> [guest-args...]

Options:
`, Version)
	flag.PrintDefaults()
}
