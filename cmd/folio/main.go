package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/folio/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

const usage = `Usage: folio <command> [flags]

Commands:
  process   Process every PDF in a tab's input folder
  watch     Watch the input folders and process new PDFs as they arrive
  version   Print version information

Run 'folio <command> -h' for command flags.
`

func main() {
	// Unrecovered panics anywhere below land in a crash file under logs/
	defer common.RecoverWithCrashFile()

	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "process":
		err = runProcess(os.Args[2:])
	case "watch":
		err = runWatch(os.Args[2:])
	case "version", "-version", "-v":
		fmt.Printf("Folio version %s\n", common.GetFullVersion())
	case "-h", "-help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n%s", os.Args[1], usage)
		os.Exit(1)
	}

	if err != nil {
		os.Exit(1)
	}
}

// loadConfig runs the startup sequence shared by all commands:
// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
// 2. Initialize logger
// 3. Print banner
func loadConfig(configFiles configPaths) (*common.Config, arbor.ILogger, error) {
	// Auto-discover config file if not specified
	if len(configFiles) == 0 {
		if _, err := os.Stat("folio.toml"); err == nil {
			configFiles = append(configFiles, "folio.toml")
		} else if _, err := os.Stat("deployments/local/folio.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/folio.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		// Use temporary logger for startup errors
		tempLogger := arbor.NewLogger()
		tempLogger.Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return nil, nil, err
	}

	logger := common.InitLogger(config)
	common.PrintBanner(common.GetVersion())
	common.InstallCrashHandler("logs")

	logger.Info().
		Strs("config_files", configFiles).
		Str("input_dir", config.Input.Dir).
		Str("sheets_mode", config.Sheets.Mode).
		Msg("Configuration loaded")

	return config, logger, nil
}

// registerConfigFlag wires the repeatable -config/-c flag on a flag set
func registerConfigFlag(fs *flag.FlagSet, files *configPaths) {
	fs.Var(files, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	fs.Var(files, "c", "Configuration file path (shorthand)")
}
