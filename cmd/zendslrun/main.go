// Command zendslrun parses and runs a ZenDSL script against a data
// and keys JSON document, printing the OUT compartment on success.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dyne-zen/zendsl/dsl"

	_ "github.com/dyne-zen/zendsl/scenarios/ecdsa"
	_ "github.com/dyne-zen/zendsl/scenarios/eddsa"
	_ "github.com/dyne-zen/zendsl/scenarios/hash"
)

var (
	dataPath   string
	keysPath   string
	configPath string
	verbose    bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:   "zendslrun SCRIPT",
	Short: "parse and run a ZenDSL script",
	Args:  cobra.ExactArgs(1),
	RunE:  runScript,
	// runScript returns its error and main prints it; cobra's default
	// double-print of the error plus a full usage dump would violate
	// the clean single-line-on-stderr exit contract.
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.Flags().StringVar(&dataPath, "data", "", "path to the DATA JSON document (IN)")
	rootCmd.Flags().StringVar(&keysPath, "keys", "", "path to the KEYS JSON document (IN.KEYS)")
	rootCmd.Flags().StringVar(&configPath, "config", "", "path to a zendsl.toml config file")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose trace logging")
	rootCmd.Flags().BoolVar(&debug, "debug", false, "enable debug-level trace logging")
}

func readOptional(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func runScript(cmd *cobra.Command, args []string) error {
	scriptBytes, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading script: %w", err)
	}

	dataJSON, err := readOptional(dataPath)
	if err != nil {
		return err
	}
	keysJSON, err := readOptional(keysPath)
	if err != nil {
		return err
	}

	cfg := dsl.DefaultConfig()
	if configPath != "" {
		cfg, err = dsl.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
	}
	if verbose {
		cfg.Verbose = true
	}
	if debug {
		cfg.Debug = true
	}

	var ctx *dsl.Ctx
	if cfg.Debug {
		ctx = dsl.NewTestCtx(context.Background())
	} else {
		ctx = dsl.NewCtx(context.Background())
	}
	ctx.Verbose = cfg.Verbose
	ctx.Debug = cfg.Debug
	defer ctx.Sync()

	engine := dsl.NewEngine(cfg)
	result, err := engine.ParseAndRun(ctx, string(scriptBytes), dataJSON, keysJSON)
	if err != nil {
		return err
	}

	out, err := dsl.EncodeValue(result.OUT)
	if err != nil {
		return fmt.Errorf("encoding output: %w", err)
	}
	fmt.Println(out)
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if b, ok := dsl.IsBroken(err); ok {
			fmt.Fprintln(os.Stderr, "internal fault: "+b.Error())
		} else {
			fmt.Fprintln(os.Stderr, err.Error())
		}
		os.Exit(1)
	}
}
