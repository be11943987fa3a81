package commands

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/noeta/NAR/config"
	"github.com/noeta/NAR/errors"
	"github.com/noeta/NAR/logger"
	"github.com/noeta/NAR/nal/engine"
	"github.com/noeta/NAR/nal/parser"
	"github.com/noeta/NAR/storage"
)

// RunCmd feeds a Narsese file into a fresh engine, runs reasoning cycles,
// and prints the resulting beliefs.
var RunCmd = &cobra.Command{
	Use:   "run <file>",
	Short: "Run the reasoner over a Narsese input file",
	Long: `Parse each statement in the file, run reasoning cycles, and print the
belief tables. Lines starting with // are comments.

With --db, the belief snapshot is loaded from the database before reasoning
and saved back afterwards, so knowledge accumulates across runs.`,
	Args: cobra.ExactArgs(1),
	RunE: runReasoner,
}

func init() {
	RunCmd.Flags().IntP("cycles", "n", 100, "Number of reasoning cycles to run")
	RunCmd.Flags().Int64("seed", 0, "Random seed for concept selection (reproducible runs)")
	RunCmd.Flags().StringP("config", "c", "", "Path to a nar.toml config file")
	RunCmd.Flags().String("db", "", "SQLite snapshot database path")
}

func runReasoner(cmd *cobra.Command, args []string) error {
	cycles, _ := cmd.Flags().GetInt("cycles")
	seed, _ := cmd.Flags().GetInt64("seed")
	configPath, _ := cmd.Flags().GetString("config")
	dbPath, _ := cmd.Flags().GetString("db")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Engine.Seed = seed
	}
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	e, err := engine.New(cfg.EngineParams(), logger.Logger.Named("engine"))
	if err != nil {
		return errors.Wrap(err, "failed to build engine")
	}

	var store *storage.Store
	if cmd.Flags().Changed("db") || dbPath != "" {
		store, err = storage.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer store.Close()

		loaded, err := store.LoadSnapshot(context.Background(), e)
		if err != nil {
			return err
		}
		if loaded > 0 {
			pterm.Info.Printfln("Restored %d beliefs from %s", loaded, cfg.Database.Path)
		}
	}

	accepted, failed, err := feedFile(e, args[0])
	if err != nil {
		return err
	}
	pterm.Info.Printfln("Accepted %d statements (%d rejected)", accepted, failed)

	e.RunCycles(cycles)
	printBeliefs(e)

	stats := e.Stats()
	pterm.Info.Printfln("Cycles: %d  Derived: %d  Concepts: %d",
		stats.Cycles, stats.Derived, stats.Concepts)

	if store != nil {
		if err := store.SaveSnapshot(context.Background(), e); err != nil {
			return err
		}
		pterm.Success.Printfln("Snapshot saved to %s", cfg.Database.Path)
	}
	return nil
}

func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if path != "" {
		cfg, err = config.LoadFromFile(path)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// feedFile inputs every statement line in the file. Parse errors are
// printed with full terminal formatting and counted, not fatal: one bad
// line must not discard the rest of the file.
func feedFile(e *engine.Engine, path string) (accepted, failed int, err error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, 0, errors.Wrapf(err, "failed to open input file %s", path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "//") {
			continue
		}
		if _, err := e.Input(line); err != nil {
			failed++
			var pe *parser.ParseError
			if errors.As(err, &pe) {
				fmt.Printf("%s line %d:\n%s\n", pterm.Yellow(path), lineNo,
					pe.FormatError(parser.ErrorContextTerminal))
			} else {
				pterm.Error.Printfln("%s line %d: %v", path, lineNo, err)
			}
			continue
		}
		accepted++
	}
	if err := scanner.Err(); err != nil {
		return accepted, failed, errors.Wrapf(err, "failed to read %s", path)
	}
	return accepted, failed, nil
}

func printBeliefs(e *engine.Engine) {
	beliefs := e.Beliefs(nil)
	if len(beliefs) == 0 {
		pterm.Info.Println("No beliefs")
		return
	}

	rows := pterm.TableData{{"Statement", "Frequency", "Confidence", "Evidence"}}
	for _, b := range beliefs {
		rows = append(rows, []string{
			b.Term.String(),
			fmt.Sprintf("%.2f", b.Truth.Frequency),
			fmt.Sprintf("%.2f", b.Truth.Confidence),
			fmt.Sprintf("%d", len(b.Stamp.Evidence)),
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		for _, b := range beliefs {
			fmt.Println(b.String())
		}
	}
}
