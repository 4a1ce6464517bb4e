package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/Dimoks/deepLuna/internal/config"
	"github.com/Dimoks/deepLuna/internal/filewalker"
	"github.com/Dimoks/deepLuna/internal/merge"
	"github.com/Dimoks/deepLuna/internal/opcode"
	"github.com/Dimoks/deepLuna/internal/readable"
	"github.com/Dimoks/deepLuna/internal/store"
	"github.com/Dimoks/deepLuna/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// ErrUnresolvedConflicts is returned by a strict import that left
// conflicts behind. Execute exits with a distinct code for it so
// scripts can tell "merge needs a human" from a crash.
var ErrUnresolvedConflicts = errors.New("unresolved conflicts remain")

// Execute runs the CLI application.
func Execute() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg := config.Load()

	var verbose bool
	rootCmd := &cobra.Command{
		Use:   "deepluna",
		Short: "Translation database tool for opcode-scripted visual novels",
		Long: "deepLuna maintains a hash-keyed translation database for opcode scene\n" +
			"scripts: extraction from the game string table, collaborative candidate\n" +
			"imports with conflict resolution, proofreading exports, and re-injection\n" +
			"with display-width line reflow.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			} else {
				zerolog.SetGlobalLevel(zerolog.InfoLevel)
			}
		},
	}
	rootCmd.PersistentFlags().String("db", cfg.DatabasePath, "translation database path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(extractCmd(cfg))
	rootCmd.AddCommand(importCmd(cfg))
	rootCmd.AddCommand(legacyImportCmd(cfg))
	rootCmd.AddCommand(exportCmd(cfg))
	rootCmd.AddCommand(injectCmd(cfg))
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(charswapCmd())
	rootCmd.AddCommand(translateCmd(cfg))

	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, ErrUnresolvedConflicts) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

// setupContext creates a cancellable context with signal handling.
func setupContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		log.Warn().Msg("Received shutdown signal, cancelling...")
		cancel()
	}()

	return ctx, cancel
}

func databasePath(cmd *cobra.Command) string {
	path, _ := cmd.Flags().GetString("db")
	return path
}

func sceneName(path string) string {
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}

func extractCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "extract <offsets.bin> <strings.bin> <scene-dir>",
		Short: "Decode the string table and parse scene scripts into a fresh database",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExtract(cmd, cfg, args[0], args[1], args[2])
		},
	}
}

// runExtract handles the `extract` command.
func runExtract(cmd *cobra.Command, cfg *config.Config, offsetsPath, stringsPath, sceneDir string) error {
	ctx, cancel := setupContext()
	defer cancel()

	offsetsRaw, err := os.ReadFile(offsetsPath)
	if err != nil {
		return fmt.Errorf("read offset section: %w", err)
	}
	stringsRaw, err := os.ReadFile(stringsPath)
	if err != nil {
		return fmt.Errorf("read string section: %w", err)
	}

	texts, err := opcode.DecodeStringTable(offsetsRaw, stringsRaw)
	if err != nil {
		return fmt.Errorf("decode string table: %w", err)
	}

	db := store.New()
	db.RegisterStrings(texts)
	log.Info().Int("strings", len(texts)).Msg("String table decoded")

	files, err := filewalker.TextFiles(sceneDir)
	if err != nil {
		return fmt.Errorf("walk scene directory: %w", err)
	}
	log.Info().Int("files", len(files)).Msg("Parsing scene scripts")

	// Workers only read the string index, so the shared db is safe
	// until the serial PutScene phase below.
	pool := worker.NewPool(cfg.WorkerCount,
		func(ctx context.Context, path string) (*opcode.Scene, error) {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("read scene: %w", err)
			}
			return opcode.ParseScene(data, db, db)
		},
	)
	results := pool.Execute(ctx, files)
	if err := ctx.Err(); err != nil {
		return err
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			continue
		}
		db.PutScene(sceneName(r.Input), r.Value)
	}
	if failed > 0 {
		return fmt.Errorf("%d scene script(s) failed to parse", failed)
	}

	dbPath := databasePath(cmd)
	if err := db.SaveFile(dbPath); err != nil {
		return err
	}
	log.Info().
		Int("scenes", len(files)).
		Int("entries", db.EntryCount()).
		Str("db", dbPath).
		Msg("Extraction complete")
	return nil
}

func importCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Merge candidate translation files into the database",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.ImportDir
			if len(args) > 0 {
				dir = args[0]
			}
			interactive, _ := cmd.Flags().GetBool("interactive")
			strict, _ := cmd.Flags().GetBool("strict")
			deleteFiles, _ := cmd.Flags().GetBool("delete")
			return runImport(cmd, dir, interactive, strict, deleteFiles)
		},
	}
	cmd.Flags().Bool("interactive", false, "resolve conflicts with a numbered prompt")
	cmd.Flags().Bool("strict", false, "exit non-zero when conflicts remain unresolved")
	cmd.Flags().Bool("delete", false, "delete candidate files once fully consumed")
	return cmd
}

// runImport handles the `import` command.
func runImport(cmd *cobra.Command, dir string, interactive, strict, deleteFiles bool) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	files, err := filewalker.TextFiles(dir)
	if err != nil {
		return fmt.Errorf("walk import directory: %w", err)
	}
	if len(files) == 0 {
		log.Info().Str("dir", dir).Msg("No candidate files to import")
		return nil
	}

	diff := merge.NewDiff()
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read candidates: %w", err)
		}
		if err := merge.ParseCandidates(diff, filepath.Base(file), content, db); err != nil {
			return err
		}
	}

	applied, conflicts, err := merge.Apply(diff, db)
	if err != nil {
		return err
	}
	log.Info().Int("groups", applied).Int("conflicts", conflicts).Msg("Unique groups applied")

	unresolved := conflicts
	if conflicts > 0 && interactive {
		resolved, err := resolveInteractive(cmd.InOrStdin(), cmd.OutOrStdout(), db, diff.Conflicts())
		if err != nil {
			return err
		}
		unresolved = conflicts - resolved
	}

	if err := db.SaveFile(databasePath(cmd)); err != nil {
		return err
	}

	if deleteFiles {
		if unresolved > 0 {
			log.Warn().Msg("Keeping candidate files while conflicts remain")
		} else {
			for _, file := range files {
				if err := os.Remove(file); err != nil {
					log.Warn().Err(err).Str("file", file).Msg("Failed to delete consumed candidate file")
				}
			}
		}
	}

	if unresolved > 0 {
		log.Warn().Int("conflicts", unresolved).Msg("Conflicts left unresolved")
		if strict {
			return ErrUnresolvedConflicts
		}
	}
	return nil
}

// resolveInteractive walks the conflict groups with a numbered prompt.
// "k N" keeps candidate N for every copy of the line, "o N[,N...]"
// turns the listed candidates into offset overrides with the rest
// written by hash, "s" leaves the group unresolved.
func resolveInteractive(in io.Reader, out io.Writer, db *store.DB, conflicts []*merge.Group) (int, error) {
	scanner := bufio.NewScanner(in)
	resolved := 0
	for i, g := range conflicts {
		entry, _ := db.Entry(g.Hash)
		fmt.Fprintf(out, "\nConflict %d of %d: %s\n", i+1, len(conflicts), entry.SourceText)
		for j, c := range g.Candidates() {
			note := ""
			if c.Comment != "" {
				note = " // " + c.Comment
			}
			fmt.Fprintf(out, "  [%d] %s:%d (offset %d) %s%s\n", j+1, c.Filename, c.Line, c.Offset, c.TranslatedText, note)
		}
		for {
			fmt.Fprint(out, "keep for all (k N), override offsets (o N[,N...]), skip (s): ")
			if !scanner.Scan() {
				return resolved, scanner.Err()
			}
			done, err := applyAnswer(db, g, strings.TrimSpace(scanner.Text()))
			if err != nil {
				fmt.Fprintf(out, "%v\n", err)
				continue
			}
			if done {
				resolved++
			}
			break
		}
	}
	return resolved, nil
}

func applyAnswer(db *store.DB, g *merge.Group, answer string) (bool, error) {
	if answer == "s" || answer == "" {
		return false, nil
	}
	fields := strings.Fields(answer)
	if len(fields) != 2 {
		return false, fmt.Errorf("unrecognized answer %q", answer)
	}
	switch fields[0] {
	case "k":
		n, err := strconv.Atoi(fields[1])
		if err != nil || n < 1 || n > len(g.Candidates()) {
			return false, fmt.Errorf("candidate number out of range: %s", fields[1])
		}
		return true, g.Keep(db, n-1)
	case "o":
		var selected []int
		for _, part := range strings.Split(fields[1], ",") {
			n, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || n < 1 || n > len(g.Candidates()) {
				return false, fmt.Errorf("candidate number out of range: %s", part)
			}
			selected = append(selected, n-1)
		}
		return true, g.Resolve(db, selected)
	}
	return false, fmt.Errorf("unrecognized answer %q", answer)
}

func legacyImportCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "legacy-import [dir]",
		Short: "Import old-style readable update files, one file at a time",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := cfg.ImportDir
			if len(args) > 0 {
				dir = args[0]
			}
			strict, _ := cmd.Flags().GetBool("strict")
			deleteFiles, _ := cmd.Flags().GetBool("delete")
			return runLegacyImport(cmd, dir, strict, deleteFiles)
		},
	}
	cmd.Flags().Bool("strict", false, "exit non-zero when any update file fails")
	cmd.Flags().Bool("delete", false, "delete update files once applied")
	return cmd
}

// runLegacyImport handles the `legacy-import` command. Malformed files
// are reported and left on disk; the rest of the queue still imports.
func runLegacyImport(cmd *cobra.Command, dir string, strict, deleteFiles bool) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	files, err := filewalker.TextFiles(dir)
	if err != nil {
		return fmt.Errorf("walk import directory: %w", err)
	}
	if len(files) == 0 {
		log.Info().Str("dir", dir).Msg("No update files to import")
		return nil
	}

	var consumed []string
	failed := 0
	totalApplied := 0
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Update file unreadable")
			failed++
			continue
		}
		updates, err := readable.ParseUpdate(content)
		if err != nil {
			log.Error().Err(err).Str("file", file).Msg("Update file malformed, skipping")
			failed++
			continue
		}
		applied, skipped := readable.ApplyUpdate(db, updates)
		totalApplied += applied
		log.Info().
			Str("file", filepath.Base(file)).
			Int("applied", applied).
			Int("skipped", skipped).
			Msg("Update file imported")
		consumed = append(consumed, file)
	}

	if err := db.SaveFile(databasePath(cmd)); err != nil {
		return err
	}

	if deleteFiles {
		for _, file := range consumed {
			if err := os.Remove(file); err != nil {
				log.Warn().Err(err).Str("file", file).Msg("Failed to delete consumed update file")
			}
		}
	}

	log.Info().Int("files", len(consumed)).Int("entries", totalApplied).Msg("Legacy import complete")
	if failed > 0 {
		log.Warn().Int("files", failed).Msg("Some update files failed to import")
		if strict {
			return fmt.Errorf("%d update file(s) failed to import", failed)
		}
	}
	return nil
}

func exportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export [out-dir [scene...]]",
		Short: "Write per-scene readable files for proofreading",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := cfg.ExportDir
			var scenes []string
			if len(args) > 0 {
				outDir = args[0]
				scenes = args[1:]
			}
			return runExport(cmd, outDir, scenes)
		},
	}
}

// runExport handles the `export` command.
func runExport(cmd *cobra.Command, outDir string, scenes []string) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	if len(scenes) == 0 {
		scenes = db.SceneNames()
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}

	for _, scene := range scenes {
		text, err := readable.ExportScene(db, scene)
		if err != nil {
			return err
		}
		outPath := filepath.Join(outDir, scene+".txt")
		if err := os.WriteFile(outPath, []byte(text), 0o644); err != nil {
			return fmt.Errorf("write export: %w", err)
		}
	}
	log.Info().Int("scenes", len(scenes)).Str("dir", outDir).Msg("Export complete")
	return nil
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show global and per-scene translation progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd)
		},
	}
}

// runStats handles the `stats` command.
func runStats(cmd *cobra.Command) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	translated := db.EntryCount() - len(db.UntranslatedHashes())
	fmt.Fprintf(out, "Translated: %.1f%% (%d of %d lines)\n", db.TranslatedPercent(), translated, db.EntryCount())
	for _, scene := range db.SceneNames() {
		percent, err := db.ScenePercent(scene)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-24s %5.1f%%\n", scene, percent)
	}
	return nil
}

func charswapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "charswap <file>",
		Short: "Load a character substitution map into the database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCharswap(cmd, args[0])
		},
	}
}

// runCharswap handles the `charswap` command.
func runCharswap(cmd *cobra.Command, path string) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open charswap config: %w", err)
	}
	defer f.Close()

	m, err := store.ParseCharswap(f)
	if err != nil {
		return err
	}
	db.SetCharswap(m)

	if err := db.SaveFile(databasePath(cmd)); err != nil {
		return err
	}
	log.Info().Int("pairs", len(m)).Msg("Charswap map loaded")
	return nil
}
