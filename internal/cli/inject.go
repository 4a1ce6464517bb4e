package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Dimoks/deepLuna/internal/config"
	"github.com/Dimoks/deepLuna/internal/opcode"
	"github.com/Dimoks/deepLuna/internal/reflow"
	"github.com/Dimoks/deepLuna/internal/store"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func injectCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inject",
		Short: "Re-encode the string table with translated, reflowed text",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outOffsets, _ := cmd.Flags().GetString("out-offsets")
			outStrings, _ := cmd.Flags().GetString("out-strings")
			scriptsDir, _ := cmd.Flags().GetString("scripts-dir")
			width, _ := cmd.Flags().GetInt("width")
			return runInject(cmd, outOffsets, outStrings, scriptsDir, width)
		},
	}
	cmd.Flags().String("out-offsets", "", "output path for the offset section")
	cmd.Flags().String("out-strings", "", "output path for the string section")
	cmd.Flags().String("scripts-dir", "", "also write re-encoded scene scripts here")
	cmd.Flags().Int("width", cfg.LineWidth, "wrap width in display cells")
	cmd.MarkFlagRequired("out-offsets")
	cmd.MarkFlagRequired("out-strings")
	return cmd
}

// runInject handles the `inject` command.
func runInject(cmd *cobra.Command, outOffsets, outStrings, scriptsDir string, width int) error {
	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	texts := assembleStrings(db, width)
	offsets, data := opcode.EncodeStringTable(texts)

	if err := os.WriteFile(outOffsets, offsets, 0o644); err != nil {
		return fmt.Errorf("write offset section: %w", err)
	}
	if err := os.WriteFile(outStrings, data, 0o644); err != nil {
		return fmt.Errorf("write string section: %w", err)
	}
	log.Info().
		Int("strings", len(texts)).
		Str("offsets", outOffsets).
		Str("strings_file", outStrings).
		Msg("String table injected")

	if scriptsDir != "" {
		if err := os.MkdirAll(scriptsDir, 0o755); err != nil {
			return fmt.Errorf("create scripts directory: %w", err)
		}
		scenes := db.SceneNames()
		for _, scene := range scenes {
			sc, ok := db.Scene(scene)
			if !ok {
				continue
			}
			outPath := filepath.Join(scriptsDir, scene+".txt")
			if err := os.WriteFile(outPath, opcode.EncodeScene(sc), 0o644); err != nil {
				return fmt.Errorf("write scene script: %w", err)
			}
		}
		log.Info().Int("scenes", len(scenes)).Str("dir", scriptsDir).Msg("Scene scripts regenerated")
	}
	return nil
}

// assembleStrings renders the final per-slot texts: slots referenced by
// a scene get the reflowed display text of their reference, the rest
// fall back to the entry's unwrapped display text, and the charswap
// map is applied after wrapping so substitutions never change measured
// widths.
func assembleStrings(db *store.DB, width int) []string {
	texts := make([]string, db.TableSize())
	filled := make([]bool, len(texts))

	for _, scene := range db.SceneNames() {
		refs, err := db.Lines(scene)
		if err != nil {
			continue
		}
		for offset, text := range reflow.SceneText(refs, db, width) {
			texts[offset] = text
			filled[offset] = true
		}
	}

	for offset := range texts {
		if filled[offset] {
			continue
		}
		hash, ok := db.HashForOffset(offset)
		if !ok {
			log.Warn().Int("offset", offset).Msg("String table slot not mapped, injecting empty text")
			continue
		}
		texts[offset] = db.DisplayText(opcode.TextReference{Offset: offset, ContentHash: hash})
	}

	for i := range texts {
		texts[i] = db.SwapText(texts[i])
	}
	return texts
}
