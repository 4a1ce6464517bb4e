package cli

import (
	"fmt"

	"github.com/Dimoks/deepLuna/internal/config"
	"github.com/Dimoks/deepLuna/internal/deepl"
	"github.com/Dimoks/deepLuna/internal/store"
	"github.com/Dimoks/deepLuna/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func translateCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "translate",
		Short: "Machine-translate untranslated entries through a DeepL-style API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			sourceLang, _ := cmd.Flags().GetString("source-lang")
			targetLang, _ := cmd.Flags().GetString("target-lang")
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return runTranslate(cmd, cfg, limit, sourceLang, targetLang, dryRun)
		},
	}
	cmd.Flags().Int("limit", 0, "translate at most this many entries (0 = all)")
	cmd.Flags().String("source-lang", "JA", "source language code")
	cmd.Flags().String("target-lang", "EN-US", "target language code")
	cmd.Flags().Bool("dry-run", false, "report the plan without calling the API")
	return cmd
}

// runTranslate handles the `translate` command. Only entries with no
// translation are filled; human work is never overwritten.
func runTranslate(cmd *cobra.Command, cfg *config.Config, limit int, sourceLang, targetLang string, dryRun bool) error {
	ctx, cancel := setupContext()
	defer cancel()

	db, err := store.LoadFile(databasePath(cmd))
	if err != nil {
		return err
	}

	hashes := db.UntranslatedHashes()
	if limit > 0 && len(hashes) > limit {
		hashes = hashes[:limit]
	}
	if len(hashes) == 0 {
		log.Info().Msg("Nothing left to translate")
		return nil
	}

	batches := worker.Batch(hashes, cfg.MTBatchSize)
	log.Info().Int("entries", len(hashes)).Int("batches", len(batches)).Msg("Translation plan")
	if dryRun {
		return nil
	}

	if cfg.DeepLAPIKey == "" {
		return fmt.Errorf("DEEPL_API_KEY is not set")
	}
	client := deepl.NewClient(cfg.DeepLAPIURL, cfg.DeepLAPIKey)

	translated := 0
	for batchIdx, batch := range batches {
		if ctx.Err() != nil {
			log.Warn().Int("done", translated).Msg("Cancelled, keeping completed batches")
			break
		}

		texts := make([]string, len(batch))
		for i, hash := range batch {
			entry, _ := db.Entry(hash)
			texts[i] = entry.SourceText
		}

		results, err := client.Translate(ctx, texts, sourceLang, targetLang)
		if err != nil {
			log.Error().Err(err).Int("batch", batchIdx+1).Msg("Batch translation failed")
			continue
		}

		for i, hash := range batch {
			entry, _ := db.Entry(hash)
			if err := db.SetByHash(hash, results[i], entry.Comment); err != nil {
				return err
			}
		}
		translated += len(batch)
		log.Info().
			Int("batch", batchIdx+1).
			Int("total_batches", len(batches)).
			Int("done", translated).
			Msg("Batch translated")
	}

	if err := db.SaveFile(databasePath(cmd)); err != nil {
		return err
	}
	log.Info().Int("translated", translated).Msg("Machine translation complete")
	return ctx.Err()
}
