package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"archieos.app/intake/common/id"
	"archieos.app/intake/common/logger"
	"archieos.app/intake/core/config"
	"archieos.app/intake/core/db"
	"archieos.app/intake/internal/http/dto"
	"archieos.app/intake/internal/intake"
	"archieos.app/intake/internal/service"
	"archieos.app/intake/internal/store"
)

// cliNodeID keeps CLI-issued ids disjoint from the server (1) and worker (2).
const cliNodeID = 3

func processCmd() *cobra.Command {
	var maxMessages int

	cmd := &cobra.Command{
		Use:   "process",
		Short: "Drain the intake queue once",
		Long: `Claims up to --max-messages queue items, materializes them into
listings and agent tasks, and prints the result as JSON.

Examples:
  intake process
  intake process --max-messages 20`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := config.Load(config.ServiceTypeCLI)
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			logger.Setup(cfg)

			if err := id.Init(cliNodeID); err != nil {
				return err
			}
			location, err := time.LoadLocation(cfg.Classifier.Timezone)
			if err != nil {
				return fmt.Errorf("loading timezone: %w", err)
			}

			database, err := db.New(ctx, cfg.DB)
			if err != nil {
				return err
			}
			defer database.Close()

			stores := store.NewStores(database.Queries())
			processor := intake.NewProcessor(intake.Deps{
				Queue:           stores.IntakeQueue(),
				Events:          stores.IntakeEvents(),
				Classifications: stores.Classifications(),
				Users:           service.NewUserResolver(stores.Realtors(), slog.Default()),
				Tx:              service.NewTxRunner(database),
			}, intake.Config{
				ClaimantID: "cli",
				Lease:      cfg.Intake.ClaimLease,
				Location:   location,
			}, slog.Default())

			if maxMessages <= 0 {
				maxMessages = cfg.Intake.BatchSize
			}
			return runProcess(ctx, processor, maxMessages)
		},
	}

	cmd.Flags().IntVar(&maxMessages, "max-messages", 0, "maximum queue items to claim (default INTAKE_BATCH_SIZE)")
	return cmd
}

func runProcess(ctx context.Context, processor *intake.Processor, maxMessages int) error {
	processed, err := processor.PollAndIngestOnce(ctx, maxMessages)
	if err != nil {
		_ = json.NewEncoder(os.Stdout).Encode(dto.ErrorResponse{Error: err.Error()})
		return err
	}

	if err := json.NewEncoder(os.Stdout).Encode(dto.ProcessIntakeResponse{
		OK:          true,
		Processed:   processed,
		MaxMessages: maxMessages,
	}); err != nil {
		return err
	}
	if processed == 0 {
		color.New(color.Faint).Fprintln(os.Stderr, "queue is empty")
	}
	return nil
}
