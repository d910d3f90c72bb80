package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"voice-quiz-service/internal/config"
	"voice-quiz-service/internal/infra/memory"
	"voice-quiz-service/internal/infra/postgres"
)

// NewImportCmd loads a dataset JSON file into Postgres.
func NewImportCmd(configPath *string) *cobra.Command {
	var (
		file      string
		datasetID string
		list      bool
	)
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a quiz dataset JSON file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if list {
				return listDatasets(cmd.Context(), cfg, cmd)
			}
			if file == "" {
				file = cfg.Dataset.Path
			}
			if datasetID == "" {
				datasetID = cfg.Dataset.ID
			}
			return importDataset(cmd.Context(), cfg, file, datasetID)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "dataset JSON file (defaults to dataset.path)")
	cmd.Flags().StringVar(&datasetID, "id", "", "dataset id (defaults to dataset.id)")
	cmd.Flags().BoolVar(&list, "list", false, "list stored dataset ids instead of importing")
	return cmd
}

func importDataset(ctx context.Context, cfg config.Config, file, datasetID string) error {
	ds, err := memory.ReadDatasetFile(file)
	if err != nil {
		return err
	}
	ds.ID = datasetID

	if err := runMigrationsWithConfig(ctx, cfg); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := postgres.NewDatasetWriter(db).SaveDataset(ctx, ds); err != nil {
		return err
	}
	slog.Info("dataset imported", "id", ds.ID, "questions", len(ds.Questions), "answers", len(ds.Answers), "misc", len(ds.Misc))
	return nil
}

func listDatasets(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ids, err := postgres.NewDatasetWriter(db).ListDatasets(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		cmd.Println(id)
	}
	return nil
}
