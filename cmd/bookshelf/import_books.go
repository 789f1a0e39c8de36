package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/bookshelf/backend/internal/logger"
	"github.com/bookshelf/backend/internal/models"
	"github.com/bookshelf/backend/internal/services"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// importEntry is one record of an import file
type importEntry struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Image  string `json:"image"`
}

// bookAdder is the part of the catalog service an import needs
type bookAdder interface {
	Add(ctx context.Context, title, author, image string) error
}

// importBooks adds entries in order. Duplicates and incomplete entries are skipped; any other error stops the import.
func importBooks(ctx context.Context, catalog bookAdder, entries []importEntry) (added, skipped int, err error) {
	for _, e := range entries {
		addErr := catalog.Add(ctx, e.Title, e.Author, e.Image)
		switch {
		case addErr == nil:
			added++
		case errors.Is(addErr, models.ErrDuplicateBook), errors.Is(addErr, models.ErrInvalidInput):
			skipped++
			logger.Logger.Warn("Skipping book", zap.String("title", e.Title), zap.String("author", e.Author), zap.Error(addErr))
		default:
			return added, skipped, fmt.Errorf("failed to add %q: %w", e.Title, addErr)
		}
	}
	return added, skipped, nil
}

func newImportBooksCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import-books FILE",
		Short: "Add the books listed in a JSON file to the catalog",
		Long: `Reads a JSON array of {"title", "author", "image"} objects and adds each book
to the catalog. Books already present (same title and author, ignoring case) are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("failed to read import file: %w", err)
			}

			var entries []importEntry
			if err := json.Unmarshal(data, &entries); err != nil {
				return fmt.Errorf("failed to parse import file: %w", err)
			}

			a := bootstrap(cmd.Context())
			defer a.close()

			catalog := services.NewCatalogService(a.books, logger.Logger)
			added, skipped, err := importBooks(cmd.Context(), catalog, entries)
			if err != nil {
				return err
			}

			logger.Logger.Info("Import finished", zap.Int("added", added), zap.Int("skipped", skipped))
			fmt.Fprintf(cmd.OutOrStdout(), "added %d, skipped %d\n", added, skipped)
			return nil
		},
	}
}
