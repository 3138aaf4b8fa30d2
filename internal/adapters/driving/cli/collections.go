package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/manualqa/internal/core/domain"
)

var collectionsJSON bool

var collectionsCmd = &cobra.Command{
	Use:   "collections",
	Short: "Manage ingested manuals",
	Long:  `List ingested manuals or show the details of one collection.`,
	RunE:  runCollectionsList,
}

var collectionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List collections",
	RunE:  runCollectionsList,
}

var collectionsGetCmd = &cobra.Command{
	Use:   "get [collection-id]",
	Short: "Show collection info",
	Args:  cobra.ExactArgs(1),
	RunE:  runCollectionsGet,
}

func init() {
	collectionsCmd.PersistentFlags().BoolVar(&collectionsJSON, "json", false, "output as JSON")
	collectionsCmd.AddCommand(collectionsListCmd)
	collectionsCmd.AddCommand(collectionsGetCmd)
	rootCmd.AddCommand(collectionsCmd)
}

func runCollectionsList(cmd *cobra.Command, _ []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collections, err := collectionService.List(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}

	if collectionsJSON {
		return outputJSON(cmd, collections)
	}

	if len(collections) == 0 {
		cmd.Println("No collections. Run 'manualqa ingest <file.pdf>' to add one.")
		return nil
	}

	cmd.Println("Collections:")
	cmd.Println()
	for i := range collections {
		c := &collections[i]
		cmd.Printf("  %s\n", c.ID)
		cmd.Printf("    Name: %s\n", c.Name)
		cmd.Printf("    Chunks: %d\n", c.Count)
		cmd.Println()
	}
	cmd.Printf("Total: %d collections\n", len(collections))
	return nil
}

func runCollectionsGet(cmd *cobra.Command, args []string) error {
	if collectionService == nil {
		return errors.New("collection service not configured")
	}

	collection, err := collectionService.Get(context.Background(), args[0])
	if errors.Is(err, domain.ErrCollectionNotFound) {
		return fmt.Errorf("collection not found: %s", args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to get collection: %w", err)
	}

	if collectionsJSON {
		return outputJSON(cmd, collection)
	}

	cmd.Printf("ID: %s\n", collection.ID)
	cmd.Printf("Name: %s\n", collection.Name)
	cmd.Printf("Content hash: %s\n", collection.ContentHash)
	cmd.Printf("Chunks: %d\n", collection.Count)
	cmd.Printf("Dimensions: %d\n", collection.Dimensions)
	if collection.EmbeddingModel != "" {
		cmd.Printf("Embedding model: %s\n", collection.EmbeddingModel)
	}
	if !collection.CreatedAt.IsZero() {
		cmd.Printf("Created: %s\n", collection.CreatedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func outputJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
