package server

import (
	"fmt"
	"os"
	"path/filepath"

	"library/graph"
	"library/utils"

	"github.com/vektah/gqlparser/v2/formatter"
	"go.uber.org/zap"
)

// ExportSchema validates the schema contract and writes it to path.
// An empty path means schema.graphql in the working directory.
func ExportSchema(path string) error {
	if path == "" {
		path = filepath.Join(".", "schema.graphql")
	}

	schema, err := graph.LoadSDL()
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create schema file: %w", err)
	}
	defer file.Close()

	formatter.NewFormatter(file).FormatSchema(schema)

	utils.Logger.Info("Schema generated to file", zap.String("path", path))
	return nil
}
