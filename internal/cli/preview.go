package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelbooth/montage/pkg/compose"
	"github.com/pixelbooth/montage/pkg/compose/sink"
	"github.com/pixelbooth/montage/pkg/template"
)

// previewCommand creates the preview command, which renders a wireframe of
// a template's placement boxes without loading any photos. Useful while
// authoring templates.
func (c *CLI) previewCommand() *cobra.Command {
	var output, schema string

	cmd := &cobra.Command{
		Use:   "preview <template-dir>",
		Short: "Render a wireframe preview of a template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runPreview(cmd.Context(), args[0], output, schema)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: <template>_preview.png)")
	cmd.Flags().StringVar(&schema, "schema", "", "path to PhotoTemplate.xsd")

	return cmd
}

func (c *CLI) runPreview(ctx context.Context, dir, output, schema string) error {
	logger := loggerFromContext(ctx)

	l, err := template.Parse(dir, template.Options{SchemaPath: c.schemaPath(schema)})
	if err != nil {
		return err
	}
	logger.Debug("parsed template", "name", l.Name, "placements", len(l.Placements))

	img, err := compose.Preview(l)
	if err != nil {
		return err
	}
	data, err := sink.Encode(img, sink.FormatPNG)
	if err != nil {
		return err
	}

	if output == "" {
		output = strings.ToLower(strings.ReplaceAll(l.Name, " ", "_")) + "_preview.png"
	}
	if err := os.WriteFile(output, data, 0644); err != nil {
		return fmt.Errorf("write preview: %w", err)
	}

	printSuccess("Previewed %s", l.Name)
	printFile(output)
	return nil
}
