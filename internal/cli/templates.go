package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pixelbooth/montage/pkg/template"
)

// templatesCommand creates the templates command group for inspecting
// template packages on disk.
func (c *CLI) templatesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "templates",
		Short: "List or validate template packages",
	}

	cmd.AddCommand(c.templatesListCommand())
	cmd.AddCommand(c.templatesValidateCommand())

	return cmd
}

// templatesListCommand lists all valid templates under a directory.
// Subdirectories with broken templates are skipped with a warning, matching
// the loader's behavior at service startup.
func (c *CLI) templatesListCommand() *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "list [dir]",
		Short: "List valid templates in a directory",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := c.Config.TemplateDir
			if len(args) > 0 {
				dir = args[0]
			}
			if dir == "" {
				dir = "."
			}
			return c.runTemplatesList(cmd.Context(), dir, schema)
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "path to PhotoTemplate.xsd")

	return cmd
}

func (c *CLI) runTemplatesList(ctx context.Context, dir, schema string) error {
	logger := loggerFromContext(ctx)

	prog := newProgress(logger)
	mgr, err := template.NewManager(dir, template.Options{SchemaPath: c.schemaPath(schema)}, logger)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Scanned %d templates in %s", mgr.Count(), dir))
	if mgr.Count() == 0 {
		printInfo("No valid templates in %s", dir)
		return nil
	}

	fmt.Println(StyleTitle.Render(fmt.Sprintf("Templates (%d)", mgr.Count())))
	for i, l := range mgr.Layouts() {
		w, h := l.MaxPlacementSize()
		fmt.Printf("  %s %s %s\n",
			StyleDim.Render(fmt.Sprintf("%d.", i+1)),
			StyleValue.Render(l.Name),
			StyleDim.Render(fmt.Sprintf("%dx%d canvas, %d placements, max slot %dx%d",
				l.CanvasWidth, l.CanvasHeight, len(l.Placements), w, h)))
	}
	return nil
}

// templatesValidateCommand validates a single template package and reports
// which stage failed, if any.
func (c *CLI) templatesValidateCommand() *cobra.Command {
	var schema string

	cmd := &cobra.Command{
		Use:   "validate <template-dir>",
		Short: "Validate a single template package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := template.Parse(args[0], template.Options{SchemaPath: c.schemaPath(schema)})
			if err != nil {
				printError("%v", err)
				return err
			}
			printSuccess("Valid template")
			printKeyValue("Name", l.Name)
			if l.Author != "" {
				printKeyValue("Author", l.Author)
			}
			printKeyValue("Canvas", fmt.Sprintf("%dx%d", l.CanvasWidth, l.CanvasHeight))
			printKeyValue("Placements", fmt.Sprintf("%d", len(l.Placements)))
			return nil
		},
	}

	cmd.Flags().StringVar(&schema, "schema", "", "path to PhotoTemplate.xsd")

	return cmd
}
