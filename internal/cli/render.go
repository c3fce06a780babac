package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pixelbooth/montage/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output  string // output file path
	format  string // output format: "png" or "jpeg"
	schema  string // schema document path
	noCache bool   // disable the artifact cache
	refresh bool   // bypass and overwrite the cached artifact
}

// renderCommand creates the render command for compositing photos.
//
// The first argument is the template package directory; the remaining
// arguments are the captured photos, in placement order. The template must
// have at most as many placements as there are photos.
func (c *CLI) renderCommand() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <template-dir> <photo>...",
		Short: "Composite captured photos into a template",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.format == "" {
				opts.format = c.Config.Format
			}
			if opts.format != "" {
				if err := pipeline.ValidateFormat(opts.format); err != nil {
					return err
				}
			}
			return c.runRender(cmd.Context(), args[0], args[1:], &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: derived from the template name)")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "output format: png (default), jpeg")
	cmd.Flags().StringVar(&opts.schema, "schema", "", "path to PhotoTemplate.xsd")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the artifact cache")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "re-render even if cached")

	return cmd
}

// runRender executes the pipeline and writes the artifact to disk.
func (c *CLI) runRender(ctx context.Context, templateDir string, photos []string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)

	runner, err := c.newRunner(ctx, opts.noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(logger)
	spin := newSpinner(ctx, fmt.Sprintf("Rendering %s", filepath.Base(templateDir)))
	spin.Start()

	result, err := runner.Execute(ctx, pipeline.Options{
		TemplateDir: templateDir,
		SchemaPath:  c.schemaPath(opts.schema),
		Photos:      photos,
		Format:      opts.format,
		Refresh:     opts.refresh,
		Logger:      logger,
	})
	if err != nil {
		spin.StopWithError(fmt.Sprintf("Render failed: %v", err))
		return err
	}
	spin.Stop()

	outputPath := opts.output
	if outputPath == "" {
		outputPath = derivedOutputPath(result.Layout.Name, result.Format)
	}
	if err := os.WriteFile(outputPath, result.Artifact, 0644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	prog.done(fmt.Sprintf("Rendered %d photos into %s", result.Stats.Placements, result.Layout.Name))

	printSuccess("Rendered %s", result.Layout.Name)
	printStats(result.Stats.Placements, result.CacheInfo.ArtifactHit)
	printFile(outputPath)
	return nil
}

// derivedOutputPath builds an output filename from the template name.
func derivedOutputPath(templateName, format string) string {
	base := strings.ToLower(strings.ReplaceAll(templateName, " ", "_"))
	if base == "" {
		base = "montage"
	}
	return base + "." + format
}
