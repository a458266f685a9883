package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-paramkit/pkg/orchestrator"
	"github.com/goliatone/go-paramkit/pkg/render"
	"github.com/goliatone/go-paramkit/pkg/renderers/html"
	"github.com/goliatone/go-paramkit/pkg/renderers/tui"
	"github.com/goliatone/go-paramkit/pkg/script"
)

func newPanelCmd(a *app) *cobra.Command {
	var (
		rendererName string
		out          string
		preset       string
		overrides    string
		action       string
		title        string
		printable    bool
		inlineStyles bool
	)
	cmd := &cobra.Command{
		Use:   "panel <script>",
		Short: "Renders the parameter panel of a script",
		Long: `The panel command renders the controls for every parameter of a script as
HTML (default), as the JSON panel model, or as a text summary. Preset values
are shown in the controls; invalid values are flagged next to the control
instead of failing the render.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := script.ParseSource(args[0])
			if err != nil {
				return err
			}

			htmlOptions := []html.Option{html.WithAction(action)}
			if inlineStyles {
				htmlOptions = append(htmlOptions, html.WithInlineStyles())
			}
			htmlRenderer, err := html.New(htmlOptions...)
			if err != nil {
				return err
			}
			registry, err := render.NewRegistry(
				htmlRenderer,
				render.JSON{Indent: "  "},
				tui.New(tui.WithPromptDriver(a.driver), tui.WithLogger(a.logger)),
			)
			if err != nil {
				return err
			}

			options := []orchestrator.Option{
				orchestrator.WithLoader(a.loader()),
				orchestrator.WithExtractor(a.extractor()),
				orchestrator.WithRegistry(registry),
				orchestrator.WithLogger(a.logger),
			}
			if overrides != "" {
				data, err := os.ReadFile(overrides)
				if err != nil {
					return fmt.Errorf("panel: %w", err)
				}
				transformer, err := orchestrator.NewOverridesTransformer(data)
				if err != nil {
					return err
				}
				options = append(options, orchestrator.WithPanelTransformer(transformer))
			}

			req := orchestrator.Request{
				Source:        src,
				Renderer:      rendererName,
				RenderOptions: render.RenderOptions{Title: title},
			}
			if preset != "" {
				values, err := readPreset(preset)
				if err != nil {
					return err
				}
				req.RenderOptions.Values = values
			}
			if cmd.Flags().Changed("printable") {
				req.Printable = &printable
			}

			output, err := orchestrator.New(options...).Generate(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("panel: %w", err)
			}
			return writeOutput(cmd, out, output)
		},
	}
	cmd.Flags().StringVarP(&rendererName, "renderer", "r", "html", "Renderer: html, json or text")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&preset, "values", "", "JSON5 preset shown in the controls")
	cmd.Flags().StringVar(&overrides, "overrides", "", "JSON5 document relabelling or hiding controls")
	cmd.Flags().StringVar(&action, "action", "", "Form action for the html panel")
	cmd.Flags().StringVar(&title, "title", "", "Panel title (default: the script location)")
	cmd.Flags().BoolVar(&printable, "printable", false, "Override the printable classification")
	cmd.Flags().BoolVar(&inlineStyles, "inline-styles", false, "Embed the panel stylesheet in the html output")
	return cmd
}
