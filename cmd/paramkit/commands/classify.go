package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-paramkit/pkg/classify"
	"github.com/goliatone/go-paramkit/pkg/script"
)

func newClassifyCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "classify <script>",
		Short: "Reports whether a script is printable or animated",
		Long: `The classify command runs the rule table over a script and prints the
verdict, its confidence and the features that fired. Classification never
fails; scripts without parameters are still classified.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := script.ParseSource(args[0])
			if err != nil {
				return err
			}
			doc, err := a.loader().Load(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("load %s: %w", src.Location(), err)
			}

			verdict := classify.New(classify.WithLogger(a.logger)).Classify(doc.Text())
			data, err := encode(a.format(format), verdict)
			if err != nil {
				return err
			}
			return writeOutput(cmd, "", data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json or yaml (default from config)")
	return cmd
}
