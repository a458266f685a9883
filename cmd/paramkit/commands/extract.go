package commands

import (
	"github.com/spf13/cobra"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		format   string
		out      string
		describe bool
	)
	cmd := &cobra.Command{
		Use:   "extract <script>",
		Short: "Extracts the parameter schema declared by a script",
		Long: `The extract command locates the parameter declaration of a script (a file
path or an http(s) URL when enabled in the config) and prints the normalized
schema in declaration order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession()
			defer sess.Close()

			state, err := a.load(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}

			var value any = state.Schema
			if describe {
				value = state
			}
			data, err := encode(a.format(format), value)
			if err != nil {
				return err
			}
			return writeOutput(cmd, out, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json or yaml (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&describe, "describe", false, "Include location, extraction stage and classification")
	return cmd
}
