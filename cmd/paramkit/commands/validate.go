package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-paramkit/pkg/validation"
)

func newValidateCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "validate <script> <preset>",
		Short: "Checks a JSON5 preset against a script's parameters",
		Long: `The validate command extracts the script's schema and checks every value of
the preset: unknown keys, numbers outside their range, malformed colors and
wrong types are reported one per line. Keys the preset omits are allowed.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession()
			defer sess.Close()

			state, err := a.load(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			values, err := readPreset(args[1])
			if err != nil {
				return err
			}
			result := validation.Validate(state.Schema, values)

			if format != "" {
				data, err := encode(format, result)
				if err != nil {
					return err
				}
				if err := writeOutput(cmd, "", data); err != nil {
					return err
				}
			} else {
				w := cmd.OutOrStdout()
				for _, issue := range result.Issues {
					fmt.Fprintf(w, "%s: %s\n", issue.Path, issue.Message)
				}
				if result.Valid {
					fmt.Fprintf(w, "ok: %s matches %d parameters\n", args[1], state.Schema.Len())
				}
			}

			if !result.Valid {
				return fmt.Errorf("preset %s is invalid: %d issue(s)", args[1], len(result.Issues))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Print the result as json or yaml instead of text")
	return cmd
}
