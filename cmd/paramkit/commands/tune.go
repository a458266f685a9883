package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-paramkit/pkg/renderers/tui"
)

func newTuneCmd(a *app) *cobra.Command {
	var (
		format string
		out    string
		preset string
	)
	cmd := &cobra.Command{
		Use:   "tune <script>",
		Short: "Tunes script parameters interactively",
		Long: `The tune command prompts for parameter values in the terminal. Numbers are
clamped to their range and invalid input reverts to the default, exactly as
the preview panel does. The tuned values are printed when you pick Done.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess := a.newSession()
			defer sess.Close()

			state, err := a.load(cmd.Context(), sess, args[0])
			if err != nil {
				return err
			}
			if preset != "" {
				values, err := readPreset(preset)
				if err != nil {
					return err
				}
				if err := sess.ApplyPreset(values); err != nil {
					return err
				}
			}

			outputFormat := tui.OutputFormat(a.format(format))
			tuner := tui.New(
				tui.WithPromptDriver(a.driver),
				tui.WithOutputFormat(outputFormat),
				tui.WithLogger(a.logger),
			)
			// Fail on a bad format before prompting.
			if _, err := tuner.Encode(state.Schema, nil); err != nil {
				return err
			}

			values, err := tuner.Tune(cmd.Context(), sess.Store())
			if errors.Is(err, tui.ErrAborted) {
				return fmt.Errorf("tune aborted")
			}
			if err != nil {
				return err
			}
			a.logger.Debug("tuned parameters", zap.String("location", state.Location), zap.Int("count", len(values)))

			data, err := tuner.Encode(state.Schema, values)
			if err != nil {
				return err
			}
			if len(data) > 0 && data[len(data)-1] != '\n' {
				data = append(data, '\n')
			}
			return writeOutput(cmd, out, data)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format: json, yaml, form or pretty (default from config)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "Write to a file instead of stdout")
	cmd.Flags().StringVar(&preset, "values", "", "JSON5 preset applied before prompting")
	return cmd
}
