package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
)

func newResultCommand() *cobra.Command {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "result <job-id>",
		Short: "Fetch the result of a completed job",
		Long: `Fetch the measurement samples of a completed job.

The platform serves results only once a job has reached the complete
status; asking earlier returns an error from the server. The decoded
result is printed as JSON, or written to a file with --output.`,
		Example: `  # Print the samples for a job
  sf result 29583

  # Save them for later analysis
  sf result 29583 --output samples.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			log.Info().
				Int64("job_id", jobID).
				Str("output", outputPath).
				Msg("Fetching job result")

			ctx := cmd.Context()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			result := api.NewJobResult(sess.transport, jobID)
			if err := result.Fetch(ctx); err != nil {
				return fmt.Errorf("failed to fetch result for job %d: %w", jobID, err)
			}
			value, err := result.Value()
			if err != nil {
				return err
			}

			data, err := json.MarshalIndent(value, "", "  ")
			if err != nil {
				return fmt.Errorf("failed to encode result: %w", err)
			}
			sess.telemetry.Events.PublishResultFetched(jobID, len(data))

			if outputPath != "" {
				if err := os.WriteFile(outputPath, append(data, '\n'), 0644); err != nil {
					return fmt.Errorf("failed to write result file: %w", err)
				}
				fmt.Printf("Result for job %d written to %s\n", jobID, outputPath)
				return nil
			}

			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write the result to a file instead of stdout")

	return cmd
}
