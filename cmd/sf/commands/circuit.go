package commands

import (
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
	"github.com/thomascherickal/strawberryfields/pkg/telemetry"
)

func newCircuitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuit <job-id>",
		Short: "Fetch the circuit of a submitted job",
		Long: `Fetch the circuit source the platform holds for a job.

This is the program as the server accepted it, which is useful for
confirming what actually ran when the local file has changed since
submission.`,
		Example: `  # Show the circuit the platform executed
  sf circuit 29583`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			log.Info().
				Int64("job_id", jobID).
				Msg("Fetching job circuit")

			ctx := cmd.Context()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			circuit := api.NewJobCircuit(sess.transport, jobID)
			if err := circuit.Fetch(ctx); err != nil {
				return fmt.Errorf("failed to fetch circuit for job %d: %w", jobID, err)
			}
			source, err := circuit.Value()
			if err != nil {
				return err
			}

			sess.telemetry.Events.Publish(telemetry.Event{
				Type:    telemetry.EventTypeCircuitFetched,
				Source:  "api",
				JobID:   jobID,
				Message: fmt.Sprintf("circuit for job %d fetched", jobID),
			})

			if jsonOutput {
				return printJSON(map[string]interface{}{
					"job_id":  jobID,
					"circuit": source,
				})
			}

			fmt.Println(source)
			return nil
		},
	}

	return cmd
}
