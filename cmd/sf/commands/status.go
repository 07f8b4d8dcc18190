package commands

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
)

func newStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status <job-id>",
		Short: "Show the current status of a job",
		Long: `Fetch a job from the platform and print its current state.

When the job is known to the local ledger, the observed status is recorded
there as well, so "sf jobs" stays accurate without an explicit refresh.`,
		Example: `  # Check on a job
  sf status 29583

  # Machine-readable output
  sf status 29583 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid job id %q: %w", args[0], err)
			}

			log.Info().
				Int64("job_id", jobID).
				Msg("Fetching job")

			ctx := cmd.Context()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			job := api.NewJob(sess.transport)
			if err := job.Fetch(ctx, jobID); err != nil {
				return fmt.Errorf("failed to fetch job %d: %w", jobID, err)
			}

			status, err := job.Status()
			if err != nil {
				return err
			}
			recordObservedStatus(ctx, sess, jobID, status)

			if jsonOutput {
				return printJSON(jobView(job))
			}

			fmt.Printf("Job:      %d\n", jobID)
			fmt.Printf("Status:   %s\n", status)
			if createdAt, err := job.CreatedAt(); err == nil && !createdAt.IsZero() {
				fmt.Printf("Created:  %s\n", createdAt.Format(time.RFC3339))
			}
			if startedAt, err := job.StartedAt(); err == nil && !startedAt.IsZero() {
				fmt.Printf("Started:  %s\n", startedAt.Format(time.RFC3339))
			}
			if finishedAt, err := job.FinishedAt(); err == nil && !finishedAt.IsZero() {
				fmt.Printf("Finished: %s\n", finishedAt.Format(time.RFC3339))
			}
			if runningTime, err := job.RunningTime(); err == nil && runningTime != "" {
				fmt.Printf("Running:  %ss\n", runningTime)
			}

			return nil
		},
	}

	return cmd
}

// jobView collects the raw server representation of a fetched job for JSON
// output. Absent fields are omitted.
func jobView(job *api.Job) map[string]interface{} {
	view := make(map[string]interface{})
	for _, slot := range job.Resource().Fields() {
		if slot.HasValue() {
			view[slot.Name()] = slot.Raw()
		}
	}
	return view
}

// recordObservedStatus updates the ledger entry for jobID when one exists.
// Jobs submitted elsewhere are simply not tracked.
func recordObservedStatus(ctx context.Context, sess *session, jobID int64, status string) {
	ledger, err := openLedger(ctx, sess.cfg)
	if err != nil {
		log.Debug().Err(err).Msg("Ledger unavailable, observation not recorded")
		return
	}
	defer ledger.Close()

	sub, err := ledger.GetSubmissionByJobID(ctx, jobID)
	if err != nil {
		log.Debug().Int64("job_id", jobID).Msg("Job not in ledger, observation not recorded")
		return
	}
	changed, err := ledger.RecordStatus(ctx, sub.ID, status)
	if err != nil {
		log.Warn().Err(err).Msg("Status observation not recorded in ledger")
		return
	}
	if changed {
		sess.telemetry.Events.PublishJobStatusChanged(jobID, sub.LastStatus, status)
	}
}
