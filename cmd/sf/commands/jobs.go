package commands

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
)

func newJobsCommand() *cobra.Command {
	var (
		limit      int
		offset     int
		refresh    bool
		showEvents bool
	)

	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List recorded submissions",
		Long: `List the submissions recorded in the local ledger, newest first.

The ledger reflects the last status this client observed. With --refresh
every non-terminal job is refetched from the platform first, so the
listing matches the server. With --events each row is followed by the
status transitions observed for that submission.`,
		Example: `  # Show the most recent submissions
  sf jobs

  # Bring the ledger up to date with the platform
  sf jobs --refresh

  # Show the observed status history of each submission
  sf jobs --events --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Int("limit", limit).
				Bool("refresh", refresh).
				Msg("Listing submissions")

			ctx := cmd.Context()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			ledger, err := openLedger(ctx, sess.cfg)
			if err != nil {
				return err
			}
			defer ledger.Close()

			subs, err := ledger.ListSubmissions(ctx, limit, offset)
			if err != nil {
				return err
			}

			if refresh {
				for _, sub := range subs {
					if api.IsTerminalJobStatus(sub.LastStatus) {
						continue
					}
					job := api.NewJob(sess.transport)
					if err := job.Fetch(ctx, sub.JobID); err != nil {
						log.Warn().Err(err).Int64("job_id", sub.JobID).Msg("Refresh failed")
						continue
					}
					status, err := job.Status()
					if err != nil {
						log.Warn().Err(err).Int64("job_id", sub.JobID).Msg("Refresh failed")
						continue
					}
					changed, err := ledger.RecordStatus(ctx, sub.ID, status)
					if err != nil {
						log.Warn().Err(err).Int64("job_id", sub.JobID).Msg("Refresh not recorded")
						continue
					}
					if changed {
						sess.telemetry.Events.PublishJobStatusChanged(sub.JobID, sub.LastStatus, status)
						sub.LastStatus = status
					}
				}
			}

			if jsonOutput {
				return printJSON(subs)
			}

			if len(subs) == 0 {
				fmt.Println("No submissions recorded")
				return nil
			}

			fmt.Printf("%-10s %-10s %-25s %s\n", "JOB", "STATUS", "SUBMITTED", "HOST")
			for _, sub := range subs {
				fmt.Printf("%-10d %-10s %-25s %s\n",
					sub.JobID, sub.LastStatus, sub.SubmittedAt.Format(time.RFC3339), sub.Hostname)

				if !showEvents {
					continue
				}
				events, err := ledger.ListJobEvents(ctx, &sub.ID, 50, 0)
				if err != nil {
					log.Warn().Err(err).Str("submission", sub.ID).Msg("Failed to list events")
					continue
				}
				for _, event := range events {
					from := "-"
					if event.FromStatus != nil {
						from = *event.FromStatus
					}
					fmt.Printf("  %s  %s -> %s\n",
						event.Timestamp.Format(time.RFC3339), from, event.ToStatus)
				}
			}

			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum number of submissions to list")
	cmd.Flags().IntVar(&offset, "offset", 0, "number of submissions to skip")
	cmd.Flags().BoolVar(&refresh, "refresh", false, "refetch non-terminal jobs from the platform first")
	cmd.Flags().BoolVar(&showEvents, "events", false, "show the observed status transitions per submission")

	return cmd
}
