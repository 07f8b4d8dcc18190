package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thomascherickal/strawberryfields/pkg/api"
	"github.com/thomascherickal/strawberryfields/pkg/config"
	"github.com/thomascherickal/strawberryfields/pkg/stores"
)

func newSubmitCommand() *cobra.Command {
	var (
		circuitPath  string
		wait         bool
		pollInterval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a circuit for execution",
		Long: `Submit a quantum circuit to the platform for execution.

The circuit source is read from a local file and posted to the jobs API.
Every submission is recorded in the local ledger so it can be inspected
later with "sf jobs".

With --wait the command polls the job until it reaches a terminal status
(complete, failed or cancelled) and records each transition as it is
observed. The config file is watched during the wait, so a rotated
authentication token is picked up without restarting.`,
		Example: `  # Submit a circuit and return immediately
  sf submit --circuit bell.xbb

  # Submit and wait for the job to finish, polling every 5 seconds
  sf submit --circuit bell.xbb --wait --interval 5s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			log.Info().
				Str("circuit", circuitPath).
				Bool("wait", wait).
				Msg("Submitting circuit")

			source, err := os.ReadFile(circuitPath)
			if err != nil {
				return fmt.Errorf("failed to read circuit file: %w", err)
			}

			ctx := cmd.Context()
			sess, err := newSession(cmd)
			if err != nil {
				return err
			}
			defer sess.close()

			// The ledger is bookkeeping; a broken local database must not
			// block the submission itself.
			ledger, err := openLedger(ctx, sess.cfg)
			if err != nil {
				log.Warn().Err(err).Msg("Ledger unavailable, submission will not be recorded")
				ledger = nil
			} else {
				defer ledger.Close()
			}

			job := api.NewJob(sess.transport)
			if err := job.Create(ctx, map[string]interface{}{"circuit": string(source)}); err != nil {
				return fmt.Errorf("failed to submit job: %w", err)
			}

			jobID, err := job.ID()
			if err != nil {
				return err
			}
			status, err := job.Status()
			if err != nil {
				return err
			}

			sess.telemetry.Events.PublishJobSubmitted(jobID, status)
			fmt.Printf("Job %d submitted with status %s\n", jobID, status)

			var sub *stores.Submission
			if ledger != nil {
				sub = stores.NewSubmission(jobID, sess.transport.Hostname(), circuitPath, string(source), status)
				if err := ledger.CreateSubmission(ctx, sub); err != nil {
					log.Warn().Err(err).Msg("Submission not recorded in ledger")
					sub = nil
				}
			}

			if !wait {
				return nil
			}

			loader := watchConfigForToken(ctx, sess)
			defer loader.StopWatching()
			return waitForJob(ctx, sess, ledger, sub, job, pollInterval)
		},
	}

	cmd.Flags().StringVarP(&circuitPath, "circuit", "f", "", "circuit source file")
	cmd.Flags().BoolVar(&wait, "wait", false, "poll until the job reaches a terminal status")
	cmd.Flags().DurationVar(&pollInterval, "interval", 3*time.Second, "polling interval used with --wait")

	cmd.MarkFlagRequired("circuit")

	return cmd
}

// watchConfigForToken watches the config file while the command is polling so
// a rotated token takes effect on the live transport. Watching is best effort
// and never blocks the wait.
func watchConfigForToken(ctx context.Context, sess *session) *config.Loader {
	loader := config.NewLoader(log.Logger)
	err := loader.Watch(ctx, sess.configFile, func(updated *config.Config) {
		if updated.API.AuthToken != "" {
			sess.transport.SetAuthorizationHeader(updated.API.AuthToken)
			log.Info().Msg("Authentication token rotated")
		}
	})
	if err != nil {
		log.Debug().Err(err).Msg("Config watching disabled")
	}
	return loader
}

// waitForJob polls the job until it reaches a terminal status, recording each
// transition in the ledger and publishing lifecycle events along the way. A
// poll that fails aborts the wait; the job itself keeps running server-side.
func waitForJob(ctx context.Context, sess *session, ledger *stores.SQLiteStore, sub *stores.Submission, job *api.Job, interval time.Duration) error {
	jobID, err := job.ID()
	if err != nil {
		return err
	}
	last, err := job.Status()
	if err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for !api.IsTerminalJobStatus(last) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		if err := job.Reload(ctx); err != nil {
			return fmt.Errorf("failed to poll job %d: %w", jobID, err)
		}
		status, err := job.Status()
		if err != nil {
			return err
		}
		if status == last {
			continue
		}

		sess.telemetry.Events.PublishJobStatusChanged(jobID, last, status)
		fmt.Printf("Job %d is now %s\n", jobID, status)
		if ledger != nil && sub != nil {
			if _, err := ledger.RecordStatus(ctx, sub.ID, status); err != nil {
				log.Warn().Err(err).Msg("Status transition not recorded in ledger")
			}
		}
		last = status
	}

	switch last {
	case api.JobStatusFailed:
		sess.telemetry.Events.PublishJobFailed(jobID, "platform reported terminal status failed")
		return fmt.Errorf("job %d finished with status %s", jobID, last)
	case api.JobStatusComplete:
		sess.telemetry.Events.PublishJobCompleted(jobID, last)
		fmt.Printf("Job %d is complete, fetch the samples with \"sf result %d\"\n", jobID, jobID)
		return nil
	default:
		sess.telemetry.Events.PublishJobCompleted(jobID, last)
		fmt.Printf("Job %d finished with status %s\n", jobID, last)
		return nil
	}
}
