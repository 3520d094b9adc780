package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/fastygo/studytracker/domain"
	"github.com/fastygo/studytracker/usecase/notification"
)

type runner interface {
	RunNotifications(ctx context.Context, reference *domain.Date) (domain.RunSummary, error)
}

// openRunner connects to the configured store and transport. The returned func
// releases them.
type openRunner func(ctx context.Context) (runner, func(), error)

func newRootCmd(open openRunner, clock notification.Clock) *cobra.Command {
	root := &cobra.Command{
		Use:   "notify",
		Short: "Due-tomorrow reminder tooling",
		Long: `notify runs the daily task reminder outside the server and inspects how
due dates are classified.`,
		SilenceUsage: true,
	}
	root.AddCommand(newRunCmd(open), newClassifyCmd(clock))
	return root
}

func newRunCmd(open openRunner) *cobra.Command {
	var (
		date   string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send reminders for tasks due the day after the reference date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var reference *domain.Date
			if date != "" {
				d, err := domain.ParseDate(date)
				if err != nil {
					return err
				}
				reference = &d
			}

			r, release, err := open(cmd.Context())
			if err != nil {
				return err
			}
			defer release()

			summary, runErr := r.RunNotifications(cmd.Context(), reference)
			if err := printSummary(cmd.OutOrStdout(), summary, asJSON); err != nil {
				return err
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "reference date (YYYY-MM-DD), defaults to today")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the run summary as JSON")
	return cmd
}

func newClassifyCmd(clock notification.Clock) *cobra.Command {
	var due, ref string
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Print the urgency tier of a due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dueDate, err := domain.ParseDate(due)
			if err != nil {
				return err
			}
			refDate := clock.Today()
			if ref != "" {
				if refDate, err = domain.ParseDate(ref); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d days)\n",
				domain.ClassifyUrgency(dueDate, refDate), refDate.DaysUntil(dueDate))
			return nil
		},
	}
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&ref, "ref", "", "reference date (YYYY-MM-DD), defaults to today")
	_ = cmd.MarkFlagRequired("due")
	return cmd
}

func printSummary(w io.Writer, summary domain.RunSummary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}

	fmt.Fprintf(w, "run %s  reference %s  target %s  state %s\n",
		summary.RunID, summary.ReferenceDate, summary.TargetDate, summary.State)
	fmt.Fprintf(w, "evaluated %d  sent %d  skipped %d  failed %d\n",
		summary.UsersEvaluated, summary.Sent, summary.Skipped, summary.Failed)
	if summary.Failure != "" {
		fmt.Fprintf(w, "failure: %s\n", summary.Failure)
	}
	if len(summary.Outcomes) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tOUTCOME\tTASKS\tREASON")
	for _, o := range summary.Outcomes {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", o.UserID, o.Result, len(o.TaskIDs), o.Reason)
	}
	return tw.Flush()
}
