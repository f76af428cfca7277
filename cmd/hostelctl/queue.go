package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/hugh/hostel-hunter/pkg/queue"
	"github.com/spf13/cobra"
)

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the background job queue",
}

var queueStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show queue sizes and the purge schedule",
	RunE: func(cmd *cobra.Command, args []string) error {
		inspector := queue.NewInspector(&app.cfg.Redis)
		defer inspector.Close()

		names, err := inspector.Queues()
		if err != nil {
			return fmt.Errorf("listing queues: %w", err)
		}

		out := cmd.OutOrStdout()
		w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "QUEUE\tPENDING\tACTIVE\tSCHEDULED\tRETRY\tARCHIVED\tPROCESSED\tFAILED")
		for _, name := range names {
			info, err := inspector.GetQueueInfo(name)
			if err != nil {
				return fmt.Errorf("reading queue %s: %w", name, err)
			}
			fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\n",
				info.Queue, info.Pending, info.Active, info.Scheduled,
				info.Retry, info.Archived, info.Processed, info.Failed)
		}
		if err := w.Flush(); err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Fprintln(out, "No queues yet.")
		}

		entries, err := inspector.SchedulerEntries()
		if err != nil {
			return fmt.Errorf("listing scheduler entries: %w", err)
		}
		for _, e := range entries {
			fmt.Fprintf(out, "scheduled %s %q next=%s\n", e.Task.Type(), e.Spec, e.Next.Format("2006-01-02 15:04:05 MST"))
		}
		return nil
	},
}

func init() {
	queueCmd.AddCommand(queueStatsCmd)
	rootCmd.AddCommand(queueCmd)
}
