package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	var withContent bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a stored transcript record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			rec, err := st.GetByID(cmd.Context(), strings.TrimSpace(args[0]))
			if err != nil {
				return err
			}
			if rec == nil {
				return fmt.Errorf("no transcript with id %q", args[0])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "ID:        %s\n", rec.ID)
			fmt.Fprintf(out, "Title:     %s\n", rec.Title)
			if rec.Channel != "" {
				fmt.Fprintf(out, "Channel:   %s\n", rec.Channel)
			}
			if rec.SourceURL != "" {
				fmt.Fprintf(out, "Source:    %s\n", rec.SourceURL)
			}
			fmt.Fprintf(out, "Type:      %s\n", rec.SourceType)
			if rec.DurationSeconds > 0 {
				fmt.Fprintf(out, "Duration:  %s\n", time.Duration(rec.DurationSeconds)*time.Second)
			}
			if len(rec.Speakers) > 0 {
				fmt.Fprintf(out, "Speakers:  %s\n", strings.Join(rec.Speakers, ", "))
			}
			fmt.Fprintf(out, "File:      %s\n", rec.FilePath)
			fmt.Fprintf(out, "Created:   %s\n", rec.CreatedAt.Local().Format("2006-01-02 15:04"))

			if withContent && rec.Content != "" {
				fmt.Fprintln(out)
				fmt.Fprintln(out, rec.Content)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&withContent, "content", false, "Print the stored document content")

	return cmd
}
