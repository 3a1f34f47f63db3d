package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"quill/internal/store"
)

func newListCommand(ctx *commandContext) *cobra.Command {
	var (
		channel    string
		sourceType string
		search     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored transcripts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			records, err := st.Query(cmd.Context(), store.Filters{
				SourceType:    store.SourceType(sourceType),
				Channel:       channel,
				TitleContains: search,
				Limit:         limit,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No transcripts stored yet")
				return nil
			}

			rows := make([][]string, 0, len(records))
			for _, rec := range records {
				rows = append(rows, []string{
					rec.ID,
					truncate(rec.Title, 48),
					truncate(rec.Channel, 24),
					string(rec.SourceType),
					(time.Duration(rec.DurationSeconds) * time.Second).String(),
					rec.CreatedAt.Local().Format("2006-01-02"),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Title", "Channel", "Source", "Duration", "Created"},
				rows,
				5,
			))
			fmt.Fprintf(out, "%s transcript(s)\n", strconv.Itoa(len(records)))
			return nil
		},
	}

	cmd.Flags().StringVar(&channel, "channel", "", "Filter by channel name")
	cmd.Flags().StringVar(&sourceType, "type", "", "Filter by source type (url or file)")
	cmd.Flags().StringVar(&search, "search", "", "Filter by title substring")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of rows")

	return cmd
}
