package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var (
	historyLimit  int
	historyClear  bool
	historyDelete string
)

var historyCmd = &cobra.Command{
	Use:     "history [<prefix>]",
	Short:   "Show or edit the search history",
	GroupID: "browse",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openHistory()
		if err != nil {
			return err
		}
		if store == nil {
			return fmt.Errorf("search history needs LOTS_DATABASE_URL")
		}
		defer store.Close()

		ctx, cancel := commandContext(30 * time.Second)
		defer cancel()
		out := cmd.OutOrStdout()

		switch {
		case historyClear:
			if err := store.DeleteAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(out, "search history cleared")
			return nil
		case historyDelete != "":
			id, err := strconv.ParseInt(historyDelete, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid history id %q", historyDelete)
			}
			if err := store.DeleteByID(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(out, "deleted history entry %d\n", id)
			return nil
		}

		prefix := ""
		if len(args) == 1 {
			prefix = args[0]
		}
		entries, err := store.Query(ctx, prefix, historyLimit)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(out, entries)
		}
		if len(entries) == 0 {
			fmt.Fprintln(out, "no matching searches")
			return nil
		}
		w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tWHEN\tSEARCH")
		for _, e := range entries {
			fmt.Fprintf(w, "%d\t%s\t%s\n", e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.Text)
		}
		return w.Flush()
	},
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 10, "maximum entries to show")
	historyCmd.Flags().BoolVar(&historyClear, "clear", false, "delete the whole search history")
	historyCmd.Flags().StringVar(&historyDelete, "delete", "", "delete one entry by id")
}
