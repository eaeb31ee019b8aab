package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"

	"github.com/alfredjeanlab/lots/internal/form"
	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/ui"
)

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n-3]) + "..."
}

func formatPrice(l model.Lot) string {
	s := fmt.Sprintf("%.2f", l.Price)
	if l.Currency != "" {
		s += " " + l.Currency
	}
	return s
}

// titleWidth leaves room for the id, price, bids and state columns.
func titleWidth() int {
	return max(ui.Width()-45, 20)
}

func printLotTable(w io.Writer, lots []model.Lot) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRICE\tBIDS\tSTATE\tTITLE")
	width := titleWidth()
	for _, l := range lots {
		title := truncate(l.Title, width)
		if l.Promoted {
			title = ui.RenderPromoted(title)
		}
		if l.Watched {
			title += " " + ui.RenderAccent("(watched)")
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%s\n", l.ID, formatPrice(l), l.BidCount, l.State, title)
	}
	tw.Flush()
}

func printLot(w io.Writer, l *model.Lot) {
	fmt.Fprintf(w, "ID:       %d\n", l.ID)
	fmt.Fprintf(w, "Title:    %s\n", l.Title)
	fmt.Fprintf(w, "Price:    %s\n", formatPrice(*l))
	fmt.Fprintf(w, "Bids:     %d\n", l.BidCount)
	if l.State != "" {
		fmt.Fprintf(w, "State:    %s\n", l.State)
	}
	if l.SellerLogin != "" {
		fmt.Fprintf(w, "Seller:   %s\n", l.SellerLogin)
	}
	if !l.EndsAt.IsZero() {
		fmt.Fprintf(w, "Ends At:  %s\n", l.EndsAt.Format("2006-01-02 15:04:05"))
	}
	fmt.Fprintf(w, "Watched:  %v\n", l.Watched)
}

// printFields renders a form: one line per field with its mandatory marker,
// value, choices, counter and inline errors.
func printFields(w io.Writer, fields []model.Field) {
	printFieldsIndent(w, fields, "")
}

func printFieldsIndent(w io.Writer, fields []model.Field, indent string) {
	for _, f := range fields {
		label := f.ShortDescription
		if label == "" {
			label = f.Key
		}
		if form.IsPresentational(f) {
			fmt.Fprintf(w, "%s%s %s\n", indent, ui.RenderMuted(label+":"), strings.Trim(string(f.Data), `"`))
			continue
		}
		value := "-"
		if form.Selected(f) {
			value = string(f.Data)
		}
		line := fmt.Sprintf("%s%s (%s, %s): %s", indent, ui.FieldLabel(label, form.IsMandatory(f)), f.Key, f.Widget, value)
		if limit, ok := form.MaxLength(f); ok {
			var s string
			_ = json.Unmarshal(f.Data, &s)
			line += " " + ui.Counter(utf8.RuneCountInString(s), limit)
		}
		fmt.Fprintln(w, line)

		selected := form.SelectedCodes(f)
		for _, c := range f.Choices {
			mark := "( )"
			for _, code := range selected {
				if model.SameJSON(code, c.Code) {
					mark = "(x)"
					break
				}
			}
			fmt.Fprintf(w, "%s  %s %s = %s\n", indent, mark, c.Name, c.Code)
			if mark == "(x)" && len(c.ExtendedFields) > 0 {
				printFieldsIndent(w, c.ExtendedFields, indent+"      ")
			}
		}
		for _, e := range f.Errors {
			fmt.Fprintf(w, "%s  %s\n", indent, ui.RenderError("! "+e))
		}
	}
}
