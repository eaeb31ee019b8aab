package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/alfredjeanlab/lots/internal/events"
	"github.com/alfredjeanlab/lots/internal/history"
	"github.com/alfredjeanlab/lots/internal/history/postgres"
	"github.com/alfredjeanlab/lots/internal/model"
	"github.com/alfredjeanlab/lots/internal/paging"
	"github.com/alfredjeanlab/lots/internal/promo"
	"github.com/alfredjeanlab/lots/internal/ui"
)

// listOptions are the flags of lt list.
type listOptions struct {
	method      string
	category    int64
	search      string
	sellerID    int64
	sellerLogin string
	finished    bool
	filters     []string
	sort        string
	pages       int
	pageSize    int
	promoted    bool
	every       int
	follow      bool
}

var listOpts listOptions

var listCmd = &cobra.Command{
	Use:     "list [<obj-server>]",
	Short:   "List lots with filters, sort and search",
	GroupID: "browse",
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		objServer := "lots"
		if len(args) == 1 {
			objServer = args[0]
		}
		pageSize := listOpts.pageSize
		if pageSize <= 0 {
			pageSize = cfg.PageSize
		}
		q, err := buildListQuery(objServer, pageSize, listOpts)
		if err != nil {
			return err
		}

		ctx, cancel := commandContext(0)
		defer cancel()

		engine := paging.New(lotClient, paging.WithLogger(logger))
		defer engine.Close()

		s := engine.Stream(q)
		snap, err := loadPages(ctx, s, listOpts.pages)
		if err != nil {
			return err
		}
		if snap.Err != nil {
			if len(snap.Items) == 0 {
				return snap.Err
			}
			fmt.Fprintln(os.Stderr, ui.RenderError("Warning: ")+describeError(snap.Err))
		}

		if listOpts.search != "" {
			recordSearch(ctx, listOpts.search)
		}

		items := snap.Items
		if listOpts.promoted {
			items = withPromoted(ctx, q, items)
		}

		out := cmd.OutOrStdout()
		if jsonOutput {
			return printJSON(out, map[string]any{
				"items":       items,
				"total_count": snap.TotalCount,
				"first_page":  snap.FirstPage,
				"end":         snap.End,
			})
		}
		if labels := chipLabels(q); len(labels) > 0 {
			fmt.Fprintln(out, ui.Chips(labels))
		}
		printLotTable(out, items)
		fmt.Fprintf(out, "\n%d lots (%d total)\n", len(snap.Items), snap.TotalCount)

		if listOpts.follow {
			return followLots(ctx, out, engine)
		}
		return nil
	},
}

// buildListQuery turns list flags into a listing query starting at page 0.
func buildListQuery(objServer string, pageSize int, o listOptions) (model.ListingQuery, error) {
	q := model.ListingQuery{
		MethodServer: o.method,
		ObjServer:    objServer,
		PageSize:     pageSize,
	}
	search := &model.SearchCriteria{CategoryID: model.RootCategoryID, FinishedOnly: o.finished}
	if o.category > 0 {
		search.CategoryID = o.category
	}
	if o.search != "" {
		text := o.search
		search.FreeText = &text
	}
	switch {
	case o.sellerID != model.NoUserID:
		id := o.sellerID
		search.UserSearchMode = true
		search.UserID = &id
	case o.sellerLogin != "":
		login := o.sellerLogin
		search.UserSearchMode = true
		search.UserLogin = &login
	}
	q.Search = search

	for _, s := range o.filters {
		f, err := parseFilter(s)
		if err != nil {
			return model.ListingQuery{}, err
		}
		q.Filters = append(q.Filters, f)
	}
	sort, err := parseSort(o.sort)
	if err != nil {
		return model.ListingQuery{}, err
	}
	q.Sort = sort
	return q, nil
}

// loadPages waits for the first page and then loads up to pages-1 more,
// stopping early at the end of the listing or on a failed page.
func loadPages(ctx context.Context, s *paging.Stream, pages int) (paging.Snapshot, error) {
	snap, err := s.Wait(ctx)
	if err != nil {
		return snap, err
	}
	for i := 1; i < pages && snap.State == paging.StateLoaded; i++ {
		if !s.LoadMore() {
			break
		}
		if snap, err = s.Wait(ctx); err != nil {
			return snap, err
		}
	}
	return snap, nil
}

func chipLabels(q model.ListingQuery) []string {
	var labels []string
	for _, f := range q.ActiveFilters() {
		labels = append(labels, *f.Interpretation)
	}
	if q.Sort != nil {
		labels = append(labels, "sort: "+q.Sort.Key+" "+q.Sort.Value)
	}
	return labels
}

func withPromoted(ctx context.Context, q model.ListingQuery, items []model.Lot) []model.Lot {
	category := model.RootCategoryID
	if q.Search != nil {
		category = q.Search.CategoryID
	}
	cache := promo.NewCache(lotClient, cfg.PromoTTL, logger)
	promoted, err := cache.Promoted(ctx, category)
	if err != nil {
		logger.Warn("promoted lots unavailable", "category", category, "error", err)
		return items
	}
	return promo.Interleave(items, promoted, listOpts.every)
}

// openHistory returns the search history store, or nil when no database is
// configured.
func openHistory() (history.Store, error) {
	if cfg == nil || cfg.DatabaseURL == "" {
		return nil, nil
	}
	return postgres.New(cfg.DatabaseURL, cfg.UserID)
}

func recordSearch(ctx context.Context, text string) {
	store, err := openHistory()
	if err != nil {
		logger.Warn("search history unavailable", "error", err)
		return
	}
	if store == nil {
		return
	}
	defer store.Close()
	if _, err := store.Insert(ctx, text); err != nil {
		logger.Warn("recording search failed", "error", err)
	}
}

// followLots applies lot updates published by other sessions to the
// buffered listing and prints each patched row until interrupted.
func followLots(ctx context.Context, out io.Writer, engine *paging.Engine) error {
	if cfg.NATSURL == "" {
		return fmt.Errorf("--follow needs LOTS_NATS_URL or a remote with a NATS URL")
	}
	sub, err := events.NewNATSSubscriber(cfg.NATSURL, logger)
	if err != nil {
		return err
	}
	defer sub.Close()

	ch, err := sub.SubscribeLots(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, ui.RenderMuted("following lot updates, Ctrl-C to stop"))
	events.ApplyLotUpdates(ctx, ch, func(l model.Lot) bool {
		ok := engine.PatchItem(l.ID, func(model.Lot) model.Lot { return l })
		if ok {
			printLotTable(out, []model.Lot{l})
		}
		return ok
	}, logger)
	return nil
}

func init() {
	f := listCmd.Flags()
	f.StringVar(&listOpts.method, "method", "", "method server path segment")
	f.Int64Var(&listOpts.category, "category", 0, "category id (default: all categories)")
	f.StringVarP(&listOpts.search, "search", "s", "", "free-text search")
	f.Int64Var(&listOpts.sellerID, "seller-id", 0, "only lots of this seller id")
	f.StringVar(&listOpts.sellerLogin, "seller", "", "only lots of this seller login")
	f.BoolVar(&listOpts.finished, "finished", false, "only finished lots")
	f.StringArrayVarP(&listOpts.filters, "filter", "f", nil, "filter as key=value or key:op=value (op: gte, lte, gt, lt, eq); repeatable")
	f.StringVar(&listOpts.sort, "sort", "", "sort as key=value (e.g. price=asc)")
	f.IntVarP(&listOpts.pages, "pages", "p", 1, "number of pages to load")
	f.IntVar(&listOpts.pageSize, "page-size", 0, "page size (default LOTS_PAGE_SIZE)")
	f.BoolVar(&listOpts.promoted, "promoted", false, "interleave promoted lots of the category")
	f.IntVar(&listOpts.every, "every", promo.DefaultEvery, "rows between promoted lots")
	f.BoolVar(&listOpts.follow, "follow", false, "keep running and apply live lot updates")
}
