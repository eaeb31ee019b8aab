package query

import (
	"strings"
	"testing"
	"time"

	"github.com/alfredjeanlab/lots/internal/model"
)

func strp(s string) *string { return &s }
func i64p(n int64) *int64   { return &n }

var testSession = model.Session{
	UserID: 77,
	Now:    func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) },
}

func TestCompileCriteria_UserSearchScenario(t *testing.T) {
	search := &model.SearchCriteria{
		CategoryID:     model.RootCategoryID,
		UserSearchMode: true,
		UserID:         i64p(42),
		FreeText:       strp("foo bar"),
	}
	got := CompileCriteria(testSession, search, nil, nil)
	want := "filter_1_key=seller_id&filter_1_value=42" +
		"&filter_2_key=search&filter_2_value=foo_bar" +
		"&filter_3_key=category&filter_3_value=1"
	if got != want {
		t.Errorf("CompileCriteria() =\n  %s\nwant\n  %s", got, want)
	}
}

func TestCompileCriteria_EmissionOrder(t *testing.T) {
	for _, tc := range []struct {
		name   string
		search *model.SearchCriteria
		want   string
	}{
		{
			name:   "nil search still emits root category",
			search: nil,
			want:   "filter_1_key=category&filter_1_value=1",
		},
		{
			name:   "free text before category",
			search: &model.SearchCriteria{CategoryID: 12, FreeText: strp("лампа 60W")},
			want:   "filter_1_key=search&filter_1_value=лампа_60W&filter_2_key=category&filter_2_value=12",
		},
		{
			name:   "empty free text is absent",
			search: &model.SearchCriteria{CategoryID: 12, FreeText: strp("")},
			want:   "filter_1_key=category&filter_1_value=12",
		},
		{
			name:   "finished only",
			search: &model.SearchCriteria{CategoryID: 3, FinishedOnly: true, FreeText: strp("x")},
			want:   "filter_1_key=search&filter_1_value=x&filter_2_key=state&filter_2_value=1&filter_3_key=category&filter_3_value=3",
		},
		{
			name: "seller login when user id is the sentinel",
			search: &model.SearchCriteria{
				CategoryID:     1,
				UserSearchMode: true,
				UserID:         i64p(model.NoUserID),
				UserLogin:      strp("john.doe"),
			},
			want: "filter_1_key=seller_login&filter_1_value=john_doe&filter_2_key=category&filter_2_value=1",
		},
		{
			name: "empty seller login is absent",
			search: &model.SearchCriteria{
				CategoryID:     1,
				UserSearchMode: true,
				UserID:         i64p(model.NoUserID),
				UserLogin:      strp(""),
			},
			want: "filter_1_key=category&filter_1_value=1",
		},
		{
			name: "user mode without user or login",
			search: &model.SearchCriteria{
				CategoryID:     5,
				UserSearchMode: true,
				FreeText:       strp("pen"),
			},
			want: "filter_1_key=search&filter_1_value=pen&filter_2_key=category&filter_2_value=5",
		},
		{
			name:   "user id ignored outside user mode",
			search: &model.SearchCriteria{CategoryID: 5, UserID: i64p(9)},
			want:   "filter_1_key=category&filter_1_value=5",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			if got := CompileCriteria(testSession, tc.search, nil, nil); got != tc.want {
				t.Errorf("got  %s\nwant %s", got, tc.want)
			}
		})
	}
}

func TestCompileCriteria_Filters(t *testing.T) {
	filters := []model.Filter{
		{Key: "price", Value: "100", Operation: strp("gte"), Interpretation: strp("from 100")},
		{Key: "hidden", Value: "x"}, // inactive
		{Key: "city", Value: "", Interpretation: strp("any city")},
		{Key: "brand", Value: "a&b=c", Interpretation: strp("A&B")},
	}
	got := CompileCriteria(testSession, &model.SearchCriteria{CategoryID: 1}, filters, nil)
	want := "filter_1_key=category&filter_1_value=1" +
		"&filter_2_key=price&filter_2_value=100&filter_2_operation=gte" +
		"&filter_3_key=city" +
		"&filter_4_key=brand&filter_4_value=a%26b%3Dc"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestCompileCriteria_DynamicSubstitutions(t *testing.T) {
	filters := []model.Filter{
		{Key: KeySessionStart, Value: "stale", Interpretation: strp("today")},
		{Key: KeyUsersToActOnProposal, Value: "0", Interpretation: strp("mine")},
	}
	got := CompileCriteria(testSession, nil, filters, nil)
	want := "filter_1_key=category&filter_1_value=1" +
		"&filter_2_key=session_start&filter_2_value=2026-03-04%2005:06:07" +
		"&filter_3_key=users_to_act_on_price_proposals&filter_3_value=77"
	if got != want {
		t.Errorf("got  %s\nwant %s", got, want)
	}
}

func TestCompileCriteria_InactiveFiltersNeverCompiled(t *testing.T) {
	keys := []string{"price", "category", "search", "zz_marker", "a b", ""}
	for _, key := range keys {
		filters := []model.Filter{
			{Key: "zz_marker_" + key, Value: "v1"},
			{Key: "zz_marker_" + key, Value: "", Operation: strp("lte")},
		}
		got := CompileCriteria(testSession, nil, filters, nil)
		if strings.Contains(got, "zz_marker") {
			t.Errorf("inactive filter %q compiled into %s", key, got)
		}
		if strings.Contains(got, "operation") {
			t.Errorf("inactive filter operation compiled into %s", got)
		}
	}
}

func TestCompileCriteria_Sort(t *testing.T) {
	if got := CompileCriteria(testSession, nil, nil, nil); strings.Contains(got, "sorter_1_key") {
		t.Errorf("nil sort emitted sorter: %s", got)
	}

	var filters []model.Filter
	for i := 0; i < 5; i++ {
		filters = append(filters, model.Filter{Key: "k", Value: "v", Interpretation: strp("l")})
		got := CompileCriteria(testSession, nil, filters, &model.SortOrder{Key: "price", Value: "asc"})
		if n := strings.Count(got, "sorter_1_key=price"); n != 1 {
			t.Errorf("with %d filters: sorter_1_key count = %d in %s", i+1, n, got)
		}
		if n := strings.Count(got, "sorter_"); n != 2 {
			t.Errorf("with %d filters: sorter pair count = %d in %s", i+1, n, got)
		}
		if !strings.HasSuffix(got, "&sorter_1_key=price&sorter_1_value=asc") {
			t.Errorf("sorter not last: %s", got)
		}
	}
}

func TestCompileCriteria_CategoryAlwaysPresent(t *testing.T) {
	for _, sc := range []*model.SearchCriteria{
		nil,
		{CategoryID: model.RootCategoryID},
		{CategoryID: 1, UserSearchMode: true, UserID: i64p(1)},
		{CategoryID: 55, FinishedOnly: true},
		{CategoryID: 1, FreeText: strp("   ")},
	} {
		got := CompileCriteria(testSession, sc, nil, nil)
		if !strings.Contains(got, "_key=category&") {
			t.Errorf("no category filter in %s", got)
		}
	}
}

func TestCompile_PathAndString(t *testing.T) {
	q := model.ListingQuery{
		MethodServer: "/listing/",
		ObjServer:    "lots",
		Sort:         &model.SortOrder{Key: "ends_at", Value: "asc"},
		PageSize:     20,
	}
	c := Compile(testSession, q)
	if c.Path() != "/listing/lots" {
		t.Errorf("Path() = %q", c.Path())
	}
	want := "/listing/lots?filter_1_key=category&filter_1_value=1&sorter_1_key=ends_at&sorter_1_value=asc"
	if c.String() != want {
		t.Errorf("String() = %q, want %q", c.String(), want)
	}
}

func TestCacheKey_StableAndPageIndependent(t *testing.T) {
	q := model.ListingQuery{
		ObjServer: "lots",
		Filters:   []model.Filter{{Key: KeySessionStart, Value: "", Interpretation: strp("today")}},
		PageSize:  20,
	}
	k1 := CacheKey(q)
	q.PageIndex = 3
	if k2 := CacheKey(q); k2 != k1 {
		t.Errorf("key depends on page index: %q vs %q", k1, k2)
	}
	q.PageSize = 40
	if k3 := CacheKey(q); k3 == k1 {
		t.Errorf("key ignores page size: %q", k3)
	}
	q.PageSize = 20
	q.Filters[0].Interpretation = nil
	if k4 := CacheKey(q); k4 == k1 {
		t.Errorf("key ignores filter activation: %q", k4)
	}
}

func TestPageURL(t *testing.T) {
	q := model.ListingQuery{ObjServer: "lots", PageIndex: 2, PageSize: 25}
	got := PageURL(testSession, q)
	want := "/lots?filter_1_key=category&filter_1_value=1&page=2&page_size=25"
	if got != want {
		t.Errorf("PageURL() = %q, want %q", got, want)
	}
}
