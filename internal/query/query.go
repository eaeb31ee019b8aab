// Package query compiles listing search criteria, filters and sort order into
// the backend's indexed filter_N_key / filter_N_value query-string grammar.
//
// The grammar, the sanitizer and the escaping table are fixed by the backend
// and are reproduced exactly, idiosyncrasies included.
package query

import (
	"strconv"
	"strings"

	"github.com/alfredjeanlab/lots/internal/model"
)

// Filter keys with special meaning to the compiler.
const (
	KeyCategory    = "category"
	KeySearch      = "search"
	KeySellerID    = "seller_id"
	KeySellerLogin = "seller_login"
	KeyState       = "state"

	// Dynamic keys whose value is substituted at compile time.
	KeySessionStart         = "session_start"
	KeyUsersToActOnProposal = "users_to_act_on_price_proposals"
)

// SessionStartLayout formats the session_start substitution.
const SessionStartLayout = "2006-01-02 15:04:05"

// Paging parameters appended after the filter grammar.
const (
	ParamPage     = "page"
	ParamPageSize = "page_size"
)

// Compiled is a compiled listing request.
type Compiled struct {
	PathSegments []string
	QueryString  string
}

// Path joins the path segments into an absolute request path.
func (c Compiled) Path() string {
	return "/" + strings.Join(c.PathSegments, "/")
}

// String renders the request target: path, then "?" and the query string.
func (c Compiled) String() string {
	if c.QueryString == "" {
		return c.Path()
	}
	return c.Path() + "?" + c.QueryString
}

// Compile compiles a full listing query. Dynamic filter values are resolved
// against sess.
func Compile(sess model.Session, q model.ListingQuery) Compiled {
	return Compiled{
		PathSegments: pathSegments(q),
		QueryString:  CompileCriteria(sess, q.Search, q.Filters, q.Sort),
	}
}

// CompileCriteria renders the filter/sorter query string for the given
// criteria.
func CompileCriteria(sess model.Session, search *model.SearchCriteria, filters []model.Filter, sort *model.SortOrder) string {
	return compile(&sess, search, filters, sort)
}

// CacheKey returns the paging cache key of q: the compiled request without
// paging parameters and without per-request dynamic substitutions, so that
// it is stable over time.
func CacheKey(q model.ListingQuery) string {
	c := Compiled{
		PathSegments: pathSegments(q),
		QueryString:  compile(nil, q.Search, q.Filters, q.Sort),
	}
	return c.String() + "#" + strconv.Itoa(q.PageSize)
}

// PageURL returns the request target for the page q.PageIndex.
func PageURL(sess model.Session, q model.ListingQuery) string {
	c := Compile(sess, q)
	var b builder
	b.buf.WriteString(c.QueryString)
	b.pair(ParamPage, strconv.Itoa(q.PageIndex))
	b.pair(ParamPageSize, strconv.Itoa(q.PageSize))
	c.QueryString = b.buf.String()
	return c.String()
}

func pathSegments(q model.ListingQuery) []string {
	var segs []string
	for _, s := range []string{q.MethodServer, q.ObjServer} {
		if s = strings.Trim(s, "/"); s != "" {
			segs = append(segs, s)
		}
	}
	return segs
}

// compile emits the grammar. A nil sess leaves dynamic values untouched.
func compile(sess *model.Session, search *model.SearchCriteria, filters []model.Filter, sort *model.SortOrder) string {
	sc := model.SearchCriteria{CategoryID: model.RootCategoryID}
	if search != nil {
		sc = *search
	}

	var b builder
	n := 1
	emit := func(key, value string) {
		b.pair(indexed("filter", n, "key"), key)
		b.pair(indexed("filter", n, "value"), value)
		n++
	}

	text, login := "", ""
	if sc.FreeText != nil {
		text = Sanitize(*sc.FreeText)
	}
	if sc.UserLogin != nil {
		login = Sanitize(*sc.UserLogin)
	}

	// An empty login is treated like an absent one, same as free text.
	if sc.UserSearchMode {
		switch {
		case sc.HasUser():
			emit(KeySellerID, strconv.FormatInt(*sc.UserID, 10))
		case login != "":
			emit(KeySellerLogin, login)
		}
	}
	if text != "" {
		emit(KeySearch, text)
	}
	if sc.FinishedOnly {
		emit(KeyState, "1")
	}
	emit(KeyCategory, strconv.FormatInt(sc.CategoryID, 10))

	for _, f := range filters {
		if !f.IsActive() {
			continue
		}
		value := f.Value
		if sess != nil {
			value = substitute(*sess, f.Key, value)
		}
		b.pair(indexed("filter", n, "key"), f.Key)
		if value != "" {
			b.pair(indexed("filter", n, "value"), value)
		}
		if f.Operation != nil {
			b.pair(indexed("filter", n, "operation"), *f.Operation)
		}
		n++
	}

	if sort != nil {
		b.pair("sorter_1_key", sort.Key)
		b.pair("sorter_1_value", sort.Value)
	}
	return b.buf.String()
}

func substitute(sess model.Session, key, value string) string {
	switch key {
	case KeySessionStart:
		return sess.Clock().Format(SessionStartLayout)
	case KeyUsersToActOnProposal:
		return strconv.FormatInt(sess.UserID, 10)
	}
	return value
}

func indexed(prefix string, n int, suffix string) string {
	return prefix + "_" + strconv.Itoa(n) + "_" + suffix
}

type builder struct {
	buf strings.Builder
}

func (b *builder) pair(key, value string) {
	if b.buf.Len() > 0 {
		b.buf.WriteByte('&')
	}
	b.buf.WriteString(Encode(key))
	b.buf.WriteByte('=')
	b.buf.WriteString(Encode(value))
}
