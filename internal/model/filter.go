package model

// RootCategoryID is the sentinel category meaning "all categories".
const RootCategoryID int64 = 1

// NoUserID is the sentinel user id meaning "no user selected".
const NoUserID int64 = 0

// Filter is one named narrowing criterion of a listing query.
// A filter whose Interpretation is nil is inactive and never compiled.
type Filter struct {
	Key            string  `json:"key"`
	Value          string  `json:"value"`
	Operation      *string `json:"operation,omitempty"`      // e.g. "gte", "lte" for range filters
	Interpretation *string `json:"interpretation,omitempty"` // human-readable chip label
}

// IsActive reports whether the filter takes part in the compiled query.
func (f Filter) IsActive() bool {
	return f.Interpretation != nil
}

// SortOrder is the single active sort of a listing query.
type SortOrder struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SearchCriteria is the category/user/text part of a listing query.
type SearchCriteria struct {
	CategoryID     int64   `json:"category_id"`
	ParentID       *int64  `json:"parent_id,omitempty"`
	CategoryName   string  `json:"category_name,omitempty"`
	IsLeaf         bool    `json:"is_leaf,omitempty"`
	UserSearchMode bool    `json:"user_search_mode,omitempty"`
	UserID         *int64  `json:"user_id,omitempty"`
	UserLogin      *string `json:"user_login,omitempty"`
	FreeText       *string `json:"free_text,omitempty"`
	FinishedOnly   bool    `json:"finished_only,omitempty"`
}

// HasUser reports whether UserID is set to something other than NoUserID.
func (s SearchCriteria) HasUser() bool {
	return s.UserID != nil && *s.UserID != NoUserID
}

// ListingQuery is everything needed to request one page of a listing.
type ListingQuery struct {
	Filters      []Filter        `json:"filters,omitempty"`
	Sort         *SortOrder      `json:"sort,omitempty"`
	Search       *SearchCriteria `json:"search,omitempty"`
	MethodServer string          `json:"method_server"`
	ObjServer    string          `json:"obj_server"`
	PageIndex    int             `json:"page_index"`
	PageSize     int             `json:"page_size"`
}

// ActiveFilters returns the filters that will be compiled, in order.
func (q ListingQuery) ActiveFilters() []Filter {
	var out []Filter
	for _, f := range q.Filters {
		if f.IsActive() {
			out = append(out, f)
		}
	}
	return out
}
