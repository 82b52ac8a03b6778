package domain

import (
	"fmt"
	"net/url"
	"slices"
	"strconv"
)

// PageSizes are the page sizes a listing may be shown with.
var PageSizes = []int{7, 14, 30, 50, 100}

const (
	DefaultPageSize = 7

	// pageDelta is how many neighbours of the current page are listed.
	pageDelta = 2
)

// PageLink is one entry of the page list. Ellipsis entries have no page.
type PageLink struct {
	Page     int    `json:"page,omitempty"`
	Href     string `json:"href,omitempty"`
	Active   bool   `json:"active,omitempty"`
	Ellipsis bool   `json:"ellipsis,omitempty"`
}

// PageView is what a paginated table renders under its rows.
type PageView struct {
	CurrentPage int        `json:"current_page"`
	TotalPages  int        `json:"total_pages"`
	TotalItems  int        `json:"total_items"`
	PageSize    int        `json:"page_size"`
	PageSizes   []int      `json:"page_sizes"`
	Start       int        `json:"start"`
	End         int        `json:"end"`
	Summary     string     `json:"summary"`
	Previous    string     `json:"previous,omitempty"`
	Next        string     `json:"next,omitempty"`
	Pages       []PageLink `json:"pages"`
}

// VisiblePages lists page 1, the pages within two of current, and the last
// page, with zero standing in for an ellipsis.
func VisiblePages(current, total int) []int {
	pages := []int{1}
	if current-pageDelta > 2 {
		pages = append(pages, 0)
	}

	for i := max(2, current-pageDelta); i <= min(total-1, current+pageDelta); i++ {
		pages = append(pages, i)
	}

	if current+pageDelta < total-1 {
		pages = append(pages, 0, total)
	} else if total > 1 {
		pages = append(pages, total)
	}
	return pages
}

// NewPageView builds the view for a listing. query holds the current query
// string; links keep its other parameters and replace page. An empty listing
// shows 0 to 0 and no page links.
func NewPageView(current, total, totalItems, pageSize int, query url.Values) PageView {
	start := (current-1)*pageSize + 1
	end := min(current*pageSize, totalItems)
	if totalItems <= 0 {
		start, end = 0, 0
	}

	v := PageView{
		CurrentPage: current,
		TotalPages:  total,
		TotalItems:  totalItems,
		PageSize:    pageSize,
		PageSizes:   PageSizes,
		Start:       start,
		End:         end,
		Summary:     fmt.Sprintf("Showing %d to %d of %d results", start, end, totalItems),
		Pages:       []PageLink{},
	}
	if total < 1 {
		return v
	}

	if current > 1 {
		v.Previous = pageHref(query, current-1)
	}
	if current < total {
		v.Next = pageHref(query, current+1)
	}

	for _, p := range VisiblePages(current, total) {
		if p == 0 {
			v.Pages = append(v.Pages, PageLink{Ellipsis: true})
			continue
		}
		v.Pages = append(v.Pages, PageLink{
			Page:   p,
			Href:   pageHref(query, p),
			Active: p == current,
		})
	}
	return v
}

// ParsePageParams reads page and pageSize from q. Unknown page sizes fall
// back to the default; non-positive pages to 1.
func ParsePageParams(q url.Values) (page, size int) {
	page, _ = strconv.Atoi(q.Get("page"))
	if page < 1 {
		page = 1
	}

	size, _ = strconv.Atoi(q.Get("pageSize"))
	if size == 0 {
		size, _ = strconv.Atoi(q.Get("size"))
	}
	if !slices.Contains(PageSizes, size) {
		size = DefaultPageSize
	}
	return page, size
}

func pageHref(query url.Values, page int) string {
	q := url.Values{}
	for k, vs := range query {
		q[k] = slices.Clone(vs)
	}
	q.Set("page", strconv.Itoa(page))
	return "?" + q.Encode()
}
