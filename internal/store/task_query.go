package store

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// TaskPageSize is the fixed number of tasks returned per list page.
const TaskPageSize = 4

// maxTaskPage is the largest page whose skip still fits in an int64. Later
// pages are clamped to it; they are empty either way.
const maxTaskPage = math.MaxInt64 / TaskPageSize

var sortFieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

// TaskQuery is the storage-neutral form of a task list request. Stores
// translate it into their own filter, sort and paging syntax.
type TaskQuery struct {
	// OwnerID is always part of the filter.
	OwnerID string
	// Status, when not empty, adds an exact-match filter.
	Status string
	// OrderBy, when not empty, sorts ascending on that task field. Dotted
	// names address nested caller fields.
	OrderBy string
	Skip    int64
	Limit   int64
}

// TaskListParams holds the raw list parameters as they arrive on the query string.
type TaskListParams struct {
	Page    string
	Status  string
	OrderBy string
}

// NewTaskQuery builds the query for one page of ownerID's tasks. A page that
// is missing, not a number or below 1 means the first page; a page too large
// to skip to is clamped to the last representable one. It returns
// ErrInvalidSortField when OrderBy is not a plain or dotted identifier.
func NewTaskQuery(ownerID string, params TaskListParams) (TaskQuery, error) {
	orderBy := strings.TrimSpace(params.OrderBy)
	if orderBy != "" && !sortFieldPattern.MatchString(orderBy) {
		return TaskQuery{}, fmt.Errorf("%w: %q", ErrInvalidSortField, orderBy)
	}

	page := parsePage(params.Page)

	return TaskQuery{
		OwnerID: ownerID,
		Status:  params.Status,
		OrderBy: orderBy,
		Skip:    (page - 1) * TaskPageSize,
		Limit:   TaskPageSize,
	}, nil
}

// SortPath splits OrderBy into its path segments, or returns nil when unsorted.
func (q TaskQuery) SortPath() []string {
	if q.OrderBy == "" {
		return nil
	}
	return strings.Split(q.OrderBy, ".")
}

func parsePage(raw string) int64 {
	page, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) && !strings.HasPrefix(strings.TrimSpace(raw), "-") {
			return maxTaskPage
		}
		return 1
	}
	if page < 1 {
		return 1
	}
	return min(page, maxTaskPage)
}
