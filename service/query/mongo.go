// Package query provides a thin interface over the mongo driver. Only the
// operations the activity archive needs are exposed.
package query

import (
	"fmt"

	"github.com/etherbay/goapi/base/ctx"
	"github.com/etherbay/goapi/domain"
)

var (
	// ErrNotFound is mongo document not found error
	ErrNotFound = fmt.Errorf("document not found")
)

// Mongo abstracts the mongo layer
type Mongo interface {
	// Insert inserts a new document into the table
	Insert(context ctx.Ctx, table domain.Table, insert interface{}) error

	// FindOne gets one document matching query from the table
	FindOne(context ctx.Ctx, table domain.Table, query, result interface{}) error

	// Count returns the count of matched entries in the table
	Count(context ctx.Ctx, table domain.Table, selector interface{}) (n int, err error)

	// Search sorts by the `sort` argument (ex "time" ascending, "-time"
	// descending; "" skips sorting) and pages with offset/limit
	Search(context ctx.Ctx, table domain.Table, offset, limit int, sort string, query, results interface{}) error

	// RemoveAll removes all entries matching the selector from the table
	RemoveAll(context ctx.Ctx, table domain.Table, selector interface{}) (removedCnt int64, err error)
}
