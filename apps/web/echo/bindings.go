package echoweb

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/evaladmin/core"
)

var orderingParam = "ordering"

// Ordering is the `?ordering=title,-start_date` query of sortable lists.
type Ordering struct {
	Orderings []core.DBOrdering
}

// Bind reads the orderings whose field is one of `allowed`.
func (ord *Ordering) Bind(ctx echo.Context, allowed ...string) {
	val := strings.TrimSpace(ctx.QueryParam(orderingParam))
	if val == "" {
		return
	}
	for _, o := range core.ParseOrderings(val) {
		if core.StringInSlice(o.Field, allowed) {
			ord.Orderings = append(ord.Orderings, o)
		}
	}
}

// Less compares two rows through `cmp`, which returns -1, 0 or 1 for a field.
// The first field that differs decides.
func (ord Ordering) Less(cmp func(field string) int) bool {
	for _, o := range ord.Orderings {
		c := cmp(o.Field)
		if c == 0 {
			continue
		}
		if o.Ascending {
			return c < 0
		}
		return c > 0
	}
	return false
}

func compareStrings(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}
