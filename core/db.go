package core

import "strings"

// DBOrdering is a requested sort on one field.
type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	direction := "DESC"
	if ord.Ascending {
		direction = "ASC"
	}
	return ord.Field + " " + direction
}

// ParseOrderings reads a comma separated list of fields, "-" prefixed fields are sorted descending.
func ParseOrderings(val string) []DBOrdering {
	var ords []DBOrdering
	for _, field := range strings.Split(val, ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field == "" {
			continue
		}
		ords = append(ords, DBOrdering{Field: field, Ascending: !descending})
	}
	return ords
}

// AllowedOrderings keeps the orderings whose field is a key of `columns` and renames them to the mapped column.
// `defaults` are returned when nothing is left.
func AllowedOrderings(ords []DBOrdering, columns map[string]string, defaults ...DBOrdering) []DBOrdering {
	allowed := make([]DBOrdering, 0, len(ords))
	for _, ord := range ords {
		if col, ok := columns[ord.Field]; ok {
			allowed = append(allowed, DBOrdering{Field: col, Ascending: ord.Ascending})
		}
	}
	if len(allowed) == 0 {
		return defaults
	}
	return allowed
}

// OrderByClause joins orderings into an SQL ORDER BY clause (without the keywords).
func OrderByClause(ords []DBOrdering) string {
	parts := make([]string, 0, len(ords))
	for _, ord := range ords {
		parts = append(parts, ord.String())
	}
	return strings.Join(parts, ", ")
}
