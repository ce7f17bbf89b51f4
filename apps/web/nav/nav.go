// Package nav maps the outcome of a page action to the view shown next.
package nav

import "github.com/pkg/errors"

var ErrNoCase = errors.New("no navigation case matches the outcome")

// Case sends an action outcome to a view. An empty Outcome matches any outcome.
type Case struct {
	Outcome string
	ViewID  string
}

// Cases is the navigation table of a view.
type Cases []Case

// Resolve returns the view of the case matching outcome. Exact matches win over the wildcard.
func (cs Cases) Resolve(outcome string) (string, error) {
	wildcard := ""
	for _, c := range cs {
		switch c.Outcome {
		case outcome:
			if outcome != "" {
				return c.ViewID, nil
			}
			if wildcard == "" {
				wildcard = c.ViewID
			}
		case "":
			if wildcard == "" {
				wildcard = c.ViewID
			}
		}
	}
	if wildcard != "" {
		return wildcard, nil
	}
	return "", errors.Wrapf(ErrNoCase, "outcome %q", outcome)
}
