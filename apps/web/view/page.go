package view

type (
	// Crumb is one step of the breadcrumbs trail; the current page has no URL.
	Crumb struct {
		Text string
		URL  string
	}

	NavLink struct {
		Text   string
		URL    string
		Active bool
	}

	// Page is the data every page template receives.
	Page struct {
		AppName     string
		ViewID      string
		Title       string
		Breadcrumbs []Crumb
		Nav         []NavLink
		Messages    []Message
		Body        []Component
		UserName    string
		CSRF        string
		LogoutURL   string
		StaticURL   string
	}
)

// Add appends components to the body.
func (p *Page) Add(components ...Component) *Page {
	p.Body = append(p.Body, components...)
	return p
}

func (p *Page) AddMessage(level, text string) *Page {
	p.Messages = append(p.Messages, Message{Level: level, Text: text})
	return p
}

// LoggedIn reports whether the page is rendered for an authenticated user.
func (p *Page) LoggedIn() bool {
	return p.UserName != ""
}
