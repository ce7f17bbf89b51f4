// Package view holds the declarative component tree the pages are built with, and the Site rendering it.
package view

import "strconv"

// Component is a node of a page body; Kind names the template rendering it.
type Component interface {
	Kind() string
}

type (
	Container struct {
		Class    string
		Children []Component
	}

	Heading struct {
		Level int // 2 when unset
		Text  string
	}

	Text struct {
		Text  string
		Class string
	}

	Link struct {
		Text  string
		URL   string
		Class string
	}

	// Message is a notice shown to the user; Level is one of the Level* constants.
	Message struct {
		Level string
		Text  string
	}

	Form struct {
		Action   string
		Method   string // POST when unset
		CSRF     string
		Errors   []string
		Children []Component
	}

	Hidden struct {
		Name  string
		Value string
	}

	Input struct {
		Name     string
		Label    string
		Type     string // text when unset
		Value    string
		Help     string
		Error    string
		Required bool
	}

	TextArea struct {
		Name  string
		Label string
		Value string
		Rows  int
		Help  string
		Error string
	}

	Option struct {
		Value    string
		Label    string
		Selected bool
	}

	Select struct {
		Name     string
		Label    string
		Options  []Option
		Multiple bool
		Error    string
	}

	Checkbox struct {
		Name     string
		Label    string
		Value    string
		Checked  bool
		Disabled bool
		Error    string
	}

	// Radio is a group of radio buttons sharing Name.
	Radio struct {
		Name    string
		Label   string
		Options []Option
		Error   string
	}

	Button struct {
		Name  string
		Value string
		Label string
		Class string
	}

	Table struct {
		Caption string
		Headers []string
		Rows    []Row
		Empty   string // shown when there are no rows
	}

	Row struct {
		Class string
		Cells []Cell
	}

	Cell struct {
		Indent  int
		Content []Component
	}

	List struct {
		Ordered bool
		Items   []Component
	}

	Term struct {
		Term        string
		Description []Component
	}

	Definition struct {
		Terms []Term
	}
)

// message levels
const (
	LevelInfo    = "info"
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

func (Container) Kind() string  { return "container" }
func (Heading) Kind() string    { return "heading" }
func (Text) Kind() string       { return "text" }
func (Link) Kind() string       { return "link" }
func (Message) Kind() string    { return "message" }
func (Form) Kind() string       { return "form" }
func (Hidden) Kind() string     { return "hidden" }
func (Input) Kind() string      { return "input" }
func (TextArea) Kind() string   { return "textarea" }
func (Select) Kind() string     { return "select" }
func (Checkbox) Kind() string   { return "checkbox" }
func (Radio) Kind() string      { return "radio" }
func (Button) Kind() string     { return "button" }
func (Table) Kind() string      { return "table" }
func (List) Kind() string       { return "list" }
func (Definition) Kind() string { return "definition" }

func (h Heading) Tag() string {
	if h.Level < 1 || h.Level > 6 {
		return "h2"
	}
	return "h" + strconv.Itoa(h.Level)
}

func (f Form) FormMethod() string {
	if f.Method == "" {
		return "POST"
	}
	return f.Method
}

// NeedsCSRF reports whether the CSRF token is posted along with the form.
func (f Form) NeedsCSRF() bool {
	return f.FormMethod() == "POST" && f.CSRF != ""
}

func (in Input) InputType() string {
	if in.Type == "" {
		return "text"
	}
	return in.Type
}

func (ta TextArea) RowCount() int {
	if ta.Rows <= 0 {
		return 5
	}
	return ta.Rows
}

func (cb Checkbox) CheckValue() string {
	if cb.Value == "" {
		return "true"
	}
	return cb.Value
}

// Cells is a shortcut building a row of single component cells.
func Cells(content ...Component) Row {
	row := Row{Cells: make([]Cell, 0, len(content))}
	for _, c := range content {
		if c == nil {
			row.Cells = append(row.Cells, Cell{})
			continue
		}
		row.Cells = append(row.Cells, Cell{Content: []Component{c}})
	}
	return row
}

// T is a shortcut for a plain Text component.
func T(text string) Text { return Text{Text: text} }
