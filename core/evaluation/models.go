package evaluation

import (
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/evaladmin/core"
	"github.com/trezcool/evaladmin/core/user"
)

// evaluation states
const (
	StateInQueue     = "inqueue"
	StateActive      = "active"
	StateGracePeriod = "graceperiod"
	StateClosed      = "closed"
	StateViewable    = "viewable"
)

// notification audiences
const (
	AudienceAll            = "all"
	AudienceNonRespondents = "nonrespondents"
	AudienceRespondents    = "respondents"
)

// report formats
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var NowFunc = time.Now // mockable

type (
	Evaluation struct {
		ID                int64     `json:"id"`
		Title             string    `json:"title"`
		Instructions      string    `json:"instructions"`
		TemplateID        int64     `json:"template_id"`
		Owner             string    `json:"owner"`
		StartDate         time.Time `json:"start_date"`
		DueDate           time.Time `json:"due_date"`  // zero: never due
		StopDate          time.Time `json:"stop_date"` // zero: no grace period
		ViewDate          time.Time `json:"view_date"` // zero: viewable once closed
		ReminderFromEmail string    `json:"reminder_from_email"`
		Locked            bool      `json:"locked"`
	}

	// AssignGroup assigns an evaluation to a group, NodeID is the hierarchy node the group came from (0 if picked directly).
	AssignGroup struct {
		ID           int64  `json:"id"`
		EvaluationID int64  `json:"evaluation_id"`
		GroupID      string `json:"group_id"`
		NodeID       int64  `json:"node_id"`
	}

	// Candidate is a group proposed for assignment.
	Candidate struct {
		GroupID    string `json:"group_id"`
		GroupTitle string `json:"group_title"`
		NodeID     int64  `json:"node_id"`
	}

	Response struct {
		ID           int64     `json:"id"`
		EvaluationID int64     `json:"evaluation_id"`
		GroupID      string    `json:"group_id"`
		Owner        string    `json:"owner"`
		StartTime    time.Time `json:"start_time"`
		EndTime      time.Time `json:"end_time"` // zero: not submitted
		Answers      []Answer  `json:"answers"`
	}

	Answer struct {
		ID             int64  `json:"id"`
		ResponseID     int64  `json:"response_id"`
		TemplateItemID int64  `json:"template_item_id"`
		ItemID         int64  `json:"item_id"`
		NumericAnswer  *int   `json:"numeric_answer"` // index in the scale options
		MultiAnswer    []int  `json:"multi_answer"`   // indexes in the scale options
		TextAnswer     string `json:"text_answer"`
		Comment        string `json:"comment"`
		NA             bool   `json:"na"`
	}

	Notification struct {
		Audience string `form:"audience" validate:"required,oneof=all nonrespondents respondents"`
		Subject  string `form:"subject" validate:"required,notblank,max=255"`
		Body     string `form:"body" validate:"required,notblank"`
	}

	ReportEmail struct {
		Recipients string `form:"recipients" validate:"required"` // comma separated addresses
		Subject    string `form:"subject" validate:"required,notblank,max=255"`
		Message    string `form:"message"`
		Format     string `form:"format" validate:"required,oneof=csv json"`

		addresses []mail.Address
	}

	// Attachment is a report file attached to a ReportEmail.
	Attachment struct {
		Filename    string
		ContentType string
		Content     []byte
	}
)

// State derives the evaluation state from its dates.
func (e Evaluation) State() string {
	now := NowFunc()
	switch {
	case now.Before(e.StartDate):
		return StateInQueue
	case e.DueDate.IsZero() || now.Before(e.DueDate):
		return StateActive
	case !e.StopDate.IsZero() && now.Before(e.StopDate):
		return StateGracePeriod
	case !e.ViewDate.IsZero() && now.Before(e.ViewDate):
		return StateClosed
	}
	return StateViewable
}

// IsClosed reports whether responses are no longer accepted.
func (e Evaluation) IsClosed() bool {
	state := e.State()
	return state == StateClosed || state == StateViewable
}

func (r Response) Complete() bool { return !r.EndTime.IsZero() }

func CanControlEvaluation(usr user.User, e Evaluation) bool {
	return usr.IsAdmin() || usr.ID == e.Owner
}

func (n *Notification) Validate(validate *validator.Validate) error {
	n.Audience = core.CleanString(n.Audience, true /* lower */)
	n.Subject = core.CleanString(n.Subject)
	n.Body = core.CleanString(n.Body)
	return validate.Struct(n)
}

// Validate checks the form and parses the recipients, at most `maxRecipients` of them.
func (re *ReportEmail) Validate(validate *validator.Validate, maxRecipients int) error {
	re.Subject = core.CleanString(re.Subject)
	re.Message = core.CleanString(re.Message)
	re.Format = core.CleanString(re.Format, true /* lower */)
	if err := validate.Struct(re); err != nil {
		return err
	}

	re.addresses = re.addresses[:0]
	for _, raw := range strings.FieldsFunc(re.Recipients, func(r rune) bool { return r == ',' || r == ';' || r == '\n' }) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		addr, err := mail.ParseAddress(raw)
		if err != nil {
			return core.NewValidationError(err, core.FieldError{Field: "recipients", Error: "invalid email address: " + raw})
		}
		re.addresses = append(re.addresses, *addr)
	}
	switch {
	case len(re.addresses) == 0:
		return core.NewValidationError(nil, core.FieldError{Field: "recipients", Error: "this field is required"})
	case len(re.addresses) > maxRecipients:
		return core.NewValidationError(nil, core.FieldError{
			Field: "recipients",
			Error: fmt.Sprintf("too many recipients (max %d)", maxRecipients),
		})
	}
	return nil
}

// Addresses returns the parsed recipients, available after Validate.
func (re ReportEmail) Addresses() []mail.Address { return re.addresses }
