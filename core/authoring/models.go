package authoring

// item classifications
const (
	ClassScaled         = "Scaled"
	ClassMultipleChoice = "MultipleChoice"
	ClassMultipleAnswer = "MultipleAnswer"
	ClassText           = "Text"
	ClassHeader         = "Header"
)

// sharing
const (
	SharingPrivate = "private"
	SharingPublic  = "public"
	SharingShared  = "shared"
)

// item group types
const (
	GroupTypeCategory  = "category"
	GroupTypeObjective = "objective"
)

// scale ideals
const (
	IdealNone    = ""
	IdealLow     = "low"
	IdealHigh    = "high"
	IdealMid     = "mid"
	IdealOutside = "outside"
)

type (
	// Scale is an ordered list of answer options shared by scaled and choice items.
	Scale struct {
		ID      int64    `json:"id"`
		Title   string   `json:"title"`
		Options []string `json:"options"`
		Ideal   string   `json:"ideal"`
		Owner   string   `json:"owner"`
		Sharing string   `json:"sharing"`
		Locked  bool     `json:"locked"`
		Expert  bool     `json:"expert"`
	}

	Item struct {
		ID                int64  `json:"id"`
		Text              string `json:"text"`
		Description       string `json:"description"`
		Classification    string `json:"classification"`
		ScaleID           int64  `json:"scale_id"`
		ScaleDisplay      string `json:"scale_display"`
		UsesNA            bool   `json:"uses_na"`
		UsesComment       bool   `json:"uses_comment"`
		Category          string `json:"category"`
		Owner             string `json:"owner"`
		Sharing           string `json:"sharing"`
		Locked            bool   `json:"locked"`
		Expert            bool   `json:"expert"`
		ExpertDescription string `json:"expert_description"`

		Scale *Scale `json:"scale,omitempty"`
	}

	Template struct {
		ID          int64  `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Owner       string `json:"owner"`
		Sharing     string `json:"sharing"`
		Locked      bool   `json:"locked"`
	}

	// TemplateItem places an Item in a Template.
	TemplateItem struct {
		ID           int64  `json:"id"`
		TemplateID   int64  `json:"template_id"`
		ItemID       int64  `json:"item_id"`
		DisplayOrder int    `json:"display_order"`
		Category     string `json:"category"`

		Item Item `json:"item"`
	}

	// ItemGroup organizes expert items: categories hold objectives, objectives hold items.
	ItemGroup struct {
		ID          int64   `json:"id"`
		ParentID    int64   `json:"parent_id"`
		Type        string  `json:"type"`
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Expert      bool    `json:"expert"`
		ItemIDs     []int64 `json:"item_ids"`
	}
)

// HasScale reports whether the item answers are picked from a scale.
func (it Item) HasScale() bool {
	switch it.Classification {
	case ClassScaled, ClassMultipleChoice, ClassMultipleAnswer:
		return true
	}
	return false
}

// Options returns the scale options of the item, if any.
func (it Item) Options() []string {
	if it.Scale == nil {
		return nil
	}
	return it.Scale.Options
}

// Answerable reports whether the item collects answers (headers do not).
func (it Item) Answerable() bool {
	return it.Classification != ClassHeader
}

// ShortText returns the item text cut to `n` runes.
func (it Item) ShortText(n int) string {
	runes := []rune(it.Text)
	if len(runes) <= n {
		return it.Text
	}
	return string(runes[:n]) + "..."
}
