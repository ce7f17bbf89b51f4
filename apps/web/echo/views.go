package echoweb

// view IDs, also used as route names
const (
	viewLogin                = "login"
	viewLogout               = "logout"
	viewPasswordReset        = "password_reset"
	viewPasswordResetConfirm = "password_reset_confirm"
	viewAdministrate         = "administrate"
	viewError                = "error"

	viewControlReporting    = "control_reporting"
	viewControlHierarchy    = "control_hierarchy"
	viewAddHierarchyNode    = "add_hierarchy_node"
	viewModifyHierarchyNode = "modify_hierarchy_node"
	viewRemoveHierarchyNode = "remove_hierarchy_node"
	viewModifyNodeGroups    = "modify_node_groups"

	viewControlEvaluations      = "control_evaluations"
	viewEvaluationAssign        = "evaluation_assign"
	viewEvaluationAssignConfirm = "evaluation_assign_confirm"
	viewEvaluationAssignments   = "evaluation_assignments"
	viewEvaluationNotify        = "evaluation_notify"
	viewReport                  = "report_view"
	viewReportExportCSV         = "report_export_csv"
	viewReportExportJSON        = "report_export_json"
	viewEmailReport             = "email_report"

	viewControlScales       = "control_scales"
	viewPreviewScale        = "preview_scale"
	viewRemoveScale         = "remove_scale"
	viewControlItems        = "control_items"
	viewPreviewItem         = "preview_item"
	viewRemoveItem          = "remove_item"
	viewControlTemplates    = "control_templates"
	viewModifyTemplate      = "modify_template"
	viewPreviewTemplateItem = "preview_template_item"
	viewRemoveTemplateItem  = "remove_template_item"
	viewExpertCategories    = "expert_categories"
	viewExpertObjectives    = "expert_objectives"
	viewExpertItems         = "expert_items"
)

// action outcomes
const (
	outcomeSaved     = "saved"
	outcomeCancel    = "cancel"
	outcomeRemoved   = "removed"
	outcomeAssigned  = "assigned"
	outcomeChange    = "change"
	outcomeSent      = "sent"
	outcomeAdded     = "added"
	outcomeLoggedIn  = "logged_in"
	outcomeLoggedOut = "logged_out"
	outcomeReset     = "reset"
)
