package validation

import "github.com/kutbudev/planora/internal/models"

// Operation selects between create and update rule variants.
type Operation int

const (
	Create Operation = iota
	Update
)

// CategoryRules is the rule table for category create and update.
func CategoryRules() []FieldRule {
	return []FieldRule{
		{Field: "name", Required: true, Checks: []Check{String(255)}},
		{Field: "description", Checks: []Check{String(0)}},
		{Field: "is_active", Checks: []Check{Boolean()}},
		{Field: "metadata", Checks: []Check{JSONDocument()}},
		{Field: "published_at", Checks: []Check{Date()}},
	}
}

// ProjectRules is the rule table for project create and update. The
// document upload has its own rule (ValidateDocument) because it arrives as
// a file, not a payload field.
func ProjectRules() []FieldRule {
	return []FieldRule{
		{Field: "category_id", Required: true, Checks: []Check{ExistsID(&models.Category{})}},
		{Field: "name", Required: true, Checks: []Check{String(255)}},
		{Field: "description", Checks: []Check{String(0)}},
		{Field: "is_active", Checks: []Check{Boolean()}},
		{Field: "metadata", Checks: []Check{JSONDocument()}},
		{Field: "start_date", Checks: []Check{Date()}},
		{Field: "end_date", Checks: []Check{Date(), AfterOrEqual("start_date")}},
	}
}

// TaskRules is the rule table for task create and update.
func TaskRules() []FieldRule {
	return []FieldRule{
		{Field: "project_id", Required: true, Checks: []Check{ExistsID(&models.Project{})}},
		{Field: "title", Required: true, Checks: []Check{String(255)}},
		{Field: "description", Checks: []Check{String(0)}},
		{Field: "status", Required: true, Checks: []Check{In(models.TaskStatuses...)}},
		{Field: "is_priority", Checks: []Check{Boolean()}},
		{Field: "metadata", Checks: []Check{JSONDocument()}},
		{Field: "due_date", Checks: []Check{Date()}},
	}
}

// RoleRules is the rule table for role create and update. ignoreID excludes
// the updated role from the uniqueness check.
func RoleRules(ignoreID uint) []FieldRule {
	return []FieldRule{
		{Field: "name", Required: true, Checks: []Check{String(255), Unique(&models.Role{}, "name", ignoreID)}},
		{Field: "permissions", Required: true, Checks: []Check{IDList(&models.Permission{})}},
	}
}

// UserRules is the rule table for user create and update. The password is
// required only on create; on update it is validated when supplied.
func UserRules(op Operation, ignoreID uint) []FieldRule {
	return []FieldRule{
		{Field: "name", Required: true, Checks: []Check{String(255)}},
		{Field: "email", Required: true, Checks: []Check{String(255), Email(), Unique(&models.User{}, "email", ignoreID)}},
		{Field: "password", Required: op == Create, Checks: []Check{MinLen(8), Confirmed()}},
		{Field: "roles", Required: true, Checks: []Check{IDList(&models.Role{})}},
	}
}
