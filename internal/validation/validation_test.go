package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kutbudev/planora/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Category{}, &models.Project{}, &models.Task{},
		&models.User{}, &models.Role{}, &models.Permission{},
	))
	return db
}

func TestCategoryRulesRequired(t *testing.T) {
	db := testDB(t)

	payload, errs := Validate(db, map[string]any{}, CategoryRules())
	require.NotNil(t, errs)
	assert.Nil(t, payload)
	assert.Contains(t, errs["name"], "The name field is required.")
}

func TestCategoryRulesNormalizes(t *testing.T) {
	db := testDB(t)

	payload, errs := Validate(db, map[string]any{
		"name":         "Engineering",
		"is_active":    "1",
		"metadata":     `{"key":"value"}`,
		"published_at": "2026-01-15 09:00:00",
	}, CategoryRules())
	require.Nil(t, errs)
	assert.Equal(t, "Engineering", payload.String("name"))
	assert.True(t, payload.Bool("is_active"))
	assert.JSONEq(t, `{"key":"value"}`, string(payload.JSON("metadata")))
	require.NotNil(t, payload.Time("published_at"))
	assert.Equal(t, 15, payload.Time("published_at").Day())
}

func TestBooleanForms(t *testing.T) {
	db := testDB(t)

	for raw, want := range map[any]bool{
		true: true, false: false,
		"1": true, "0": false,
		"true": true, "false": false,
		float64(1): true, float64(0): false,
	} {
		payload, errs := Validate(db, map[string]any{
			"name":      "x",
			"is_active": raw,
		}, CategoryRules())
		require.Nil(t, errs, "raw %v", raw)
		assert.Equal(t, want, payload.Bool("is_active"), "raw %v", raw)
	}

	_, errs := Validate(db, map[string]any{"name": "x", "is_active": "maybe"}, CategoryRules())
	require.NotNil(t, errs)
	assert.Contains(t, errs["is_active"], "The is active field must be true or false.")
}

func TestMetadataRejectsInvalidJSON(t *testing.T) {
	db := testDB(t)

	_, errs := Validate(db, map[string]any{"name": "x", "metadata": "{broken"}, CategoryRules())
	require.NotNil(t, errs)
	assert.Contains(t, errs["metadata"], "The metadata must be a valid JSON string.")
}

func TestProjectEndDateBeforeStartDate(t *testing.T) {
	db := testDB(t)
	category := models.Category{Name: "Ops", IsActive: true}
	require.NoError(t, db.Create(&category).Error)

	_, errs := Validate(db, map[string]any{
		"category_id": float64(category.ID),
		"name":        "Migration",
		"start_date":  "2026-03-10",
		"end_date":    "2026-03-01",
	}, ProjectRules())
	require.NotNil(t, errs)
	assert.Contains(t, errs["end_date"], "The end date must be a date after or equal to start date.")
}

func TestProjectCategoryMustExist(t *testing.T) {
	db := testDB(t)

	_, errs := Validate(db, map[string]any{
		"category_id": float64(999),
		"name":        "Migration",
	}, ProjectRules())
	require.NotNil(t, errs)
	assert.Contains(t, errs["category_id"], "The selected category id is invalid.")
}

func TestTaskStatusAllowList(t *testing.T) {
	db := testDB(t)
	category := models.Category{Name: "Ops", IsActive: true}
	require.NoError(t, db.Create(&category).Error)
	project := models.Project{CategoryID: category.ID, Name: "Migration", IsActive: true}
	require.NoError(t, db.Create(&project).Error)

	for _, status := range models.TaskStatuses {
		_, errs := Validate(db, map[string]any{
			"project_id": float64(project.ID),
			"title":      "Step",
			"status":     status,
		}, TaskRules())
		assert.Nil(t, errs, "status %s", status)
	}

	_, errs := Validate(db, map[string]any{
		"project_id": float64(project.ID),
		"title":      "Step",
		"status":     "paused",
	}, TaskRules())
	require.NotNil(t, errs)
	assert.Contains(t, errs["status"], "The selected status is invalid.")
}

func TestRoleNameUnique(t *testing.T) {
	db := testDB(t)
	role := models.Role{Name: "manager"}
	require.NoError(t, db.Create(&role).Error)

	_, errs := Validate(db, map[string]any{
		"name":        "manager",
		"permissions": []any{},
	}, RoleRules(0))
	require.NotNil(t, errs)
	assert.Contains(t, errs["name"], "The name has already been taken.")

	// The updated role itself does not collide.
	_, errs = Validate(db, map[string]any{
		"name":        "manager",
		"permissions": []any{},
	}, RoleRules(role.ID))
	assert.Nil(t, errs)
}

func TestUserPasswordRules(t *testing.T) {
	db := testDB(t)
	role := models.Role{Name: "user"}
	require.NoError(t, db.Create(&role).Error)

	input := map[string]any{
		"name":                  "Ada",
		"email":                 "ada@example.com",
		"password":              "secret123",
		"password_confirmation": "different",
		"roles":                 []any{float64(role.ID)},
	}
	_, errs := Validate(db, input, UserRules(Create, 0))
	require.NotNil(t, errs)
	assert.Contains(t, errs["password"], "The password confirmation does not match.")

	input["password_confirmation"] = "secret123"
	payload, errs := Validate(db, input, UserRules(Create, 0))
	require.Nil(t, errs)
	assert.Equal(t, []uint{role.ID}, payload.UintSlice("roles"))

	// Password optional on update.
	delete(input, "password")
	delete(input, "password_confirmation")
	_, errs = Validate(db, input, UserRules(Update, 0))
	assert.Nil(t, errs)
}

func TestIDListRejectsUnknownIDs(t *testing.T) {
	db := testDB(t)
	role := models.Role{Name: "user"}
	require.NoError(t, db.Create(&role).Error)

	_, errs := Validate(db, map[string]any{
		"name":                  "Ada",
		"email":                 "ada@example.com",
		"password":              "secret123",
		"password_confirmation": "secret123",
		"roles":                 []any{float64(role.ID), float64(404)},
	}, UserRules(Create, 0))
	require.NotNil(t, errs)
	assert.Contains(t, errs["roles"], "The selected roles is invalid.")
}
