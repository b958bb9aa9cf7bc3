package auth

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
		&models.User{}, &models.Role{}, &models.Permission{}, &models.AccessToken{},
	))
	return db
}

func makeUser(t *testing.T, db *gorm.DB, email string, roles ...*models.Role) *models.User {
	t.Helper()
	user := models.User{Name: "Test", Email: email, Password: "irrelevant", Roles: roles}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func TestGateDeniesWithoutPermission(t *testing.T) {
	db := testDB(t)
	gate := NewGate(db)

	viewer := models.Role{Name: "viewer", Permissions: []*models.Permission{{Name: "view projects"}}}
	require.NoError(t, db.Create(&viewer).Error)
	user := makeUser(t, db, "viewer@example.com", &viewer)

	assert.True(t, gate.Can(user, "view projects"))
	assert.False(t, gate.Can(user, "delete projects"))
	assert.False(t, gate.Can(nil, "view projects"))
}

func TestGateUnionAcrossRoles(t *testing.T) {
	db := testDB(t)
	gate := NewGate(db)

	reader := models.Role{Name: "reader", Permissions: []*models.Permission{{Name: "view tasks"}}}
	writer := models.Role{Name: "writer", Permissions: []*models.Permission{{Name: "edit tasks"}}}
	require.NoError(t, db.Create(&reader).Error)
	require.NoError(t, db.Create(&writer).Error)
	user := makeUser(t, db, "both@example.com", &reader, &writer)

	assert.True(t, gate.Can(user, "view tasks"))
	assert.True(t, gate.Can(user, "edit tasks"))

	set, err := gate.Effective(user)
	require.NoError(t, err)
	assert.Len(t, set, 2)
	assert.Contains(t, set, "view tasks")
	assert.Contains(t, set, "edit tasks")
}

func TestGateAdminBypass(t *testing.T) {
	db := testDB(t)
	gate := NewGate(db)

	admin := models.Role{Name: models.AdminRole}
	require.NoError(t, db.Create(&admin).Error)
	user := makeUser(t, db, "admin@example.com", &admin)

	assert.True(t, gate.Can(user, "delete roles"))
	assert.True(t, gate.Can(user, "anything at all"))
}

func TestGateLoadsRolesLazily(t *testing.T) {
	db := testDB(t)
	gate := NewGate(db)

	viewer := models.Role{Name: "viewer", Permissions: []*models.Permission{{Name: "view categories"}}}
	require.NoError(t, db.Create(&viewer).Error)
	created := makeUser(t, db, "lazy@example.com", &viewer)

	bare := &models.User{ID: created.ID}
	assert.True(t, gate.Can(bare, "view categories"))
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateToken(t *testing.T) {
	plain, hash, err := GenerateToken()
	require.NoError(t, err)
	assert.Len(t, plain, 64)
	assert.Equal(t, HashToken(plain), hash)

	plain2, _, err := GenerateToken()
	require.NoError(t, err)
	assert.NotEqual(t, plain, plain2)
}
