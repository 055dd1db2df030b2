package access

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"docforge/internal/model"
)

func TestCanAccessDocument_FullHierarchy(t *testing.T) {
	e := NewEngine()

	// Exhaustive (role, level) table per the fixed hierarchy.
	tests := []struct {
		role  Role
		level model.AccessLevel
		want  bool
	}{
		{RoleGuest, model.AccessPublic, true},
		{RoleGuest, model.AccessInternal, false},
		{RoleGuest, model.AccessConfidential, false},
		{RoleGuest, model.AccessSecret, false},

		{RoleUser, model.AccessPublic, true},
		{RoleUser, model.AccessInternal, true},
		{RoleUser, model.AccessConfidential, false},
		{RoleUser, model.AccessSecret, false},

		{RoleManager, model.AccessPublic, true},
		{RoleManager, model.AccessInternal, true},
		{RoleManager, model.AccessConfidential, true},
		{RoleManager, model.AccessSecret, false},

		{RoleAdmin, model.AccessPublic, true},
		{RoleAdmin, model.AccessInternal, true},
		{RoleAdmin, model.AccessConfidential, true},
		{RoleAdmin, model.AccessSecret, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.level), func(t *testing.T) {
			assert.Equal(t, tt.want, e.CanAccessDocument(tt.role, tt.level))
		})
	}
}

func TestCanAccessDocument_UnknownInputs(t *testing.T) {
	e := NewEngine()

	// Unknown role degrades to guest.
	assert.True(t, e.CanAccessDocument(Role("intern"), model.AccessPublic))
	assert.False(t, e.CanAccessDocument(Role("intern"), model.AccessInternal))

	// Unknown level grants nothing, even to admin.
	assert.False(t, e.CanAccessDocument(RoleAdmin, model.AccessLevel("classified")))
}

func TestCheckPermission(t *testing.T) {
	e := NewEngine()

	tests := []struct {
		role   Role
		action model.AccessAction
		want   bool
	}{
		{RoleAdmin, model.ActionDelete, true},
		{RoleAdmin, model.ActionExport, true},
		{RoleManager, model.ActionEdit, true},
		{RoleManager, model.ActionDelete, false},
		{RoleUser, model.ActionDownload, true},
		{RoleUser, model.ActionEdit, false},
		{RoleGuest, model.ActionView, true},
		{RoleGuest, model.ActionDownload, false},
	}
	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, e.CheckPermission(tt.role, tt.action))
		})
	}

	// Unknown role gets the guest permission set.
	assert.True(t, e.CheckPermission(Role("intern"), model.ActionView))
	assert.False(t, e.CheckPermission(Role("intern"), model.ActionDownload))
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, RoleAdmin, Normalize("admin"))
	assert.Equal(t, RoleGuest, Normalize("superuser"))
	assert.Equal(t, RoleGuest, Normalize(""))
}

func TestPermissions(t *testing.T) {
	e := NewEngine()
	assert.Len(t, e.Permissions(RoleAdmin), 5)
	assert.ElementsMatch(t, []model.AccessAction{model.ActionView}, e.Permissions(RoleGuest))
	assert.ElementsMatch(t, e.Permissions(RoleGuest), e.Permissions(Role("unknown")))
}
