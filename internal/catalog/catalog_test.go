package catalog

import (
	"testing"

	"recordadmin/internal/admin"
	"recordadmin/internal/config"
	"recordadmin/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Defaults(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	reg, err := Build(db, config.AdminOverrides{})
	require.NoError(t, err)
	assert.Len(t, reg.All(), len(Definitions()))

	user, err := reg.Lookup("user")
	require.NoError(t, err)
	assert.Equal(t, admin.KindSerializedArray, user.Field("roles").Kind)

	ft, err := reg.Lookup("field_test")
	require.NoError(t, err)
	assert.Equal(t, "Field test", ft.Label)
	assert.Equal(t, admin.KindString, ft.Field("string_field").Kind)
	assert.Equal(t, admin.KindInteger, ft.Field("integer_field").Kind)
	assert.Equal(t, admin.KindSerializedArray, ft.Field("array_field").Kind)
	assert.Equal(t, admin.KindSerializedHash, ft.Field("hash_field").Kind)

	league, err := reg.Lookup("league")
	require.NoError(t, err)
	divs := league.Field("division_ids")
	require.NotNil(t, divs)
	assert.Equal(t, admin.KindHasMany, divs.Kind)
	assert.Equal(t, "Divisions", divs.Association.Label)

	hard, err := reg.Lookup("hardball")
	require.NoError(t, err)
	ball, err := reg.Lookup("ball")
	require.NoError(t, err)
	assert.Same(t, ball, hard.Parent)
	assert.Equal(t, "balls", hard.Table)
	require.NotNil(t, hard.Field("color"))
	assert.Len(t, ball.Children, 2)
}

func TestBuild_Overrides(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	reg, err := Build(db, config.AdminOverrides{Models: map[string]config.ModelOverride{
		"player": {
			Label:      "Ballplayer",
			TitleField: "position",
			Fields: map[string]config.FieldOverride{
				"notes":    {Hidden: true},
				"position": {Type: "text", Label: "Role"},
			},
		},
		"user": {
			Fields: map[string]config.FieldOverride{
				"roles": {Type: "serialized", Serializer: "json"},
			},
		},
	}})
	require.NoError(t, err)

	player, err := reg.Lookup("player")
	require.NoError(t, err)
	assert.Equal(t, "Ballplayer", player.Label)
	assert.Equal(t, "Ballplayers", player.PluralLabel)
	assert.Equal(t, "position", player.TitleField)
	assert.True(t, player.Field("notes").Hidden)
	assert.Equal(t, admin.KindText, player.Field("position").Kind)
	assert.Equal(t, "Role", player.Field("position").Label)

	user, err := reg.Lookup("user")
	require.NoError(t, err)
	assert.IsType(t, admin.JSONSerializer{}, user.Field("roles").Serializer)

	// встроенный каталог не меняется
	assert.Empty(t, Definitions()[0].Label)
}

func TestBuild_OverrideErrors(t *testing.T) {
	db, err := database.OpenMemory()
	require.NoError(t, err)

	cases := map[string]config.AdminOverrides{
		"unknown model": {Models: map[string]config.ModelOverride{"spaceship": {}}},
		"unknown field": {Models: map[string]config.ModelOverride{
			"player": {Fields: map[string]config.FieldOverride{"height": {Hidden: true}}},
		}},
		"association type": {Models: map[string]config.ModelOverride{
			"team": {Fields: map[string]config.FieldOverride{"fan_ids": {Type: "text"}}},
		}},
		"subtype fields": {Models: map[string]config.ModelOverride{
			"hardball": {Fields: map[string]config.FieldOverride{"color": {Hidden: true}}},
		}},
		"bad serializer": {Models: map[string]config.ModelOverride{
			"user": {Fields: map[string]config.FieldOverride{"roles": {Serializer: "xml"}}},
		}},
	}
	for name, overrides := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Build(db, overrides)
			assert.Error(t, err)
		})
	}
}
