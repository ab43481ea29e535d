package catalog

import (
	"fmt"
	"strings"

	"recordadmin/internal/admin"
	"recordadmin/internal/config"
	"recordadmin/internal/models"

	"gorm.io/gorm"
)

// Definitions возвращает все модели, видимые в админке. Подтипы идут после родителя.
func Definitions() []admin.Definition {
	return []admin.Definition{
		{
			Name:       "player",
			Model:      &models.Player{},
			TitleField: "name",
			Fields: []admin.Field{
				{Name: "name", Kind: admin.KindString},
				{Name: "number", Kind: admin.KindInteger, Unique: true},
				{Name: "position", Kind: admin.KindString},
				{Name: "notes", Kind: admin.KindText},
				{Name: "draft_id", Kind: admin.KindHasOne, Association: &admin.Association{Model: "draft"}},
				{Name: "team_id", Kind: admin.KindHasOne, Association: &admin.Association{Model: "team"}},
			},
		},
		{
			Name:       "draft",
			Model:      &models.Draft{},
			TitleField: "college",
			Fields: []admin.Field{
				{Name: "round", Kind: admin.KindInteger},
				{Name: "pick", Kind: admin.KindInteger},
				{Name: "college", Kind: admin.KindString},
			},
		},
		{
			Name:       "league",
			Model:      &models.League{},
			TitleField: "name",
			Fields: []admin.Field{
				{Name: "name", Kind: admin.KindString},
				{
					Name: "division_ids",
					Kind: admin.KindHasMany,
					Association: &admin.Association{
						Model:      "division",
						Label:      "Divisions",
						ForeignKey: "league_id",
					},
				},
			},
		},
		{
			Name:       "division",
			Model:      &models.Division{},
			TitleField: "name",
			Fields: []admin.Field{
				{Name: "name", Kind: admin.KindString},
				{Name: "league_id", Kind: admin.KindHasOne, Association: &admin.Association{Model: "league"}},
			},
		},
		{
			Name:       "team",
			Model:      &models.Team{},
			TitleField: "name",
			Fields: []admin.Field{
				{Name: "name", Kind: admin.KindString},
				{Name: "manager", Kind: admin.KindString},
				{Name: "division_id", Kind: admin.KindHasOne, Association: &admin.Association{Model: "division"}},
				{
					Name: "player_ids",
					Kind: admin.KindHasMany,
					Association: &admin.Association{
						Model:      "player",
						Label:      "Players",
						ForeignKey: "team_id",
					},
				},
				{
					Name: "fan_ids",
					Kind: admin.KindHasMany,
					Association: &admin.Association{
						Model:          "fan",
						Label:          "Fans",
						JoinTable:      "fans_teams",
						JoinForeignKey: "team_id",
						JoinReferences: "fan_id",
					},
				},
			},
		},
		{
			Name:       "fan",
			Model:      &models.Fan{},
			TitleField: "name",
			Fields: []admin.Field{
				{Name: "name", Kind: admin.KindString},
			},
		},
		{
			Name:       "ball",
			Model:      &models.Ball{},
			TitleField: "color",
			Fields: []admin.Field{
				{Name: "color", Kind: admin.KindString},
			},
		},
		{
			Name:          "hardball",
			Model:         &models.Hardball{},
			Parent:        "ball",
			Discriminator: "Hardball",
		},
		{
			Name:          "softball",
			Model:         &models.Softball{},
			Parent:        "ball",
			Discriminator: "Softball",
		},
		{
			Name:       "user",
			Model:      &models.User{},
			TitleField: "email",
			Fields: []admin.Field{
				{Name: "email", Kind: admin.KindString, Unique: true},
				{Name: "name", Kind: admin.KindString},
				{Name: "roles"},
			},
		},
		{
			Name:       "field_test",
			Model:      &models.FieldTest{},
			Label:      "Field test",
			TitleField: "string_field",
			Fields: []admin.Field{
				{Name: "string_field"},
				{Name: "integer_field"},
				{Name: "array_field"},
				{Name: "hash_field"},
			},
		},
	}
}

// Build регистрирует модели каталога с учётом настроек из YAML.
func Build(db *gorm.DB, overrides config.AdminOverrides) (*admin.Registry, error) {
	defs := Definitions()
	known := make(map[string]bool, len(defs))
	for _, d := range defs {
		known[d.Name] = true
	}
	for name := range overrides.Models {
		if !known[name] {
			return nil, fmt.Errorf("admin config: unknown model %q", name)
		}
	}

	reg := admin.NewRegistry(db)
	for _, def := range defs {
		def, err := apply(def, overrides.Models[def.Name])
		if err != nil {
			return nil, err
		}
		if _, err := reg.Register(def); err != nil {
			return nil, err
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}

func apply(def admin.Definition, mo config.ModelOverride) (admin.Definition, error) {
	if mo.Label != "" {
		def.Label = mo.Label
	}
	if mo.PluralLabel != "" {
		def.PluralLabel = mo.PluralLabel
	}
	if mo.TitleField != "" {
		def.TitleField = mo.TitleField
	}
	if len(mo.Fields) == 0 {
		return def, nil
	}
	if def.Fields == nil {
		return def, fmt.Errorf("admin config: %s inherits its fields, configure the parent model", def.Name)
	}

	fields := make([]admin.Field, len(def.Fields))
	copy(fields, def.Fields)
	for name, fo := range mo.Fields {
		idx := -1
		for i := range fields {
			if fields[i].Name == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return def, fmt.Errorf("admin config: %s has no field %q", def.Name, name)
		}

		f := &fields[idx]
		if fo.Label != "" {
			f.Label = fo.Label
		}
		f.Hidden = f.Hidden || fo.Hidden
		if f.Kind.Association() && fo.Type != "" {
			return def, fmt.Errorf("admin config: %s.%s: association type cannot be changed", def.Name, name)
		}
		switch strings.ToLower(fo.Type) {
		case "string":
			f.Kind = admin.KindString
		case "text":
			f.Kind = admin.KindText
		case "integer":
			f.Kind = admin.KindInteger
		case "serialized":
			f.Kind = admin.KindSerialized
		}
		if fo.Serializer != "" {
			s, err := admin.SerializerByName(fo.Serializer)
			if err != nil {
				return def, fmt.Errorf("admin config: %s.%s: %w", def.Name, name, err)
			}
			f.Serializer = s
		}
	}
	def.Fields = fields
	return def, nil
}
