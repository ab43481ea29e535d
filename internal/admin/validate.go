package admin

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

func newValidator(namer schema.Namer) *validator.Validate {
	v := validator.New()
	// ошибки называются колонками, как и поля дескриптора
	v.RegisterTagNameFunc(func(sf reflect.StructField) string {
		if col := schema.ParseTagSetting(sf.Tag.Get("gorm"), ";")["COLUMN"]; col != "" {
			return col
		}
		return namer.ColumnName("", sf.Name)
	})
	return v
}

// validate собирает ошибки тегов validate и проверки уникальности.
// Поля, уже упавшие при разборе, повторно не проверяются.
func (e *Editor) validate(ctx context.Context, tx *gorm.DB, rec *Record, errs FieldErrors) error {
	if err := e.validator.Struct(rec.Value); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return fmt.Errorf("validate %s: %w", rec.Model.Name, err)
		}
		for _, fe := range verrs {
			name := fe.Field()
			for _, f := range rec.Model.Fields {
				if f.Column == fe.Field() {
					name = f.Name
					break
				}
			}
			if errs.Has(name) {
				continue
			}
			errs.Add(name, tagMessage(fe.Tag()))
		}
	}

	for _, f := range rec.Model.Fields {
		if !f.Unique || f.schemaField == nil || errs.Has(f.Name) {
			continue
		}
		var count int64
		pk := rec.Model.schema.PrioritizedPrimaryField.DBName
		// уникальный индекс покрывает и мягко удалённые строки
		if err := tx.WithContext(ctx).
			Unscoped().
			Model(rec.Model.New()).
			Where(f.Column+" = ? AND "+pk+" <> ?", f.value(rec.Value).Interface(), rec.ID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("check %s uniqueness: %w", f.Name, err)
		}
		if count > 0 {
			errs.Add(f.Name, msgTaken)
		}
	}
	return nil
}

func tagMessage(tag string) string {
	switch tag {
	case "required":
		return msgBlank
	case "gt", "gte", "lt", "lte", "min", "max", "len":
		return msgOutOfRange
	case "numeric", "number":
		return msgNotNumber
	}
	return msgInvalid
}
