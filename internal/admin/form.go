package admin

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"gorm.io/gorm"
)

type Option struct {
	Value    string
	Label    string
	Selected bool
}

type Input struct {
	Field   *Field
	Name    string
	ID      string
	Label   string
	Widget  string
	Value   string
	Options []Option
	Errors  []string
}

// Form описывает форму редактирования. Model задаёт схему формы
// (для STI это может быть родитель), Record хранит саму запись.
type Form struct {
	Model  *Descriptor
	Record *Record
	Action string
	Method string
	Title  string
	Inputs []Input
	Errors FieldErrors
}

func (f *Form) Input(name string) *Input {
	for i := range f.Inputs {
		if f.Inputs[i].Field.Name == name {
			return &f.Inputs[i]
		}
	}
	return nil
}

// BaseErrors возвращает ошибки, не привязанные к полю формы.
func (f *Form) BaseErrors() []string {
	names := make([]string, 0, len(f.Errors))
	for name := range f.Errors {
		if name == "" || f.Model.Field(name) == nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	var out []string
	for _, name := range names {
		out = append(out, f.Errors[name]...)
	}
	return out
}

func widget(k Kind) string {
	switch k {
	case KindText, KindSerializedArray, KindSerializedHash:
		return "textarea"
	case KindInteger:
		return "number"
	case KindHasOne:
		return "select"
	case KindHasMany:
		return "multiselect"
	}
	return "text"
}

// buildForm заполняет поля значениями записи. Если передан sub,
// присланные значения имеют приоритет над сохранёнными.
func (e *Editor) buildForm(ctx context.Context, db *gorm.DB, view *Descriptor, rec *Record, sub Submission, errs FieldErrors) (*Form, error) {
	param := rec.Param()
	form := &Form{
		Model:  view,
		Record: rec,
		Action: view.RecordPath(param),
		Method: "put",
		Title:  fmt.Sprintf("Edit %s '%s'", view.Label, rec.Title()),
		Errors: errs,
	}
	if form.Errors == nil {
		form.Errors = FieldErrors{}
	}

	for _, vf := range view.Fields {
		if vf.Hidden {
			continue
		}
		f := rec.Model.Field(vf.Name)
		if f == nil {
			continue
		}

		in := Input{
			Field:  vf,
			Name:   view.Name + "[" + vf.Name + "]",
			ID:     view.Name + "_" + vf.Name,
			Label:  vf.Label,
			Widget: widget(vf.Kind),
			Errors: form.Errors[vf.Name],
		}
		submitted, wasSubmitted := sub[vf.Name]

		switch f.Kind {
		case KindHasMany:
			in.Name += "[]"
			target, err := e.registry.Lookup(f.Association.Model)
			if err != nil {
				return nil, err
			}
			selected := map[string]bool{}
			if wasSubmitted {
				for _, s := range submitted {
					selected[s] = true
				}
			} else {
				ids, err := memberIDs(ctx, db, target, f.Association, rec.ID)
				if err != nil {
					return nil, err
				}
				for _, id := range ids {
					selected[strconv.FormatUint(uint64(id), 10)] = true
				}
			}
			opts, err := e.options(ctx, db, target, selected)
			if err != nil {
				return nil, err
			}
			in.Options = opts

		case KindHasOne:
			target, err := e.registry.Lookup(f.Association.Model)
			if err != nil {
				return nil, err
			}
			in.Value = format(f, f.value(rec.Value))
			if wasSubmitted {
				in.Value, _ = sub.Value(vf.Name)
			}
			opts, err := e.options(ctx, db, target, map[string]bool{in.Value: true})
			if err != nil {
				return nil, err
			}
			in.Options = append([]Option{{Value: "", Label: "", Selected: in.Value == ""}}, opts...)

		default:
			in.Value = format(f, f.value(rec.Value))
			if wasSubmitted {
				in.Value, _ = sub.Value(vf.Name)
			}
		}

		form.Inputs = append(form.Inputs, in)
	}
	return form, nil
}

func (e *Editor) options(ctx context.Context, db *gorm.DB, target *Descriptor, selected map[string]bool) ([]Option, error) {
	recs, err := listRecords(ctx, db, target)
	if err != nil {
		return nil, err
	}
	opts := make([]Option, 0, len(recs))
	for _, r := range recs {
		v := strconv.FormatUint(uint64(r.ID), 10)
		opts = append(opts, Option{Value: v, Label: r.Title(), Selected: selected[v]})
	}
	return opts, nil
}
