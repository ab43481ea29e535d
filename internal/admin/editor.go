package admin

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Editor это общий редактор записей: форма по метаданным модели,
// разбор присланных значений, проверка и сохранение.
type Editor struct {
	db        *gorm.DB
	registry  *Registry
	auditor   Auditor
	logger    *zap.Logger
	validator *validator.Validate
}

type EditorOption func(*Editor)

func WithAuditor(a Auditor) EditorOption {
	return func(e *Editor) { e.auditor = a }
}

func WithLogger(l *zap.Logger) EditorOption {
	return func(e *Editor) { e.logger = l }
}

func NewEditor(db *gorm.DB, registry *Registry, opts ...EditorOption) *Editor {
	e := &Editor{
		db:        db,
		registry:  registry,
		logger:    zap.NewNop(),
		validator: newValidator(db.NamingStrategy),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Editor) Registry() *Registry { return e.registry }

type UpdateResult struct {
	Record   *Record
	Model    *Descriptor
	Mode     Mode
	Location string
	Changes  Changes

	// Audited: запись журнала действительно сохранена
	Audited bool
}

func (e *Editor) lookup(modelName, rawID string) (*Descriptor, uint, error) {
	d, err := e.registry.Lookup(modelName)
	if err != nil {
		return nil, 0, err
	}
	id, ok := ParseID(rawID)
	if !ok {
		return nil, 0, ErrNotFound
	}
	return d, id, nil
}

// RenderEditForm строит форму редактирования записи с текущими значениями.
func (e *Editor) RenderEditForm(ctx context.Context, modelName, rawID string) (*Form, error) {
	view, id, err := e.lookup(modelName, rawID)
	if err != nil {
		return nil, err
	}
	rec, err := findRecord(ctx, e.db, view, id)
	if err != nil {
		return nil, err
	}
	return e.buildForm(ctx, e.db, view, rec, nil, nil)
}

// FailedForm строит форму после неудачного сохранения: присланные значения и ошибки.
func (e *Editor) FailedForm(ctx context.Context, verr *ValidationError) (*Form, error) {
	return e.buildForm(ctx, e.db, verr.Model, verr.Record, verr.Submission, verr.Errors)
}

type pendingMembers struct {
	field  *Field
	target *Descriptor
	ids    []uint
}

// ApplyUpdate применяет присланные значения к записи и сохраняет её
// в одной транзакции. При ошибках проверки возвращает *ValidationError.
func (e *Editor) ApplyUpdate(ctx context.Context, modelName, rawID string, sub Submission, mode Mode) (*UpdateResult, error) {
	view, id, err := e.lookup(modelName, rawID)
	if err != nil {
		return nil, err
	}

	var result *UpdateResult
	err = e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		rec, err := findRecord(ctx, tx, view, id)
		if err != nil {
			return err
		}

		errs := FieldErrors{}
		var changes Changes
		var members []pendingMembers

		for _, vf := range view.Fields {
			raw, ok := sub[vf.Name]
			if !ok || vf.Hidden {
				continue
			}
			f := rec.Model.Field(vf.Name)
			if f == nil {
				continue
			}

			if f.Kind == KindHasMany {
				ids, ok := parseIDs(raw)
				if !ok {
					errs.Add(f.Name, msgInvalid)
					continue
				}
				target, err := e.registry.Lookup(f.Association.Model)
				if err != nil {
					return err
				}
				members = append(members, pendingMembers{field: f, target: target, ids: ids})
				continue
			}

			first, _ := sub.Value(vf.Name)
			dst := f.value(rec.Value)
			before := dst.Interface()
			if msg := assign(f, dst, first); msg != "" {
				errs.Add(f.Name, msg)
				continue
			}
			if !reflect.DeepEqual(before, dst.Interface()) {
				changes.Fields = append(changes.Fields, f.Name)
			}
		}

		if err := e.validate(ctx, tx, rec, errs); err != nil {
			return err
		}
		if len(errs) > 0 {
			return &ValidationError{Model: view, Record: rec, Submission: sub, Errors: errs}
		}

		if err := tx.Omit(clause.Associations).Save(rec.Value).Error; err != nil {
			return fmt.Errorf("save %s %d: %w", rec.Model.Name, rec.ID, err)
		}

		for _, m := range members {
			added, removed, err := replaceMembers(ctx, tx, m.target, m.field.Association, rec.ID, m.ids)
			if err != nil {
				return err
			}
			if len(added) > 0 || len(removed) > 0 {
				changes.Associations = append(changes.Associations, AssociationChange{
					Label:   m.field.Association.Label,
					Added:   added,
					Removed: removed,
				})
			}
		}

		result = &UpdateResult{Record: rec, Model: view, Mode: mode, Changes: changes}
		return nil
	})
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			e.logger.Info("record failed validation",
				zap.String("model", view.Name),
				zap.Uint("id", id),
				zap.String("errors", verr.Error()))
		}
		return nil, err
	}

	if mode == ModeSaveAndEdit {
		result.Location = view.EditPath(result.Record.Param())
	} else {
		result.Location = view.IndexPath()
	}

	msg := result.Changes.Message()
	e.logger.Info("record updated",
		zap.String("model", view.Name),
		zap.String("concrete", result.Record.Model.Name),
		zap.Uint("id", id),
		zap.String("mode", mode.String()),
		zap.String("changes", msg))

	if e.auditor != nil && !result.Changes.Empty() {
		entry := AuditEntry{Table: result.Record.Model.Table, Item: id, Message: msg}
		if err := e.auditor.Record(ctx, entry); err != nil {
			e.logger.Warn("failed to write history",
				zap.String("model", view.Name),
				zap.Uint("id", id),
				zap.Error(err))
		} else {
			result.Audited = true
		}
	}

	return result, nil
}

// List отдаёт записи модели для страницы списка.
func (e *Editor) List(ctx context.Context, modelName string) (*Descriptor, []*Record, error) {
	d, err := e.registry.Lookup(modelName)
	if err != nil {
		return nil, nil, err
	}
	recs, err := listRecords(ctx, e.db, d)
	if err != nil {
		return nil, nil, err
	}
	return d, recs, nil
}

// Find ищет запись по id. Для родителя STI возвращает подтип.
func (e *Editor) Find(ctx context.Context, modelName, rawID string) (*Descriptor, *Record, error) {
	d, id, err := e.lookup(modelName, rawID)
	if err != nil {
		return nil, nil, err
	}
	rec, err := findRecord(ctx, e.db, d, id)
	if err != nil {
		return nil, nil, err
	}
	return d, rec, nil
}
