package admin

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"gorm.io/gorm"
)

// Record хранит загруженную запись вместе с её конкретным дескриптором.
// Для STI Model указывает на подтип, даже если запись открыта через родителя.
type Record struct {
	Model *Descriptor
	Value any
	ID    uint
}

func (r *Record) Param() string {
	return r.Model.paramOf(r.Value)
}

func (r *Record) Title() string {
	return r.Model.titleOf(r.Value)
}

// findRecord ищет запись по id. Запись, найденная через родителя STI,
// перечитывается через подтип, чьё значение type у неё записано.
func findRecord(ctx context.Context, db *gorm.DB, d *Descriptor, id uint) (*Record, error) {
	rec := d.New()
	q := db.WithContext(ctx).Model(rec)
	if d.Discriminator != "" {
		q = q.Where(d.discriminatorColumn()+" = ?", d.Discriminator)
	}
	if err := q.First(rec, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find %s %d: %w", d.Name, id, err)
	}

	if len(d.Children) > 0 {
		if v, ok := d.columnValue(rec, d.discriminatorColumn()); ok {
			kind := fmt.Sprint(v.Interface())
			for _, child := range d.Children {
				if child.Discriminator == kind {
					return findRecord(ctx, db, child, id)
				}
			}
		}
	}

	return &Record{Model: d, Value: rec, ID: id}, nil
}

// scope ограничивает запрос подтипом, если дескриптор описывает подтип STI.
func scope(db *gorm.DB, d *Descriptor) *gorm.DB {
	q := db.Model(d.New())
	if d.Discriminator != "" {
		q = q.Where(d.discriminatorColumn()+" = ?", d.Discriminator)
	}
	return q
}

// memberIDs возвращает текущие id связанных записей has-many.
func memberIDs(ctx context.Context, db *gorm.DB, target *Descriptor, a *Association, id uint) ([]uint, error) {
	var ids []uint
	var err error
	if a.joined() {
		err = db.WithContext(ctx).
			Table(a.JoinTable).
			Where(a.JoinForeignKey+" = ?", id).
			Pluck(a.JoinReferences, &ids).Error
	} else {
		err = scope(db.WithContext(ctx), target).
			Where(a.ForeignKey+" = ?", id).
			Pluck(target.schema.PrioritizedPrimaryField.DBName, &ids).Error
	}
	if err != nil {
		return nil, fmt.Errorf("load %s members: %w", a.Label, err)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

// existingIDs отбрасывает id, которых нет в таблице цели.
func existingIDs(ctx context.Context, db *gorm.DB, target *Descriptor, ids []uint) ([]uint, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pk := target.schema.PrioritizedPrimaryField.DBName
	var found []uint
	if err := scope(db.WithContext(ctx), target).
		Where(pk+" IN ?", ids).
		Pluck(pk, &found).Error; err != nil {
		return nil, fmt.Errorf("check %s ids: %w", target.Name, err)
	}
	return found, nil
}

// replaceMembers полностью заменяет состав has-many связи на wanted.
// Возвращает добавленные и удалённые id.
func replaceMembers(ctx context.Context, tx *gorm.DB, target *Descriptor, a *Association, id uint, wanted []uint) (added, removed []uint, err error) {
	prior, err := memberIDs(ctx, tx, target, a, id)
	if err != nil {
		return nil, nil, err
	}
	wanted, err = existingIDs(ctx, tx, target, wanted)
	if err != nil {
		return nil, nil, err
	}

	added, removed = diffIDs(prior, wanted)
	if len(added) == 0 && len(removed) == 0 {
		return nil, nil, nil
	}

	tx = tx.WithContext(ctx)
	if a.joined() {
		if len(removed) > 0 {
			if err := tx.Exec(
				"DELETE FROM "+a.JoinTable+" WHERE "+a.JoinForeignKey+" = ? AND "+a.JoinReferences+" IN ?",
				id, removed,
			).Error; err != nil {
				return nil, nil, fmt.Errorf("remove %s members: %w", a.Label, err)
			}
		}
		for _, member := range added {
			if err := tx.Exec(
				"INSERT INTO "+a.JoinTable+" ("+a.JoinForeignKey+", "+a.JoinReferences+") VALUES (?, ?)",
				id, member,
			).Error; err != nil {
				return nil, nil, fmt.Errorf("add %s member %d: %w", a.Label, member, err)
			}
		}
		return added, removed, nil
	}

	pk := target.schema.PrioritizedPrimaryField.DBName
	if len(removed) > 0 {
		if err := scope(tx, target).
			Where(pk+" IN ?", removed).
			Update(a.ForeignKey, nil).Error; err != nil {
			return nil, nil, fmt.Errorf("remove %s members: %w", a.Label, err)
		}
	}
	if len(added) > 0 {
		if err := scope(tx, target).
			Where(pk+" IN ?", added).
			Update(a.ForeignKey, id).Error; err != nil {
			return nil, nil, fmt.Errorf("add %s members: %w", a.Label, err)
		}
	}
	return added, removed, nil
}

func diffIDs(prior, wanted []uint) (added, removed []uint) {
	had := make(map[uint]struct{}, len(prior))
	for _, id := range prior {
		had[id] = struct{}{}
	}
	want := make(map[uint]struct{}, len(wanted))
	for _, id := range wanted {
		want[id] = struct{}{}
		if _, ok := had[id]; !ok {
			added = append(added, id)
		}
	}
	for _, id := range prior {
		if _, ok := want[id]; !ok {
			removed = append(removed, id)
		}
	}
	sort.Slice(added, func(i, j int) bool { return added[i] < added[j] })
	return added, removed
}

// listRecords читает все записи модели для списка и для вариантов выбора связей.
func listRecords(ctx context.Context, db *gorm.DB, d *Descriptor) ([]*Record, error) {
	rows := d.newSlice()
	if err := scope(db.WithContext(ctx), d).
		Order(d.schema.PrioritizedPrimaryField.DBName + " asc").
		Find(rows).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", d.Name, err)
	}

	slice := d.structValue(rows)
	out := make([]*Record, 0, slice.Len())
	for i := 0; i < slice.Len(); i++ {
		rec := slice.Index(i).Addr().Interface()
		out = append(out, &Record{Model: d, Value: rec, ID: d.idOf(rec)})
	}
	return out, nil
}
