package admin

import (
	"fmt"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Kind задаёт закрытый набор видов полей, поведение выбирается через switch.
type Kind int

const (
	KindAuto Kind = iota
	KindString
	KindText
	KindInteger
	KindSerializedArray
	KindSerializedHash
	KindHasOne
	KindHasMany

	// KindSerialized при регистрации превращается в массив или хеш по типу поля
	KindSerialized
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindText:
		return "text"
	case KindInteger:
		return "integer"
	case KindSerializedArray:
		return "serialized_array"
	case KindSerializedHash:
		return "serialized_hash"
	case KindHasOne:
		return "has_one"
	case KindHasMany:
		return "has_many"
	case KindSerialized:
		return "serialized"
	default:
		return "auto"
	}
}

func (k Kind) Serialized() bool {
	return k == KindSerializedArray || k == KindSerializedHash
}

func (k Kind) Association() bool {
	return k == KindHasOne || k == KindHasMany
}

// Association описывает связь поля с другой моделью.
// Для has-one внешний ключ лежит в самой записи (колонка поля),
// для has-many либо ForeignKey в таблице цели, либо таблица связей.
type Association struct {
	Model string
	Label string

	ForeignKey string

	JoinTable      string
	JoinForeignKey string
	JoinReferences string
}

func (a *Association) joined() bool { return a.JoinTable != "" }

type Field struct {
	Name   string
	Label  string
	Kind   Kind
	Column string
	Hidden bool
	Unique bool

	Serializer  Serializer
	Association *Association

	schemaField *schema.Field
}

// Definition описывает модель, из которой регистрируется Descriptor.
type Definition struct {
	Name        string
	Label       string
	PluralLabel string
	Model       any
	TitleField  string

	// STI: родительская модель и значение колонки type для подтипа
	Parent              string
	Discriminator       string
	DiscriminatorColumn string

	// подтипы без собственного списка полей наследуют поля родителя
	Fields []Field
}

type Descriptor struct {
	Name        string
	Label       string
	PluralLabel string
	Table       string
	TitleField  string

	Parent              *Descriptor
	Children            []*Descriptor
	Discriminator       string
	DiscriminatorColumn string

	Fields []*Field

	defs      []Field
	modelType reflect.Type
	schema    *schema.Schema
}

// New возвращает указатель на пустую gorm-модель дескриптора.
func (d *Descriptor) New() any {
	return reflect.New(d.modelType).Interface()
}

func (d *Descriptor) newSlice() any {
	return reflect.New(reflect.SliceOf(d.modelType)).Interface()
}

func (d *Descriptor) Field(name string) *Field {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (d *Descriptor) Root() *Descriptor {
	root := d
	for root.Parent != nil {
		root = root.Parent
	}
	return root
}

func (d *Descriptor) discriminatorColumn() string {
	if col := d.Root().DiscriminatorColumn; col != "" {
		return col
	}
	return "type"
}

func (d *Descriptor) IndexPath() string {
	return "/admin/" + d.Name
}

// RecordPath экранирует param: ToParam может вернуть "/", "?" или "#".
func (d *Descriptor) RecordPath(param string) string {
	return "/admin/" + d.Name + "/" + url.PathEscape(param)
}

func (d *Descriptor) EditPath(param string) string {
	return d.RecordPath(param) + "/edit"
}

func (d *Descriptor) structValue(rec any) reflect.Value {
	return reflect.Indirect(reflect.ValueOf(rec))
}

func (d *Descriptor) idOf(rec any) uint {
	pk := d.schema.PrioritizedPrimaryField
	v := d.structValue(rec).FieldByIndex(pk.StructField.Index)
	return uint(v.Uint())
}

func (d *Descriptor) columnValue(rec any, column string) (reflect.Value, bool) {
	sf := d.schema.LookUpField(column)
	if sf == nil {
		return reflect.Value{}, false
	}
	return d.structValue(rec).FieldByIndex(sf.StructField.Index), true
}

func (d *Descriptor) titleOf(rec any) string {
	if d.TitleField != "" {
		if v, ok := d.columnValue(rec, d.TitleField); ok {
			if s := fmt.Sprint(v.Interface()); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%s #%d", d.Label, d.idOf(rec))
}

// Paramer переопределяет сегмент URL записи, например "12-red".
type Paramer interface {
	ToParam() string
}

func (d *Descriptor) paramOf(rec any) string {
	if p, ok := rec.(Paramer); ok {
		return p.ToParam()
	}
	return fmt.Sprint(d.idOf(rec))
}

func (f *Field) value(rec any) reflect.Value {
	return reflect.Indirect(reflect.ValueOf(rec)).FieldByIndex(f.schemaField.StructField.Index)
}

// Registry: имя модели -> дескриптор. Заполняется один раз при старте.
type Registry struct {
	db    *gorm.DB
	cache *sync.Map

	order  []string
	models map[string]*Descriptor
}

func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{
		db:     db,
		cache:  &sync.Map{},
		models: make(map[string]*Descriptor),
	}
}

func (r *Registry) Lookup(name string) (*Descriptor, error) {
	d, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
	}
	return d, nil
}

// All возвращает дескрипторы в порядке регистрации.
func (r *Registry) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.models[name])
	}
	return out
}

func (r *Registry) Register(def Definition) (*Descriptor, error) {
	if def.Name == "" || def.Model == nil {
		return nil, fmt.Errorf("register model: name and model are required")
	}
	if _, exists := r.models[def.Name]; exists {
		return nil, fmt.Errorf("register model %s: already registered", def.Name)
	}

	sch, err := schema.Parse(def.Model, r.cache, r.db.NamingStrategy)
	if err != nil {
		return nil, fmt.Errorf("register model %s: parse schema: %w", def.Name, err)
	}
	if sch.PrioritizedPrimaryField == nil {
		return nil, fmt.Errorf("register model %s: no primary key", def.Name)
	}
	switch sch.PrioritizedPrimaryField.FieldType.Kind() {
	case reflect.Uint, reflect.Uint32, reflect.Uint64:
	default:
		return nil, fmt.Errorf("register model %s: primary key must be unsigned integer", def.Name)
	}

	d := &Descriptor{
		Name:                def.Name,
		Label:               def.Label,
		PluralLabel:         def.PluralLabel,
		Table:               sch.Table,
		TitleField:          def.TitleField,
		Discriminator:       def.Discriminator,
		DiscriminatorColumn: def.DiscriminatorColumn,
		modelType:           reflect.Indirect(reflect.ValueOf(def.Model)).Type(),
		schema:              sch,
	}
	if d.Label == "" {
		d.Label = humanize(def.Name)
	}
	if d.PluralLabel == "" {
		d.PluralLabel = d.Label + "s"
	}

	defs := def.Fields
	if def.Parent != "" {
		parent, ok := r.models[def.Parent]
		if !ok {
			return nil, fmt.Errorf("register model %s: parent %s is not registered", def.Name, def.Parent)
		}
		if def.Discriminator == "" {
			return nil, fmt.Errorf("register model %s: subtype needs a discriminator", def.Name)
		}
		d.Parent = parent
		if defs == nil {
			defs = parent.defs
		}
		if d.TitleField == "" {
			d.TitleField = parent.TitleField
		}
	}

	for _, fd := range defs {
		f, err := r.resolveField(sch, fd)
		if err != nil {
			return nil, fmt.Errorf("register model %s: %w", def.Name, err)
		}
		d.Fields = append(d.Fields, f)
	}
	d.defs = defs

	if d.Parent != nil {
		d.Parent.Children = append(d.Parent.Children, d)
	}
	r.models[d.Name] = d
	r.order = append(r.order, d.Name)
	return d, nil
}

func (r *Registry) resolveField(sch *schema.Schema, fd Field) (*Field, error) {
	f := fd
	if f.Label == "" {
		f.Label = humanize(f.Name)
		if f.Kind == KindHasMany {
			f.Label += "s"
		}
	}

	if f.Kind == KindHasMany {
		if f.Association == nil || f.Association.Model == "" {
			return nil, fmt.Errorf("field %s: has-many needs an association target", f.Name)
		}
		a := *f.Association
		if a.ForeignKey == "" && !a.joined() {
			return nil, fmt.Errorf("field %s: has-many needs a foreign key or a join table", f.Name)
		}
		if a.Label == "" {
			a.Label = f.Label
		}
		f.Association = &a
		return &f, nil
	}

	if f.Column == "" {
		f.Column = f.Name
	}
	sf := sch.LookUpField(f.Column)
	if sf == nil {
		return nil, fmt.Errorf("field %s: no column %s", f.Name, f.Column)
	}
	f.Column = sf.DBName
	f.schemaField = sf

	kind, err := inferKind(f.Kind, sf.FieldType)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	f.Kind = kind

	if f.Kind == KindHasOne {
		if f.Association == nil || f.Association.Model == "" {
			return nil, fmt.Errorf("field %s: has-one needs an association target", f.Name)
		}
		a := *f.Association
		a.ForeignKey = f.Column
		if a.Label == "" {
			a.Label = f.Label
		}
		f.Association = &a
	}
	if f.Kind.Serialized() && f.Serializer == nil {
		f.Serializer = YAMLSerializer{}
	}
	return &f, nil
}

// Validate проверяет, что все цели связей зарегистрированы.
func (r *Registry) Validate() error {
	for _, d := range r.All() {
		for _, f := range d.Fields {
			if f.Association == nil {
				continue
			}
			if _, ok := r.models[f.Association.Model]; !ok {
				return fmt.Errorf("model %s field %s: unknown association target %s", d.Name, f.Name, f.Association.Model)
			}
		}
	}
	return nil
}

func inferKind(k Kind, t reflect.Type) (Kind, error) {
	base := t
	if base.Kind() == reflect.Ptr {
		base = base.Elem()
	}

	switch k {
	case KindAuto:
		switch base.Kind() {
		case reflect.String:
			return KindString, nil
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			return KindInteger, nil
		case reflect.Slice, reflect.Array:
			return KindSerializedArray, nil
		case reflect.Map:
			return KindSerializedHash, nil
		}
		return 0, fmt.Errorf("cannot infer kind for %s", t)
	case KindSerialized:
		switch base.Kind() {
		case reflect.Slice, reflect.Array:
			return KindSerializedArray, nil
		case reflect.Map:
			return KindSerializedHash, nil
		}
		return 0, fmt.Errorf("serialized field must be a slice or a map, got %s", t)
	case KindString, KindText:
		if base.Kind() != reflect.String {
			return 0, fmt.Errorf("%s field must be a string, got %s", k, t)
		}
	case KindInteger, KindHasOne:
		if !isInteger(base.Kind()) {
			return 0, fmt.Errorf("%s field must be an integer, got %s", k, t)
		}
	case KindSerializedArray:
		if base.Kind() != reflect.Slice && base.Kind() != reflect.Array {
			return 0, fmt.Errorf("%s field must be a slice, got %s", k, t)
		}
	case KindSerializedHash:
		if base.Kind() != reflect.Map {
			return 0, fmt.Errorf("%s field must be a map, got %s", k, t)
		}
	}
	return k, nil
}

func isInteger(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

// humanize: "draft_id" -> "Draft", "hash_field" -> "Hash field"
func humanize(name string) string {
	name = strings.TrimSuffix(name, "_ids")
	name = strings.TrimSuffix(name, "_id")
	name = strings.ReplaceAll(name, "_", " ")
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}
