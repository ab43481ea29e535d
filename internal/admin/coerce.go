package admin

import (
	"encoding/json"
	"errors"
	"reflect"
	"strconv"
	"strings"
)

// Submission хранит присланные из формы значения: имя поля -> значения.
// Для одиночных полей используется первое значение.
type Submission map[string][]string

func (s Submission) Value(name string) (string, bool) {
	vals, ok := s[name]
	if !ok {
		return "", false
	}
	if len(vals) == 0 {
		return "", true
	}
	return vals[0], true
}

type Mode int

const (
	ModeSave Mode = iota
	ModeSaveAndEdit
)

func (m Mode) String() string {
	if m == ModeSaveAndEdit {
		return "save_and_edit"
	}
	return "save"
}

// assign кладёт присланную строку в поле записи.
// Возвращает текст ошибки поля или "".
func assign(f *Field, dst reflect.Value, raw string) string {
	switch f.Kind {
	case KindString, KindText:
		return setString(dst, raw)
	case KindInteger, KindHasOne:
		return setInteger(dst, strings.TrimSpace(raw), f.Kind == KindHasOne)
	case KindSerializedArray, KindSerializedHash:
		return setSerialized(f, dst, raw)
	}
	return msgInvalid
}

func setString(dst reflect.Value, raw string) string {
	if dst.Kind() == reflect.Ptr {
		s := reflect.New(dst.Type().Elem())
		s.Elem().SetString(raw)
		dst.Set(s)
		return ""
	}
	dst.SetString(raw)
	return ""
}

func setInteger(dst reflect.Value, raw string, nullable bool) string {
	if dst.Kind() == reflect.Ptr {
		if raw == "" {
			dst.Set(reflect.Zero(dst.Type()))
			return ""
		}
		n := reflect.New(dst.Type().Elem())
		if msg := setInteger(n.Elem(), raw, nullable); msg != "" {
			return msg
		}
		dst.Set(n)
		return ""
	}

	if raw == "" {
		if nullable {
			dst.Set(reflect.Zero(dst.Type()))
			return ""
		}
		return msgNotNumber
	}

	switch dst.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(raw, 10, dst.Type().Bits())
		if err != nil {
			return numberError(err)
		}
		dst.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(raw, 10, dst.Type().Bits())
		if err != nil {
			return numberError(err)
		}
		dst.SetUint(n)
	default:
		return msgInvalid
	}
	return ""
}

func numberError(err error) string {
	if errors.Is(err, strconv.ErrRange) {
		return msgOutOfRange
	}
	return msgNotNumber
}

func setSerialized(f *Field, dst reflect.Value, raw string) (msg string) {
	if strings.TrimSpace(raw) == "" {
		dst.Set(reflect.Zero(dst.Type()))
		return ""
	}

	// сериализатор может быть пользовательским, его паника считается обычной ошибкой поля
	defer func() {
		if r := recover(); r != nil {
			msg = msgInvalid
		}
	}()

	v, err := f.Serializer.Parse(raw)
	if err != nil {
		return msgInvalid
	}
	switch f.Kind {
	case KindSerializedArray:
		if _, ok := v.([]any); !ok {
			return msgInvalid
		}
	case KindSerializedHash:
		if _, ok := v.(map[string]any); !ok {
			return msgInvalid
		}
	}

	// null при переводе через JSON молча стал бы нулём
	if hasNull(v) {
		return msgInvalid
	}

	// значение парсера приводится к типу поля через JSON: []any -> []int и т.п.
	b, err := json.Marshal(v)
	if err != nil {
		return msgInvalid
	}
	out := reflect.New(dst.Type())
	if err := json.Unmarshal(b, out.Interface()); err != nil {
		return msgInvalid
	}
	dst.Set(out.Elem())
	return ""
}

func hasNull(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case []any:
		for _, e := range t {
			if hasNull(e) {
				return true
			}
		}
	case map[string]any:
		for _, e := range t {
			if hasNull(e) {
				return true
			}
		}
	}
	return false
}

// parseIDs разбирает список id связи. Пустые строки пропускаются,
// поэтому [""] означает пустой выбор.
func parseIDs(raw []string) ([]uint, bool) {
	ids := make([]uint, 0, len(raw))
	seen := make(map[uint]struct{}, len(raw))
	for _, s := range raw {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		n, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return nil, false
		}
		id := uint(n)
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, true
}

// format возвращает значение поля в том виде, в каком оно стоит в форме.
func format(f *Field, v reflect.Value) string {
	if v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return ""
		}
		v = v.Elem()
	}

	switch f.Kind {
	case KindString, KindText:
		return v.String()
	case KindInteger, KindHasOne:
		switch v.Kind() {
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			return strconv.FormatInt(v.Int(), 10)
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if f.Kind == KindHasOne && v.Uint() == 0 {
				return ""
			}
			return strconv.FormatUint(v.Uint(), 10)
		}
	case KindSerializedArray, KindSerializedHash:
		if (v.Kind() == reflect.Slice || v.Kind() == reflect.Map) && v.IsNil() {
			return ""
		}
		s, err := f.Serializer.Format(v.Interface())
		if err != nil {
			return ""
		}
		return s
	}
	return ""
}

// ParseID достаёт id записи из URL. Как to_i: берутся ведущие цифры, "12-red" -> 12.
func ParseID(raw string) (uint, bool) {
	end := 0
	for end < len(raw) && raw[end] >= '0' && raw[end] <= '9' {
		end++
	}
	if end == 0 {
		return 0, false
	}
	n, err := strconv.ParseUint(raw[:end], 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
