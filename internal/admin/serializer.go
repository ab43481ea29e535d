package admin

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Serializer переводит текст из формы в значение поля и обратно.
// Пустой ввод до сериализатора не доходит: он всегда очищает поле.
type Serializer interface {
	Parse(raw string) (any, error)
	Format(v any) (string, error)
}

// YAMLSerializer понимает литералы вида "[4, 2]", "{ a: 6, b: 2 }"
// и "['admin', 'user']". Выводит JSON, который YAML читает обратно.
type YAMLSerializer struct{}

func (YAMLSerializer) Parse(raw string) (v any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("parse serialized value: %v", r)
		}
	}()
	if err := yaml.Unmarshal([]byte(spaceFlowColons(raw)), &v); err != nil {
		return nil, fmt.Errorf("parse serialized value: %w", err)
	}
	return v, nil
}

// spaceFlowColons добавляет пробел после ':' внутри [...] и {...} вне кавычек,
// чтобы "{a:6,b:2}" читался как пары ключ-значение, а не как строки "a:6".
func spaceFlowColons(raw string) string {
	var b strings.Builder
	b.Grow(len(raw) + 8)
	depth := 0
	var quote rune
	runes := []rune(raw)
	for i, r := range runes {
		b.WriteRune(r)
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			if depth > 0 {
				depth--
			}
		case r == ':' && depth > 0:
			if i+1 < len(runes) && runes[i+1] != ' ' && runes[i+1] != '\t' {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}

func (YAMLSerializer) Format(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("format serialized value: %w", err)
	}
	return string(b), nil
}

// JSONSerializer строже YAML и принимает только JSON.
type JSONSerializer struct{}

func (JSONSerializer) Parse(raw string) (any, error) {
	var v any
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse serialized value: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("parse serialized value: trailing data")
	}
	return v, nil
}

func (JSONSerializer) Format(v any) (string, error) {
	return YAMLSerializer{}.Format(v)
}

// SerializerByName используется конфигурацией: "yaml" (по умолчанию) или "json".
func SerializerByName(name string) (Serializer, error) {
	switch strings.ToLower(name) {
	case "", "yaml":
		return YAMLSerializer{}, nil
	case "json":
		return JSONSerializer{}, nil
	}
	return nil, fmt.Errorf("unknown serializer %q", name)
}
