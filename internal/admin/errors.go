package admin

import (
	"errors"
	"net/http"
	"sort"
	"strings"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrUnknownModel = errors.New("unknown model")
)

// StatusValidationFailed: статус повторного показа формы с ошибками.
const StatusValidationFailed = http.StatusNotAcceptable

const (
	msgBlank      = "can't be blank"
	msgNotNumber  = "is not a number"
	msgInvalid    = "is not valid"
	msgTaken      = "has already been taken"
	msgOutOfRange = "is out of range"
)

// FieldErrors: имя поля -> сообщения. Ошибки без поля лежат под ключом "".
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, msg string) {
	for _, m := range fe[field] {
		if m == msg {
			return
		}
	}
	fe[field] = append(fe[field], msg)
}

func (fe FieldErrors) Has(field string) bool {
	return len(fe[field]) > 0
}

// ValidationError возвращается из ApplyUpdate, когда запись не прошла проверку.
// Несёт присланные значения, чтобы форму можно было показать заново.
type ValidationError struct {
	Model      *Descriptor
	Record     *Record
	Submission Submission
	Errors     FieldErrors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Errors))
	for k := range e.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		for _, m := range e.Errors[k] {
			if k == "" {
				parts = append(parts, m)
				continue
			}
			parts = append(parts, k+" "+m)
		}
	}
	return e.Model.Label + " failed to be updated: " + strings.Join(parts, ", ")
}
