package domain

import (
	"bytes"
	"encoding/json"
	"strings"
)

// FieldError одно отклонённое поле ввода
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError собирает все поля, не прошедшие разбор или проверку инвариантов
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// Has сообщает, было ли поле отклонено
func (e *ValidationError) Has(field string) bool {
	for _, f := range e.Fields {
		if f.Field == field {
			return true
		}
	}
	return false
}

// OrNil возвращает e как ошибку, если есть хотя бы одно поле, иначе nil
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Message)
	}
	return "invalid product: " + strings.Join(parts, "; ")
}

// FormValue сырой текст поля формы. В JSON принимает строку, число или null,
// так что "2.50" и 2.5 равнозначны, а null даёт пустую строку.
type FormValue string

func (v *FormValue) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*v = ""
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = FormValue(s)
	default:
		*v = FormValue(b)
	}
	return nil
}

func (v FormValue) String() string { return strings.TrimSpace(string(v)) }
