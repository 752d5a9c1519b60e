// Package errors описывает таксономию ошибок ядра: вид ошибки, сообщение
// и контекст с идентификаторами и значениями, из-за которых операция отклонена.
package errors

import (
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// ============================================================
// Kinds
// ============================================================

type Kind string

const (
	KindInvalidGeometry  Kind = "InvalidGeometry"
	KindOpeningConflict  Kind = "OpeningConflict"
	KindJoineryConflict  Kind = "JoineryConflict"
	KindElementNotFound  Kind = "ElementNotFound"
	KindTemplateNotFound Kind = "TemplateNotFound"
	KindInvalidParams    Kind = "InvalidParams"
)

// ============================================================
// Error
// ============================================================

// Error: ошибка ядра. Context несет значения для вызывающей стороны
// (какие стены, на сколько), чтобы она могла повторить с другими параметрами.
type Error struct {
	Kind    Kind           `json:"kind"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`
	Cause   error          `json:"-"`
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		b.WriteString(" (")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString(")")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// With добавляет поле контекста.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(err error, kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Cause: err}
}

// ============================================================
// Helpers
// ============================================================

// KindOf возвращает вид ошибки ядра или пустую строку для чужих ошибок.
func KindOf(err error) Kind {
	var ke *Error
	if stderrors.As(err, &ke) {
		return ke.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func NotFound(id string) *Error {
	return New(KindElementNotFound, "element not found").With("id", id)
}
