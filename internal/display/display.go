// Package display formats stored values for read-only presentation.
package display

import (
	"fmt"
	"html/template"
	"reflect"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/message"

	"github.com/matthewbaird/exadmin/internal/i18n"
	"github.com/matthewbaird/exadmin/internal/meta"
)

// Time layouts used for timestamps. Values at midnight UTC are shown as
// dates only.
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// BooleanIcon renders a tri-state boolean as an icon element. A nil value
// means unknown.
func BooleanIcon(v *bool, p *message.Printer) template.HTML {
	var icon, class, title string
	switch {
	case v == nil:
		icon, class, title = "fa-question-circle", "muted", p.Sprintf(i18n.MsgUnknown)
	case *v:
		icon, class, title = "fa-check-circle", "text-success", p.Sprintf(i18n.MsgYes)
	default:
		icon, class, title = "fa-times-circle", "text-error", p.Sprintf(i18n.MsgNo)
	}
	return template.HTML(fmt.Sprintf(`<i class="fa %s %s" title="%s"></i>`,
		icon, class, template.HTMLEscapeString(title)))
}

// Bool converts v to a tri-state boolean. Integers are true when non-zero
// and strings are read with strconv.ParseBool. ok is false when v has no
// boolean reading.
func Bool(v any) (b *bool, ok bool) {
	switch x := v.(type) {
	case nil:
		return nil, true
	case bool:
		return &x, true
	case *bool:
		return x, true
	case string:
		parsed, err := strconv.ParseBool(x)
		if err != nil {
			return nil, false
		}
		return &parsed, true
	}
	rv := reflect.ValueOf(v)
	var t bool
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		t = rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		t = rv.Uint() != 0
	default:
		return nil, false
	}
	return &t, true
}

// ForField formats the stored value of a model field. safe reports that
// text is already HTML and must not be escaped again. Relations are not
// handled here; their values are resolved by the caller.
func ForField(v any, f *meta.Field, p *message.Printer) (text string, safe bool) {
	if f.IsBool() {
		if b, ok := Bool(v); ok {
			return string(BooleanIcon(b, p)), true
		}
	}
	if v == nil {
		return "", false
	}
	if len(f.Choices) > 0 {
		if s, ok := v.(string); ok {
			if label := f.ChoiceLabel(s); label != "" {
				return label, false
			}
		}
	}
	return Value(v), false
}

// Value formats a value that carries no field metadata.
func Value(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return Time(x)
	case *time.Time:
		if x == nil {
			return ""
		}
		return Time(*x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case uuid.UUID:
		return x.String()
	case []byte:
		return string(x)
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}

// Time formats t as a date when it falls on midnight UTC, otherwise as a
// date and time in UTC.
func Time(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(DateLayout)
	}
	return u.Format(DateTimeLayout)
}
