package model

import (
	"bytes"
	"encoding/json"
)

// WidgetType identifies how a dynamic form field is edited and serialized.
type WidgetType string

const (
	WidgetInput           WidgetType = "input"
	WidgetTextArea        WidgetType = "textArea"
	WidgetHidden          WidgetType = "hidden"
	WidgetFile            WidgetType = "file"
	WidgetCheckbox        WidgetType = "checkbox"
	WidgetCheckboxGroup   WidgetType = "checkboxGroup"
	WidgetRadioGroup      WidgetType = "radioGroup"
	WidgetSelect          WidgetType = "select"
	WidgetDeliveryMethods WidgetType = "deliveryMethods"
	WidgetAttachment      WidgetType = "attachment"
)

// String returns the string representation of the widget type.
func (w WidgetType) String() string {
	return string(w)
}

// IsValid checks whether the widget type is a known value.
func (w WidgetType) IsValid() bool {
	switch w {
	case WidgetInput, WidgetTextArea, WidgetHidden, WidgetFile, WidgetCheckbox,
		WidgetCheckboxGroup, WidgetRadioGroup, WidgetSelect, WidgetDeliveryMethods,
		WidgetAttachment:
		return true
	}
	return false
}

// IsMulti reports whether the widget's data is a JSON array.
func (w WidgetType) IsMulti() bool {
	return w == WidgetCheckboxGroup || w == WidgetDeliveryMethods
}

// Validator types sent by the server.
const (
	ValidatorMandatory = "mandatory"
	ValidatorMax       = "max"
	ValidatorNumeric   = "numeric"
	ValidatorBoolean   = "boolean"
)

// Validator is an advisory constraint on a field. Authoritative validation
// happens on the server and arrives as Field.Errors.
type Validator struct {
	Type       string         `json:"type"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Choice is one selectable option of a choice-based field.
type Choice struct {
	Code           json.RawMessage `json:"code"`
	Name           string          `json:"name"`
	Weight         *float64        `json:"weight,omitempty"`
	ExtendedFields []Field         `json:"extended_fields,omitempty"`
}

// Field is one unit of a server-described form. Fields are values: every
// edit produces a new Field and nothing is mutated in place.
type Field struct {
	Key              string          `json:"key"`
	Widget           WidgetType      `json:"widget_type"`
	Data             json.RawMessage `json:"data,omitempty"` // nil means JSON null
	Choices          []Choice        `json:"choices,omitempty"`
	Validators       []Validator     `json:"validators,omitempty"`
	Errors           []string        `json:"errors,omitempty"`
	ShortDescription string          `json:"short_description,omitempty"`
	LongDescription  string          `json:"long_description,omitempty"`
}

// HasValidator reports whether the field declares a validator of the given type.
func (f Field) HasValidator(typ string) bool {
	for _, v := range f.Validators {
		if v.Type == typ {
			return true
		}
	}
	return false
}

// Choice returns the choice whose code equals code, or nil.
func (f Field) Choice(code json.RawMessage) *Choice {
	for i := range f.Choices {
		if SameJSON(f.Choices[i].Code, code) {
			return &f.Choices[i]
		}
	}
	return nil
}

// IsNull reports whether raw is absent or the JSON literal null.
func IsNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// SameJSON compares two JSON values by their compacted encoding, so that
// 5 and " 5" match but 5 and "5" do not.
func SameJSON(a, b json.RawMessage) bool {
	if IsNull(a) || IsNull(b) {
		return IsNull(a) && IsNull(b)
	}
	var ca, cb bytes.Buffer
	if json.Compact(&ca, a) != nil || json.Compact(&cb, b) != nil {
		return bytes.Equal(a, b)
	}
	return bytes.Equal(ca.Bytes(), cb.Bytes())
}

// FieldPath names a field by its position in a recipe tree. A top-level
// field is its key; an extended field is "<parent path>[<choice code>].<key>",
// so extended fields sharing a key under different choices stay distinct.
func FieldPath(parent string, code json.RawMessage, key string) string {
	if parent == "" {
		return key
	}
	var b bytes.Buffer
	if json.Compact(&b, code) != nil {
		b.Reset()
		b.Write(bytes.TrimSpace(code))
	}
	return parent + "[" + b.String() + "]." + key
}
