// Package form turns server-described field recipes into editable Field
// state and edited state back into operation request bodies.
//
// Every function here is pure: fields are values, every edit returns a new
// Field, and nothing touches the network. Operation (operation.go) is the
// only part that talks to a transport.
package form

import (
	"encoding/json"
	"math"
	"strings"

	"github.com/alfredjeanlab/lots/internal/model"
)

// CaptchaResponseParam is the top-level body key carrying the caller's
// captcha answer. It is never part of the field set.
const CaptchaResponseParam = "captcha_response"

// Hydrate merges a recipe with values already known client-side. Prior
// values win over recipe data when non-null and apply to extended fields by
// key as well. Extended fields of choices left unselected are cleared.
// Only Data changes; the recipe itself is never mutated.
func Hydrate(recipe []model.Field, prior map[string]json.RawMessage) []model.Field {
	return mapFields(recipe, func(f model.Field) model.Field {
		return hydrateField(f, prior)
	})
}

func hydrateField(f model.Field, prior map[string]json.RawMessage) model.Field {
	f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
		c.ExtendedFields = Hydrate(c.ExtendedFields, prior)
		return c
	})
	if v, ok := prior[f.Key]; ok && !model.IsNull(v) {
		f = withData(f, v)
	}
	return clearUnselected(widgetFor(f.Widget).normalize(f))
}

// Rehydrate merges a re-rendered recipe with the current field tree. Each
// recipe field takes the non-null data of the current field at the same
// path, and each extended field is matched through its parent's choice code,
// so values under different choices never mix. Errors stay as the recipe
// sent them.
func Rehydrate(recipe, current []model.Field) []model.Field {
	return mapFields(recipe, func(f model.Field) model.Field {
		cur, ok := Find(current, f.Key)
		if !ok {
			return hydrateField(f, nil)
		}
		if cur.Data != nil && !IsPresentational(cur) {
			f = withData(f, cur.Data)
		}
		f = widgetFor(f.Widget).normalize(f)
		f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
			var curExt []model.Field
			if cc := cur.Choice(c.Code); cc != nil {
				curExt = cc.ExtendedFields
			}
			c.ExtendedFields = Rehydrate(c.ExtendedFields, curExt)
			return c
		})
		return clearUnselected(f)
	})
}

// Edit returns a copy of f with newData applied according to its widget:
// scalar widgets take the value, checkboxGroup and deliveryMethods toggle the
// given code, radioGroup and select switch the selected code. Extended fields
// of a choice that stops being selected are cleared.
func Edit(f model.Field, newData json.RawMessage) model.Field {
	return widgetFor(f.Widget).edit(f, newData)
}

// Toggle flips a checkbox between null and its "on" value. The on value is 0
// for fields declaring a numeric validator and true otherwise.
func Toggle(f model.Field) model.Field {
	if f.Data != nil {
		f.Data = nil
		return f
	}
	if f.HasValidator(model.ValidatorNumeric) {
		f.Data = json.RawMessage("0")
	} else {
		f.Data = json.RawMessage("true")
	}
	return f
}

// EditExtended edits the extended field key of the choice identified by code.
// f is returned unchanged when either does not exist.
func EditExtended(f model.Field, code json.RawMessage, key string, newData json.RawMessage) model.Field {
	return mapChoice(f, code, func(c model.Choice) model.Choice {
		c.ExtendedFields = mapFields(c.ExtendedFields, func(ext model.Field) model.Field {
			if ext.Key == key {
				ext = Edit(ext, newData)
			}
			return ext
		})
		return c
	})
}

// Selected reports whether f has a value. A null/non-null duality, not a
// boolean flag, is what marks a field as selected.
func Selected(f model.Field) bool {
	return f.Data != nil
}

// SelectedCodes returns the codes currently selected in a choice field.
func SelectedCodes(f model.Field) []json.RawMessage {
	switch kindOf(f.Data) {
	case kindArray:
		return decodeArray(f.Data)
	case kindScalar:
		return []json.RawMessage{f.Data}
	}
	return nil
}

// IsPresentational reports whether f only exists to be shown, such as a
// captcha preview image. Such fields are never echoed back.
func IsPresentational(f model.Field) bool {
	return f.Widget == model.WidgetHidden && strings.HasPrefix(f.Key, "captcha")
}

// IsMandatory reports whether the mandatory marker should be shown. It
// depends on validators only, so edits never change it.
func IsMandatory(f model.Field) bool {
	return f.HasValidator(model.ValidatorMandatory)
}

// MaxLength returns the declared "max" parameter, used for character counters.
func MaxLength(f model.Field) (int, bool) {
	for _, v := range f.Validators {
		if v.Type != model.ValidatorMax {
			continue
		}
		switch n := v.Parameters["max"].(type) {
		case float64:
			return int(math.Floor(n)), true
		case int:
			return n, true
		case json.Number:
			if i, err := n.Int64(); err == nil {
				return int(i), true
			}
		}
	}
	return 0, false
}

// Serialize builds an operation request body from fields. Fields with null
// data and presentational fields are omitted.
func Serialize(fields []model.Field) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage, len(fields))
	serializeInto(fields, out)
	return out
}

func serializeInto(fields []model.Field, out map[string]json.RawMessage) {
	for _, f := range fields {
		if IsPresentational(f) {
			continue
		}
		widgetFor(f.Widget).serialize(f, out)
	}
}

// Values returns the data of every non-null field and extended field keyed
// by bare field key, in the shape Hydrate takes as prior. Extended fields
// sharing a key under different choices collapse to one entry; Rehydrate
// keeps them apart.
func Values(fields []model.Field) map[string]json.RawMessage {
	out := make(map[string]json.RawMessage)
	var walk func(fields []model.Field)
	walk = func(fields []model.Field) {
		for _, f := range fields {
			if f.Data != nil && !IsPresentational(f) {
				out[f.Key] = f.Data
			}
			for _, c := range f.Choices {
				walk(c.ExtendedFields)
			}
		}
	}
	walk(fields)
	return out
}

// ApplyErrors replaces each field's errors with perPath[path], where path is
// model.FieldPath of the field (its key at the top level). Fields absent from
// the map have their errors cleared. Extended fields are included.
func ApplyErrors(fields []model.Field, perPath map[string][]string) []model.Field {
	return applyErrors(fields, "", nil, perPath)
}

func applyErrors(fields []model.Field, parent string, code json.RawMessage, perPath map[string][]string) []model.Field {
	return mapFields(fields, func(f model.Field) model.Field {
		path := model.FieldPath(parent, code, f.Key)
		f.Errors = nil
		if msgs := perPath[path]; len(msgs) > 0 {
			f.Errors = append([]string(nil), msgs...)
		}
		f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
			c.ExtendedFields = applyErrors(c.ExtendedFields, path, c.Code, perPath)
			return c
		})
		return f
	})
}

// Find returns the top-level field with the given key.
func Find(fields []model.Field, key string) (model.Field, bool) {
	for _, f := range fields {
		if f.Key == key {
			return f, true
		}
	}
	return model.Field{}, false
}

// Replace returns a copy of fields with the field keyed f.Key replaced by f.
func Replace(fields []model.Field, f model.Field) []model.Field {
	return mapFields(fields, func(old model.Field) model.Field {
		if old.Key == f.Key {
			return f
		}
		return old
	})
}

// --- copy-on-write helpers ---

func mapFields(fields []model.Field, fn func(model.Field) model.Field) []model.Field {
	if fields == nil {
		return nil
	}
	out := make([]model.Field, len(fields))
	for i, f := range fields {
		out[i] = fn(f)
	}
	return out
}

func mapChoices(choices []model.Choice, fn func(model.Choice) model.Choice) []model.Choice {
	if choices == nil {
		return nil
	}
	out := make([]model.Choice, len(choices))
	for i, c := range choices {
		out[i] = fn(c)
	}
	return out
}

func mapChoice(f model.Field, code json.RawMessage, fn func(model.Choice) model.Choice) model.Field {
	if f.Choice(code) == nil {
		return f
	}
	f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
		if model.SameJSON(c.Code, code) {
			return fn(c)
		}
		return c
	})
	return f
}

// clearChoice nulls the extended fields of the choice identified by code.
func clearChoice(f model.Field, code json.RawMessage) model.Field {
	return mapChoice(f, code, func(c model.Choice) model.Choice {
		c.ExtendedFields = clearFields(c.ExtendedFields)
		return c
	})
}

// clearUnselected nulls the extended fields of every choice f does not
// currently select.
func clearUnselected(f model.Field) model.Field {
	if len(f.Choices) == 0 {
		return f
	}
	selected := SelectedCodes(f)
	f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
		if indexOf(selected, c.Code) < 0 {
			c.ExtendedFields = clearFields(c.ExtendedFields)
		}
		return c
	})
	return f
}

func clearFields(fields []model.Field) []model.Field {
	return mapFields(fields, func(f model.Field) model.Field {
		f.Data = nil
		f.Choices = mapChoices(f.Choices, func(c model.Choice) model.Choice {
			c.ExtendedFields = clearFields(c.ExtendedFields)
			return c
		})
		return f
	})
}

func withData(f model.Field, data json.RawMessage) model.Field {
	f.Data = data
	return f
}
