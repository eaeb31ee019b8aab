package form

import (
	"bytes"
	"encoding/json"

	"github.com/alfredjeanlab/lots/internal/model"
)

// widget is the per-kind behaviour of a field. The set of implementations is
// closed; widgetFor is the only place a WidgetType is branched on.
type widget interface {
	// normalize coerces hydrated data to the widget's shape, dropping
	// non-conforming data to nil.
	normalize(f model.Field) model.Field
	// edit returns f with data applied.
	edit(f model.Field, data json.RawMessage) model.Field
	// serialize writes f's wire representation into out.
	serialize(f model.Field, out map[string]json.RawMessage)
	sealed()
}

func widgetFor(t model.WidgetType) widget {
	switch t {
	case model.WidgetInput, model.WidgetTextArea, model.WidgetFile, model.WidgetAttachment:
		return scalarWidget{}
	case model.WidgetHidden:
		return hiddenWidget{}
	case model.WidgetCheckbox:
		return checkboxWidget{}
	case model.WidgetCheckboxGroup:
		return groupWidget{}
	case model.WidgetRadioGroup, model.WidgetSelect:
		return choiceWidget{}
	case model.WidgetDeliveryMethods:
		return deliveryWidget{}
	default:
		return scalarWidget{}
	}
}

// --- scalar: input, textArea, file, attachment ---

type scalarWidget struct{}

func (scalarWidget) sealed() {}

func (scalarWidget) normalize(f model.Field) model.Field {
	f.Data = scalarOrNil(f.Data)
	return f
}

func (scalarWidget) edit(f model.Field, data json.RawMessage) model.Field {
	f.Data = scalarOrNil(data)
	return f
}

func (scalarWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data != nil {
		out[f.Key] = f.Data
	}
}

// --- hidden: any server-provided value, echoed verbatim ---

type hiddenWidget struct{}

func (hiddenWidget) sealed() {}

func (hiddenWidget) normalize(f model.Field) model.Field {
	f.Data = compact(f.Data)
	return f
}

func (hiddenWidget) edit(f model.Field, data json.RawMessage) model.Field {
	f.Data = compact(data)
	return f
}

func (hiddenWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data != nil {
		out[f.Key] = f.Data
	}
}

// --- checkbox: selected is "data != null" ---

type checkboxWidget struct{}

func (checkboxWidget) sealed() {}

func (checkboxWidget) normalize(f model.Field) model.Field {
	f.Data = scalarOrNil(f.Data)
	return f
}

func (checkboxWidget) edit(f model.Field, data json.RawMessage) model.Field {
	f.Data = scalarOrNil(data)
	return f
}

func (checkboxWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data != nil {
		out[f.Key] = f.Data
	}
}

// --- checkboxGroup: array of codes, edit toggles one code ---

type groupWidget struct{}

func (groupWidget) sealed() {}

func (groupWidget) normalize(f model.Field) model.Field {
	f.Data = arrayOrNil(f.Data)
	return f
}

func (groupWidget) edit(f model.Field, data json.RawMessage) model.Field {
	switch kindOf(data) {
	case kindNull:
		f.Data = nil
	case kindArray:
		f.Data = arrayOrNil(data)
	case kindObject:
		// not a code; ignored
	default:
		codes, _ := toggleCode(decodeArray(f.Data), data)
		f.Data = encodeArray(codes)
	}
	return f
}

func (groupWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data != nil {
		out[f.Key] = f.Data
	}
}

// --- radioGroup, select: one code; extended fields follow the selection ---

type choiceWidget struct{}

func (choiceWidget) sealed() {}

func (choiceWidget) normalize(f model.Field) model.Field {
	f.Data = scalarOrNil(f.Data)
	return f
}

func (choiceWidget) edit(f model.Field, data json.RawMessage) model.Field {
	next := scalarOrNil(data)
	if f.Data != nil && !model.SameJSON(f.Data, next) {
		f = clearChoice(f, f.Data)
	}
	f.Data = next
	return f
}

func (choiceWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data == nil {
		return
	}
	out[f.Key] = f.Data
	if c := f.Choice(f.Data); c != nil {
		serializeInto(c.ExtendedFields, out)
	}
}

// --- deliveryMethods: array of codes, each carrying its own extended fields ---

type deliveryWidget struct{}

func (deliveryWidget) sealed() {}

// normalize accepts either plain codes or the serialized object form
// [{"code":…, "<ext key>":…}], moving object members into the matching
// choice's extended fields.
func (deliveryWidget) normalize(f model.Field) model.Field {
	if kindOf(f.Data) != kindArray {
		f.Data = nil
		return f
	}
	var codes []json.RawMessage
	for _, item := range decodeArray(f.Data) {
		switch kindOf(item) {
		case kindObject:
			var obj map[string]json.RawMessage
			if json.Unmarshal(item, &obj) != nil {
				continue
			}
			code, ok := obj["code"]
			if !ok || model.IsNull(code) {
				continue
			}
			delete(obj, "code")
			codes = append(codes, compact(code))
			if len(obj) > 0 {
				f = mapChoice(f, code, func(c model.Choice) model.Choice {
					c.ExtendedFields = mapFields(c.ExtendedFields, func(ext model.Field) model.Field {
						if v, ok := obj[ext.Key]; ok && !model.IsNull(v) {
							ext = widgetFor(ext.Widget).normalize(withData(ext, v))
						}
						return ext
					})
					return c
				})
			}
		case kindNull, kindArray:
			// dropped
		default:
			codes = append(codes, compact(item))
		}
	}
	f.Data = encodeArray(codes)
	return f
}

func (deliveryWidget) edit(f model.Field, data json.RawMessage) model.Field {
	prev := decodeArray(f.Data)
	var next []json.RawMessage
	switch kindOf(data) {
	case kindNull:
	case kindArray:
		next = decodeArray(arrayOrNil(data))
	case kindObject:
		return f
	default:
		next, _ = toggleCode(prev, data)
	}
	for _, code := range prev {
		if indexOf(next, code) < 0 {
			f = clearChoice(f, code)
		}
	}
	f.Data = encodeArray(next)
	return f
}

func (deliveryWidget) serialize(f model.Field, out map[string]json.RawMessage) {
	if f.Data == nil {
		return
	}
	codes := decodeArray(f.Data)
	items := make([]map[string]json.RawMessage, 0, len(codes))
	for _, code := range codes {
		item := map[string]json.RawMessage{"code": code}
		if c := f.Choice(code); c != nil {
			serializeInto(c.ExtendedFields, item)
		}
		items = append(items, item)
	}
	data, err := json.Marshal(items)
	if err != nil {
		return
	}
	out[f.Key] = data
}

// --- JSON helpers ---

type jsonKind int

const (
	kindNull jsonKind = iota
	kindScalar
	kindArray
	kindObject
)

func kindOf(raw json.RawMessage) jsonKind {
	if model.IsNull(raw) {
		return kindNull
	}
	switch bytes.TrimSpace(raw)[0] {
	case '[':
		return kindArray
	case '{':
		return kindObject
	}
	return kindScalar
}

func compact(raw json.RawMessage) json.RawMessage {
	if model.IsNull(raw) {
		return nil
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return nil
	}
	return json.RawMessage(buf.Bytes())
}

func scalarOrNil(raw json.RawMessage) json.RawMessage {
	if kindOf(raw) != kindScalar {
		return nil
	}
	return compact(raw)
}

// arrayOrNil returns raw compacted if it is a non-empty array of scalars.
func arrayOrNil(raw json.RawMessage) json.RawMessage {
	if kindOf(raw) != kindArray {
		return nil
	}
	var out []json.RawMessage
	for _, item := range decodeArray(raw) {
		if kindOf(item) != kindScalar {
			return nil
		}
		out = append(out, compact(item))
	}
	return encodeArray(out)
}

func decodeArray(raw json.RawMessage) []json.RawMessage {
	if kindOf(raw) != kindArray {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}

// encodeArray returns nil for an empty list so that an emptied multi-value
// field is indistinguishable from one that was never set.
func encodeArray(items []json.RawMessage) json.RawMessage {
	if len(items) == 0 {
		return nil
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil
	}
	return data
}

func indexOf(items []json.RawMessage, code json.RawMessage) int {
	for i, it := range items {
		if model.SameJSON(it, code) {
			return i
		}
	}
	return -1
}

// toggleCode returns a new slice with code removed if present, appended
// otherwise. The second result reports whether code is now selected.
func toggleCode(items []json.RawMessage, code json.RawMessage) ([]json.RawMessage, bool) {
	if i := indexOf(items, code); i >= 0 {
		out := make([]json.RawMessage, 0, len(items)-1)
		out = append(out, items[:i]...)
		return append(out, items[i+1:]...), false
	}
	out := make([]json.RawMessage, 0, len(items)+1)
	out = append(out, items...)
	return append(out, compact(code)), true
}
