package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestWidgetType_IsValid(t *testing.T) {
	for _, tc := range []struct {
		w    WidgetType
		want bool
	}{
		{WidgetInput, true},
		{WidgetTextArea, true},
		{WidgetHidden, true},
		{WidgetCheckboxGroup, true},
		{WidgetDeliveryMethods, true},
		{WidgetAttachment, true},
		{WidgetType(""), false},
		{WidgetType("slider"), false},
	} {
		if got := tc.w.IsValid(); got != tc.want {
			t.Errorf("WidgetType(%q).IsValid() = %v, want %v", tc.w, got, tc.want)
		}
	}
}

func TestWidgetType_IsMulti(t *testing.T) {
	for _, tc := range []struct {
		w    WidgetType
		want bool
	}{
		{WidgetCheckboxGroup, true},
		{WidgetDeliveryMethods, true},
		{WidgetRadioGroup, false},
		{WidgetSelect, false},
		{WidgetCheckbox, false},
	} {
		if got := tc.w.IsMulti(); got != tc.want {
			t.Errorf("WidgetType(%q).IsMulti() = %v, want %v", tc.w, got, tc.want)
		}
	}
}

func TestSameJSON(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want bool
	}{
		{`5`, `5`, true},
		{`5`, ` 5 `, true},
		{`5`, `"5"`, false},
		{`"a"`, `"a"`, true},
		{`{"x": 1}`, `{"x":1}`, true},
		{``, `null`, true},
		{`null`, `0`, false},
		{``, `""`, false},
	} {
		if got := SameJSON(json.RawMessage(tc.a), json.RawMessage(tc.b)); got != tc.want {
			t.Errorf("SameJSON(%q, %q) = %v, want %v", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestIsNull(t *testing.T) {
	for _, tc := range []struct {
		raw  string
		want bool
	}{
		{"", true},
		{"null", true},
		{"  null ", true},
		{"0", false},
		{`""`, false},
		{"[]", false},
	} {
		if got := IsNull(json.RawMessage(tc.raw)); got != tc.want {
			t.Errorf("IsNull(%q) = %v, want %v", tc.raw, got, tc.want)
		}
	}
}

func TestField_Choice(t *testing.T) {
	f := Field{
		Key:    "delivery",
		Widget: WidgetRadioGroup,
		Choices: []Choice{
			{Code: json.RawMessage(`1`), Name: "post"},
			{Code: json.RawMessage(`"pickup"`), Name: "pickup"},
		},
	}
	if c := f.Choice(json.RawMessage(`1`)); c == nil || c.Name != "post" {
		t.Errorf("Choice(1) = %+v", c)
	}
	if c := f.Choice(json.RawMessage(`"pickup"`)); c == nil || c.Name != "pickup" {
		t.Errorf("Choice(\"pickup\") = %+v", c)
	}
	if c := f.Choice(json.RawMessage(`"1"`)); c != nil {
		t.Errorf("Choice(\"1\") = %+v, want nil", c)
	}
}

func TestField_HasValidator(t *testing.T) {
	f := Field{Validators: []Validator{
		{Type: ValidatorMandatory},
		{Type: ValidatorMax, Parameters: map[string]any{"max": 10}},
	}}
	if !f.HasValidator(ValidatorMandatory) || !f.HasValidator(ValidatorMax) {
		t.Error("declared validators not found")
	}
	if f.HasValidator(ValidatorNumeric) {
		t.Error("undeclared validator reported")
	}
}

func TestField_DecodesWireShape(t *testing.T) {
	data := `{
		"key": "delivery",
		"widget_type": "deliveryMethods",
		"data": [1],
		"choices": [{"code": 1, "name": "courier", "extended_fields": [
			{"key": "address", "widget_type": "input", "data": "Main st"}
		]}],
		"validators": [{"type": "mandatory"}],
		"errors": ["pick one"]
	}`
	var f Field
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if f.Widget != WidgetDeliveryMethods || string(f.Data) != "[1]" {
		t.Errorf("field = %+v", f)
	}
	if len(f.Choices) != 1 || len(f.Choices[0].ExtendedFields) != 1 {
		t.Fatalf("choices = %+v", f.Choices)
	}
	if ext := f.Choices[0].ExtendedFields[0]; ext.Key != "address" || string(ext.Data) != `"Main st"` {
		t.Errorf("extended field = %+v", ext)
	}
}

func TestListingQuery_ActiveFilters(t *testing.T) {
	label := "price ≥ 10"
	q := ListingQuery{Filters: []Filter{
		{Key: "price", Value: "10", Interpretation: &label},
		{Key: "color", Value: "red"},
	}}
	got := q.ActiveFilters()
	if len(got) != 1 || got[0].Key != "price" {
		t.Errorf("ActiveFilters() = %+v", got)
	}
}

func TestSearchCriteria_HasUser(t *testing.T) {
	none, some := NoUserID, int64(7)
	for _, tc := range []struct {
		name string
		s    SearchCriteria
		want bool
	}{
		{"nil", SearchCriteria{}, false},
		{"sentinel", SearchCriteria{UserID: &none}, false},
		{"set", SearchCriteria{UserID: &some}, true},
	} {
		if got := tc.s.HasUser(); got != tc.want {
			t.Errorf("%s: HasUser() = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestSession_Clock(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*3600)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, loc)
	s := Session{Now: func() time.Time { return fixed }}
	got := s.Clock()
	if !got.Equal(fixed) || got.Location() != time.UTC {
		t.Errorf("Clock() = %v, want %v in UTC", got, fixed)
	}
	if (Session{}).Clock().IsZero() {
		t.Error("Clock() without Now should use wall time")
	}
}

func TestEnvelope_Failed(t *testing.T) {
	if (&Envelope{}).Failed() {
		t.Error("empty envelope reported failure")
	}
	if !(&Envelope{ErrorCode: "lot_closed"}).Failed() {
		t.Error("envelope with error code not failed")
	}
}

func TestRecipe_Errors(t *testing.T) {
	r := &Recipe{Fields: []Field{
		{Key: "title", Errors: []string{"required"}},
		{Key: "price"},
		{Key: "delivery", Choices: []Choice{{
			Code: json.RawMessage(`1`),
			ExtendedFields: []Field{
				{Key: "address", Errors: []string{"too short", "no digits"}},
			},
		}}},
	}}
	ve := r.Errors()
	if !ve.HasErrors() || len(ve.Errors) != 3 {
		t.Fatalf("Errors() = %+v", ve.Errors)
	}
	per := ve.PerField()
	if len(per["title"]) != 1 || len(per["address"]) != 2 || per["address"][1] != "no digits" {
		t.Errorf("PerField() = %v", per)
	}
	if _, ok := per["price"]; ok {
		t.Error("price has no errors")
	}
	paths := ve.PerPath()
	if len(paths["delivery[1].address"]) != 2 || len(paths["title"]) != 1 {
		t.Errorf("PerPath() = %v", paths)
	}
}

func TestFieldPath(t *testing.T) {
	for _, tc := range []struct {
		parent string
		code   string
		key    string
		want   string
	}{
		{"", "", "title", "title"},
		{"delivery", "2", "delivery_price_city", "delivery[2].delivery_price_city"},
		{"delivery", ` "pickup" `, "address", `delivery["pickup"].address`},
		{"delivery[2].zone", `{"a": 1}`, "note", `delivery[2].zone[{"a":1}].note`},
	} {
		if got := FieldPath(tc.parent, json.RawMessage(tc.code), tc.key); got != tc.want {
			t.Errorf("FieldPath(%q, %q, %q) = %q, want %q", tc.parent, tc.code, tc.key, got, tc.want)
		}
	}
}
