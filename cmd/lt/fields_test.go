package main

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/alfredjeanlab/lots/internal/model"
)

func TestParseValues(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    string
		wantErr bool
	}{
		{
			name:  "nil input",
			pairs: nil,
			want:  "",
		},
		{
			name:  "plain strings",
			pairs: []string{"title=Desk lamp", "city=Kyiv"},
			want:  `{"city":"Kyiv","title":"Desk lamp"}`,
		},
		{
			name:  "json array value",
			pairs: []string{`delivery=[1,2]`},
			want:  `{"delivery":[1,2]}`,
		},
		{
			name:  "boolean and number",
			pairs: []string{"agree=true", "count=42", "price=3.14"},
			want:  `{"agree":true,"count":42,"price":3.14}`,
		},
		{
			name:  "null value",
			pairs: []string{"email=null"},
			want:  `{"email":null}`,
		},
		{
			name:  "quoted json string",
			pairs: []string{`code="5"`},
			want:  `{"code":"5"}`,
		},
		{
			name:  "number-like string that is not valid json",
			pairs: []string{"version=1.2.3"},
			want:  `{"version":"1.2.3"}`,
		},
		{
			name:    "missing equals",
			pairs:   []string{"noequals"},
			wantErr: true,
		},
		{
			name:    "empty key",
			pairs:   []string{"=value"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseValues(tt.pairs)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.want == "" {
				if got != nil {
					t.Errorf("got %v, want nil", got)
				}
				return
			}
			data, _ := json.Marshal(got)
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestParseExtended(t *testing.T) {
	e, err := parseExtended("delivery:2:delivery_price_city=100")
	if err != nil {
		t.Fatalf("parseExtended() error = %v", err)
	}
	if e.Parent != "delivery" || string(e.Code) != "2" || e.Key != "delivery_price_city" || string(e.Data) != "100" {
		t.Errorf("parseExtended() = %+v", e)
	}

	for _, bad := range []string{"delivery=1", "delivery:2=1", ":2:k=1", "a:b:c"} {
		if _, err := parseExtended(bad); err == nil {
			t.Errorf("parseExtended(%q) succeeded", bad)
		}
	}
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		in        string
		wantKey   string
		wantValue string
		wantOp    string
		wantLabel string
		wantErr   bool
	}{
		{in: "condition=new", wantKey: "condition", wantValue: "new", wantLabel: "condition = new"},
		{in: "price:gte=100", wantKey: "price", wantValue: "100", wantOp: "gte", wantLabel: "price ≥ 100"},
		{in: "session_start=", wantKey: "session_start", wantLabel: "session_start"},
		{in: "price:between=1", wantErr: true},
		{in: ":gte=1", wantErr: true},
		{in: "novalue", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			f, err := parseFilter(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if f.Key != tt.wantKey || f.Value != tt.wantValue {
				t.Errorf("filter = %s=%s", f.Key, f.Value)
			}
			gotOp := ""
			if f.Operation != nil {
				gotOp = *f.Operation
			}
			if gotOp != tt.wantOp {
				t.Errorf("operation = %q, want %q", gotOp, tt.wantOp)
			}
			if !f.IsActive() || *f.Interpretation != tt.wantLabel {
				t.Errorf("interpretation = %v, want %q", f.Interpretation, tt.wantLabel)
			}
		})
	}
}

func TestParseSort(t *testing.T) {
	if s, err := parseSort(""); s != nil || err != nil {
		t.Errorf("parseSort(\"\") = %v, %v", s, err)
	}
	s, err := parseSort("price=asc")
	if err != nil || s.Key != "price" || s.Value != "asc" {
		t.Errorf("parseSort() = %+v, %v", s, err)
	}
	if _, err := parseSort("price"); err == nil {
		t.Error("parseSort(\"price\") succeeded")
	}
}

func TestDescribeError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"server", &model.ServerError{StatusCode: 409, HumanMessage: "Auction has ended"}, "Auction has ended"},
		{"transport", &model.TransportError{Op: "GET /", Err: errors.New("connection refused")}, "cannot reach the server: connection refused"},
		{"plain", errors.New("boom"), "boom"},
	}
	for _, tt := range tests {
		if got := describeError(tt.err); got != tt.want {
			t.Errorf("%s: describeError() = %q, want %q", tt.name, got, tt.want)
		}
	}

	ve := &model.ValidationError{Errors: []model.FieldError{{Field: "title", Message: "required"}}}
	if got := describeError(ve); !strings.Contains(got, "title: required") {
		t.Errorf("describeError(validation) = %q", got)
	}
}
