package model

import "encoding/json"

// Envelope is the response wrapper every backend call returns.
type Envelope struct {
	Payload         json.RawMessage  `json:"payload,omitempty"`
	ErrorCode       string           `json:"error_code,omitempty"`
	HumanMessage    string           `json:"human_message,omitempty"`
	OperationResult *OperationResult `json:"operation_result,omitempty"`
	Recipe          *Recipe          `json:"recipe,omitempty"`
}

// Failed reports whether the envelope carries an envelope-level error.
func (e *Envelope) Failed() bool {
	return e.ErrorCode != ""
}

// OperationResult is the outcome of a dynamic-form operation submit.
type OperationResult struct {
	Result  bool   `json:"result"`
	Message string `json:"message,omitempty"`
}

// Recipe is a server-described field list, sent as the initial form template
// or as the re-render after a failed submit.
type Recipe struct {
	Fields []Field `json:"fields"`
}

// Errors collects the per-field errors carried by the recipe's fields.
func (r *Recipe) Errors() *ValidationError {
	var ve ValidationError
	var walk func(fields []Field, parent string, code json.RawMessage)
	walk = func(fields []Field, parent string, code json.RawMessage) {
		for _, f := range fields {
			path := FieldPath(parent, code, f.Key)
			for _, msg := range f.Errors {
				ve.Errors = append(ve.Errors, FieldError{Field: f.Key, Path: path, Message: msg})
			}
			for _, c := range f.Choices {
				walk(c.ExtendedFields, path, c.Code)
			}
		}
	}
	walk(r.Fields, "", nil)
	return &ve
}
