package form

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/alfredjeanlab/lots/internal/model"
)

// ErrSubmitInFlight is returned when Submit is called while another submit of
// the same operation is outstanding. Submits are not idempotent server-side,
// so a second one is refused rather than queued.
var ErrSubmitInFlight = errors.New("form: submit already in flight")

// ErrUnknownField is returned by Operation edits naming a key not in the form.
var ErrUnknownField = errors.New("form: unknown field")

// Client is the transport surface an Operation needs.
type Client interface {
	Recipe(ctx context.Context, path string) (*model.Recipe, error)
	Submit(ctx context.Context, path string, body map[string]json.RawMessage) (*model.Envelope, error)
}

// Operation is one dynamic-form operation: a recipe, the user's edits and
// a submit endpoint.
type Operation struct {
	client Client
	path   string

	mu         sync.Mutex
	fields     []model.Field
	submitting bool
}

// Load fetches the recipe at path and hydrates it with prior.
func Load(ctx context.Context, c Client, path string, prior map[string]json.RawMessage) (*Operation, error) {
	recipe, err := c.Recipe(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("loading recipe %s: %w", path, err)
	}
	return New(c, path, Hydrate(recipe.Fields, prior)), nil
}

// New wraps already-hydrated fields.
func New(c Client, path string, fields []model.Field) *Operation {
	return &Operation{client: c, path: path, fields: fields}
}

// Path returns the submit path.
func (o *Operation) Path() string { return o.path }

// Fields returns the current field set.
func (o *Operation) Fields() []model.Field {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]model.Field(nil), o.fields...)
}

// Edit applies Edit to the field keyed key.
func (o *Operation) Edit(key string, data json.RawMessage) error {
	return o.update(key, func(f model.Field) model.Field { return Edit(f, data) })
}

// Toggle applies Toggle to the field keyed key.
func (o *Operation) Toggle(key string) error {
	return o.update(key, Toggle)
}

// EditExtended applies EditExtended to the field keyed key.
func (o *Operation) EditExtended(key string, code json.RawMessage, extKey string, data json.RawMessage) error {
	return o.update(key, func(f model.Field) model.Field { return EditExtended(f, code, extKey, data) })
}

func (o *Operation) update(key string, fn func(model.Field) model.Field) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	f, ok := Find(o.fields, key)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, key)
	}
	o.fields = Replace(o.fields, fn(f))
	return nil
}

// Submit posts the serialized fields, plus captcha as a separate top-level
// parameter when non-empty.
//
// On a failed result carrying a recipe, the recipe replaces the field set,
// re-hydrated with the user's current values, and a *model.ValidationError
// with the recipe's errors is returned. Transport and server errors leave
// the fields untouched.
func (o *Operation) Submit(ctx context.Context, captcha string) (*model.OperationResult, error) {
	o.mu.Lock()
	if o.submitting {
		o.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	o.submitting = true
	fields := o.fields
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.submitting = false
		o.mu.Unlock()
	}()

	body := Serialize(fields)
	if captcha != "" {
		raw, err := json.Marshal(captcha)
		if err != nil {
			return nil, fmt.Errorf("marshaling captcha: %w", err)
		}
		body[CaptchaResponseParam] = raw
	}

	env, err := o.client.Submit(ctx, o.path, body)
	if err != nil {
		return nil, err
	}

	result := env.OperationResult
	if result == nil {
		result = &model.OperationResult{Result: env.Recipe == nil}
	}
	if result.Result {
		return result, nil
	}

	if env.Recipe == nil {
		return result, &model.ServerError{Code: "operation_failed", HumanMessage: result.Message}
	}

	ve := env.Recipe.Errors()
	o.mu.Lock()
	o.fields = ApplyErrors(Rehydrate(env.Recipe.Fields, o.fields), ve.PerPath())
	o.mu.Unlock()

	if !ve.HasErrors() {
		return result, &model.ServerError{Code: "operation_failed", HumanMessage: result.Message}
	}
	return result, ve
}
