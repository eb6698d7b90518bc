package hydrate

import (
	"fmt"
	"slices"

	"github.com/go-viper/mapstructure/v2"
)

// Context identifies where a payload came from, for error messages.
type Context struct {
	Source string
	Index  int
}

func (c Context) String() string {
	if c.Source == "" {
		return fmt.Sprintf("entry %d", c.Index)
	}
	return fmt.Sprintf("%s entry %d", c.Source, c.Index)
}

// PreHook lets callers mutate or normalise the payload before decoding.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook lets callers adjust or validate the hydrated struct after decoding.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces the default mapstructure decoding when provided.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts generic maps, as produced by YAML or JSON parsers, into
// strongly typed structs.
type Decoder[T any] struct {
	preHooks    []PreHook
	postHooks   []PostHook[T]
	decodeHooks []mapstructure.DecodeHookFunc
	errorUnused bool
	weak        bool
	custom      CustomDecoder[T]
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithDecodeHook adds a mapstructure decode hook.
func WithDecodeHook[T any](hook mapstructure.DecodeHookFunc) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.decodeHooks = append(d.decodeHooks, hook)
		}
	}
}

// WithDisallowUnknownFields fails on keys that match no struct field.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.errorUnused = true
	}
}

// WithWeaklyTypedInput lets "1" decode into an int and similar.
func WithWeaklyTypedInput[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.weak = true
	}
}

// WithCustomDecoder replaces the default decoding path.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.custom = decoder
	}
}

func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts payload into T applying configured hooks. The payload is
// copied first so hooks never mutate the caller's map.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	var result T
	if payload == nil {
		return result, fmt.Errorf("hydrate: payload is nil for %s", ctx)
	}
	current, err := d.prepare(ctx, cloneTree(payload).(map[string]any))
	if err != nil {
		return result, err
	}
	if result, err = d.decode(ctx, current); err != nil {
		return result, err
	}
	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			var zero T
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx, err)
		}
	}
	return result, nil
}

// prepare threads the payload through the pre-hooks. A hook returning a nil
// map keeps the previous one.
func (d *Decoder[T]) prepare(ctx Context, current map[string]any) (map[string]any, error) {
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return nil, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx, err)
		}
		if next != nil {
			current = next
		}
	}
	return current, nil
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	var out T
	if d.custom != nil {
		decoded, err := d.custom(ctx, payload)
		if err != nil {
			return out, fmt.Errorf("hydrate: custom decoder for %s failed: %w", ctx, err)
		}
		return decoded, nil
	}
	config := &mapstructure.DecoderConfig{
		Result:           &out,
		ErrorUnused:      d.errorUnused,
		WeaklyTypedInput: d.weak,
	}
	if len(d.decodeHooks) > 0 {
		config.DecodeHook = mapstructure.ComposeDecodeHookFunc(slices.Clone(d.decodeHooks)...)
	}
	decoder, err := mapstructure.NewDecoder(config)
	if err != nil {
		return out, fmt.Errorf("hydrate: build decoder: %w", err)
	}
	if err := decoder.Decode(payload); err != nil {
		var zero T
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx, err)
	}
	return out, nil
}

// DecodeAll decodes every entry, stopping at the first failure.
func (d *Decoder[T]) DecodeAll(source string, payloads []map[string]any) ([]T, error) {
	out := make([]T, 0, len(payloads))
	for i, payload := range payloads {
		item, err := d.Decode(Context{Source: source, Index: i}, payload)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func cloneTree(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = cloneTree(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = cloneTree(v)
		}
		return out
	default:
		return value
	}
}
