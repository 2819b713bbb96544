package capkit

import (
	"context"
	"fmt"
	"reflect"
	"unicode"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// FromMethods exposes the exported methods of v as operations of an
// implementation with the given id. Method names are lower-camel cased, so
// TurnOn becomes "turnOn".
//
// Methods may take a leading context.Context and may return nothing, an
// error, a value, or a value and an error. Methods with other result shapes
// are skipped.
func FromMethods(id string, v any) Implementation {
	impl := Implementation{
		ID:         id,
		Operations: make(map[string]Operation),
	}
	if v == nil {
		return impl
	}

	rv := reflect.ValueOf(v)
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !m.IsExported() {
			continue
		}
		fn := rv.Method(i)
		if !supportedResults(fn.Type()) {
			continue
		}
		impl.Operations[OperationName(m.Name)] = methodOperation(fn)
	}
	return impl
}

// OperationName converts a Go method name to its operation name by lower
// casing the leading run of capitals, keeping the start of the next word:
// TurnOn becomes "turnOn", URL becomes "url", HTTPGet becomes "httpGet".
func OperationName(method string) string {
	runes := []rune(method)
	n := 0
	for n < len(runes) && unicode.IsUpper(runes[n]) {
		n++
	}
	if n > 1 && n < len(runes) && unicode.IsLower(runes[n]) {
		n--
	}
	for i := 0; i < n; i++ {
		runes[i] = unicode.ToLower(runes[i])
	}
	return string(runes)
}

func supportedResults(ft reflect.Type) bool {
	switch ft.NumOut() {
	case 0, 1:
		return true
	case 2:
		return ft.Out(1) == errorType
	default:
		return false
	}
}

func methodOperation(fn reflect.Value) Operation {
	ft := fn.Type()
	takesCtx := ft.NumIn() > 0 && ft.In(0) == contextType

	return func(ctx context.Context, args ...any) (any, error) {
		in := make([]reflect.Value, 0, len(args)+1)
		offset := 0
		if takesCtx {
			in = append(in, reflect.ValueOf(&ctx).Elem())
			offset = 1
		}

		fixed := ft.NumIn() - offset
		if ft.IsVariadic() {
			fixed--
			if len(args) < fixed {
				return nil, fmt.Errorf("%w: want at least %d, got %d", ErrInvalidArguments, fixed, len(args))
			}
		} else if len(args) != fixed {
			return nil, fmt.Errorf("%w: want %d, got %d", ErrInvalidArguments, fixed, len(args))
		}

		for i, arg := range args {
			var pt reflect.Type
			if ft.IsVariadic() && i >= fixed {
				pt = ft.In(ft.NumIn() - 1).Elem()
			} else {
				pt = ft.In(i + offset)
			}
			av, err := argValue(arg, pt)
			if err != nil {
				return nil, fmt.Errorf("argument %d: %w", i, err)
			}
			in = append(in, av)
		}

		return unpackResults(fn.Call(in))
	}
}

func argValue(arg any, pt reflect.Type) (reflect.Value, error) {
	if arg == nil {
		switch pt.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
			return reflect.Zero(pt), nil
		}
		return reflect.Value{}, fmt.Errorf("%w: nil is not assignable to %s", ErrInvalidArguments, pt)
	}
	av := reflect.ValueOf(arg)
	if !av.Type().AssignableTo(pt) {
		return reflect.Value{}, fmt.Errorf("%w: %s is not assignable to %s", ErrInvalidArguments, av.Type(), pt)
	}
	return av, nil
}

func unpackResults(out []reflect.Value) (any, error) {
	switch len(out) {
	case 0:
		return nil, nil
	case 1:
		if out[0].Type() == errorType {
			err, _ := out[0].Interface().(error)
			return nil, err
		}
		return out[0].Interface(), nil
	default:
		err, _ := out[1].Interface().(error)
		return out[0].Interface(), err
	}
}
