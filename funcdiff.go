package trampoline

import (
	"errors"
	"fmt"
	"reflect"
)

// diffFuncs compares the signatures of a and b, ignoring the first skipIn
// inputs. It returns nil if they match, otherwise one error per difference.
func diffFuncs(a, b reflect.Type, skipIn int) error {
	var errs []error

	if a.NumIn() < skipIn || b.NumIn() < skipIn {
		return fmt.Errorf("expected at least %d arguments", skipIn)
	}

	for i := skipIn; i < max(a.NumIn(), b.NumIn()); i++ {
		at, bt := argType(a.In, a.NumIn(), i), argType(b.In, b.NumIn(), i)
		if at != bt {
			errs = append(errs, fmt.Errorf("argument %d: %v != %v", i, at, bt))
		}
	}
	for i := 0; i < max(a.NumOut(), b.NumOut()); i++ {
		at, bt := argType(a.Out, a.NumOut(), i), argType(b.Out, b.NumOut(), i)
		if at != bt {
			errs = append(errs, fmt.Errorf("output %d: %v != %v", i, at, bt))
		}
	}
	if a.IsVariadic() != b.IsVariadic() {
		errs = append(errs, errors.New("variadic mismatch"))
	}

	return errors.Join(errs...)
}

// argType returns the i-th type from get, or nil past the end.
func argType(get func(int) reflect.Type, n, i int) reflect.Type {
	if i >= n {
		return nil
	}
	return get(i)
}
