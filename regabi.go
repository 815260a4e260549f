package trampoline

import "reflect"

// Go passes the first 16 integer words of a call in R0 to R15. The
// trampoline loads its target into X15, so a function that gets an argument
// there would see the address instead.
const intArgRegs = 16

// clobbersArgs reports whether calling fn through a trampoline would
// overwrite one of its arguments.
func clobbersArgs(fn reflect.Type) bool {
	used := 0
	for i := 0; i < fn.NumIn(); i++ {
		words, ok := intRegisterWords(fn.In(i))
		// Arguments that don't fit go on the stack whole.
		if !ok || used+words > intArgRegs {
			continue
		}
		used += words
	}
	return used >= intArgRegs
}

// intRegisterWords returns how many integer registers t takes as an
// argument. ok is false for types that are always passed on the stack.
func intRegisterWords(t reflect.Type) (words int, ok bool) {
	switch t.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return 0, true
	case reflect.String, reflect.Interface:
		return 2, true
	case reflect.Slice:
		return 3, true
	case reflect.Array:
		switch t.Len() {
		case 0:
			return 0, true
		case 1:
			return intRegisterWords(t.Elem())
		}
		return 0, false
	case reflect.Struct:
		for i := 0; i < t.NumField(); i++ {
			n, ok := intRegisterWords(t.Field(i).Type)
			if !ok {
				return 0, false
			}
			words += n
		}
		return words, true
	}
	return 1, true
}
