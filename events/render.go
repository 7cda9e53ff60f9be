package events

import (
	"reflect"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Rendering limits. Anything beyond them is replaced with an ellipsis.
const (
	MaxDepth    = 4
	MaxElements = 16
	MaxText     = 256
)

const ellipsis = "..."

// TypeName returns the dynamic type name of v the way %T prints it.
func TypeName(v any) string {
	if v == nil {
		return "<nil>"
	}
	return reflect.TypeOf(v).String()
}

// Render prints v close to the %v verb but works on the representation only:
// String, Error and Format methods are never called, pointers, channels and
// functions print as addresses, maps print their size. The output is bounded
// by MaxDepth, MaxElements and MaxText, and repeated slices print as <cycle>.
func Render(v any) string {
	r := renderer{seen: map[sliceKey]bool{}}
	r.value(reflect.ValueOf(v), 0)
	return r.buf.String()
}

// sliceKey identifies a slice being rendered. Only slices can refer to
// themselves since pointers are not followed.
type sliceKey struct {
	ptr uintptr
	len int
	typ reflect.Type
}

type renderer struct {
	buf  strings.Builder
	seen map[sliceKey]bool
	full bool
}

func (r *renderer) write(s string) {
	if r.full {
		return
	}
	if r.buf.Len()+len(s) > MaxText {
		cut := MaxText - r.buf.Len()
		for cut > 0 && !utf8.RuneStart(s[cut]) {
			cut--
		}
		r.buf.WriteString(s[:cut])
		r.buf.WriteString(ellipsis)
		r.full = true
		return
	}
	r.buf.WriteString(s)
}

func (r *renderer) value(v reflect.Value, depth int) {
	if r.full {
		return
	}

	switch v.Kind() {
	case reflect.Invalid:
		r.write("<nil>")
	case reflect.Bool:
		r.write(strconv.FormatBool(v.Bool()))
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		r.write(strconv.FormatInt(v.Int(), 10))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		r.write(strconv.FormatUint(v.Uint(), 10))
	case reflect.Float32:
		r.write(strconv.FormatFloat(v.Float(), 'g', -1, 32))
	case reflect.Float64:
		r.write(strconv.FormatFloat(v.Float(), 'g', -1, 64))
	case reflect.Complex64:
		r.write(strconv.FormatComplex(v.Complex(), 'g', -1, 64))
	case reflect.Complex128:
		r.write(strconv.FormatComplex(v.Complex(), 'g', -1, 128))
	case reflect.String:
		r.write(v.String())
	case reflect.Pointer, reflect.UnsafePointer, reflect.Chan, reflect.Func:
		if v.IsNil() {
			r.write("<nil>")
			return
		}
		r.write("0x" + strconv.FormatUint(uint64(v.Pointer()), 16))
	case reflect.Map:
		if v.IsNil() {
			r.write("map[]")
			return
		}
		// Iterating would read entries the program may be writing concurrently.
		r.write("map[len=" + strconv.Itoa(v.Len()) + "]")
	case reflect.Interface:
		if v.IsNil() {
			r.write("<nil>")
			return
		}
		r.value(v.Elem(), depth)
	case reflect.Slice:
		if v.IsNil() || v.Len() == 0 {
			r.write("[]")
			return
		}
		key := sliceKey{ptr: v.Pointer(), len: v.Len(), typ: v.Type()}
		if r.seen[key] {
			r.write("<cycle>")
			return
		}
		r.seen[key] = true
		r.list(v, depth)
		delete(r.seen, key)
	case reflect.Array:
		r.list(v, depth)
	case reflect.Struct:
		r.fields(v, depth)
	default:
		r.write("?" + v.Kind().String())
	}
}

func (r *renderer) list(v reflect.Value, depth int) {
	if depth >= MaxDepth {
		r.write("[" + ellipsis + "]")
		return
	}

	r.write("[")
	for i := range v.Len() {
		if i > 0 {
			r.write(" ")
		}
		if i == MaxElements {
			r.write(ellipsis)
			break
		}
		r.value(v.Index(i), depth+1)
	}
	r.write("]")
}

func (r *renderer) fields(v reflect.Value, depth int) {
	if depth >= MaxDepth {
		r.write("{" + ellipsis + "}")
		return
	}

	r.write("{")
	for i := range v.NumField() {
		if i > 0 {
			r.write(" ")
		}
		if i == MaxElements {
			r.write(ellipsis)
			break
		}
		r.value(v.Field(i), depth+1)
	}
	r.write("}")
}
