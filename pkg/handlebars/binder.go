package handlebars

import (
	"iter"
	"reflect"
	"strconv"
	"strings"
	"sync"
)

// MemberResolver is implemented by dynamically shaped values whose members are
// only known at run time.
type MemberResolver interface {
	ResolveMember(name string) (any, bool)
}

// Enumerable is implemented by custom collections that {{#each}} can iterate.
type Enumerable interface {
	Each(yield func(any) bool)
}

// Shape is the category of a model value as seen by the binder.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeScalar
	ShapeMap
	ShapeStruct
	ShapeDynamic
	ShapeSequence
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeScalar:
		return "scalar"
	case ShapeMap:
		return "map"
	case ShapeStruct:
		return "struct"
	case ShapeDynamic:
		return "dynamic"
	case ShapeSequence:
		return "sequence"
	default:
		return "unknown"
	}
}

// ShapeOf classifies value.
func ShapeOf(value any) Shape {
	if isAbsent(value) {
		return ShapeAbsent
	}
	switch value.(type) {
	case string, SafeString, bool:
		return ShapeScalar
	case TemplateData, map[string]any:
		return ShapeMap
	case []any, Enumerable, iter.Seq[any], func(func(any) bool):
		return ShapeSequence
	case MemberResolver:
		return ShapeDynamic
	}

	rv := indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			return ShapeMap
		}
	case reflect.Struct:
		return ShapeStruct
	case reflect.Slice, reflect.Array:
		return ShapeSequence
	}
	return ShapeScalar
}

// Resolve resolves path against frame. The second result is false when any
// step of the path misses; a miss is never an error.
func Resolve(frame *Frame, path Path) (any, bool) {
	var start any
	switch path.Scope {
	case ScopeThis:
		target := frame.Ancestor(path.Depth)
		if target == nil {
			return nil, false
		}
		return target.Current(), true
	case ScopeRoot:
		start = frame.Root().Current()
	case ScopeData:
		value, ok := frame.Data(path.Data)
		if !ok {
			return nil, false
		}
		start = value
	default:
		target := frame.Ancestor(path.Depth)
		if target == nil {
			return nil, false
		}
		start = target.Current()
	}
	return walk(start, path.Segments)
}

func walk(value any, segments []string) (any, bool) {
	for _, seg := range segments {
		next, ok := Member(value, seg)
		if !ok {
			return nil, false
		}
		value = next
	}
	return value, true
}

// Member looks up the member called name on value. Maps are consulted first,
// then struct fields and niladic methods, then MemberResolver, and finally
// numeric indexes into sequences. Lookup is case-sensitive.
func Member(value any, name string) (any, bool) {
	if isAbsent(value) {
		return nil, false
	}
	if v, ok := mapMember(value, name); ok {
		return v, true
	}
	if v, ok := structMember(value, name); ok {
		return v, true
	}
	if v, ok := dynamicMember(value, name); ok {
		return v, true
	}
	return indexMember(value, name)
}

func mapMember(value any, name string) (any, bool) {
	switch m := value.(type) {
	case TemplateData:
		v, ok := m[name]
		return v, ok
	case map[string]any:
		v, ok := m[name]
		return v, ok
	case map[string]string:
		v, ok := m[name]
		return v, ok
	}

	rv := indirect(reflect.ValueOf(value))
	if rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	key := reflect.ValueOf(name).Convert(rv.Type().Key())
	elem := rv.MapIndex(key)
	if !elem.IsValid() {
		return nil, false
	}
	return elem.Interface(), true
}

func structMember(value any, name string) (v any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			GetLogger().WithField("member", name).Debug("member lookup panicked: %v", r)
			v, ok = nil, false
		}
	}()

	orig := reflect.ValueOf(value)
	rv := indirect(orig)
	if rv.Kind() == reflect.Struct {
		if index, found := fieldsOf(rv.Type())[name]; found {
			field, err := rv.FieldByIndexErr(index)
			if err != nil {
				return nil, false
			}
			return field.Interface(), true
		}
	}

	method := orig.MethodByName(name)
	if !method.IsValid() && rv.IsValid() && orig.Kind() == reflect.Pointer {
		method = rv.MethodByName(name)
	}
	if !method.IsValid() {
		return nil, false
	}
	return callGetter(method)
}

var errorType = reflect.TypeOf((*error)(nil)).Elem()

// callGetter calls a niladic method returning a value, or a value and an error.
func callGetter(method reflect.Value) (any, bool) {
	mt := method.Type()
	if mt.NumIn() != 0 {
		return nil, false
	}
	switch mt.NumOut() {
	case 1:
		return method.Call(nil)[0].Interface(), true
	case 2:
		if !mt.Out(1).Implements(errorType) {
			return nil, false
		}
		out := method.Call(nil)
		if !out[1].IsNil() {
			return nil, false
		}
		return out[0].Interface(), true
	default:
		return nil, false
	}
}

func dynamicMember(value any, name string) (v any, ok bool) {
	resolver, isResolver := value.(MemberResolver)
	if !isResolver {
		return nil, false
	}
	defer func() {
		if r := recover(); r != nil {
			GetLogger().WithField("member", name).Debug("dynamic member lookup panicked: %v", r)
			v, ok = nil, false
		}
	}()
	return resolver.ResolveMember(name)
}

func indexMember(value any, name string) (any, bool) {
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 {
		return nil, false
	}
	rv := indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if idx < rv.Len() {
			return rv.Index(idx).Interface(), true
		}
	}
	return nil, false
}

// structFields maps member names to field indexes for one struct type
type structFields map[string][]int

var fieldCache sync.Map // reflect.Type -> structFields

// fieldsOf returns the member names of a struct type. The Go field name wins
// over a `handlebars` tag, which wins over a `json` tag.
func fieldsOf(t reflect.Type) structFields {
	if cached, ok := fieldCache.Load(t); ok {
		return cached.(structFields)
	}

	fields := make(structFields)
	rank := make(map[string]int)
	add := func(name string, index []int, r int) {
		if name == "" || name == "-" {
			return
		}
		if prev, exists := rank[name]; exists && prev <= r {
			return
		}
		fields[name] = index
		rank[name] = r
	}

	for _, f := range reflect.VisibleFields(t) {
		if !f.IsExported() {
			continue
		}
		add(f.Name, f.Index, 0)
		add(tagName(f.Tag.Get("handlebars")), f.Index, 1)
		add(tagName(f.Tag.Get("json")), f.Index, 2)
	}

	actual, _ := fieldCache.LoadOrStore(t, fields)
	return actual.(structFields)
}

func tagName(tag string) string {
	name, _, _ := strings.Cut(tag, ",")
	return name
}

// toSlice returns the elements of a sequence in enumeration order. The second
// result is false when value is not a sequence.
func toSlice(value any) ([]any, bool) {
	switch v := value.(type) {
	case nil:
		return nil, false
	case []any:
		return v, true
	case string, SafeString:
		return nil, false
	case Enumerable:
		var items []any
		v.Each(func(item any) bool {
			items = append(items, item)
			return true
		})
		return items, true
	case iter.Seq[any]:
		return collect(v), true
	case func(func(any) bool):
		return collect(v), true
	}

	rv := indirect(reflect.ValueOf(value))
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
		return items, true
	default:
		return nil, false
	}
}

func collect(seq func(func(any) bool)) []any {
	var items []any
	for item := range seq {
		items = append(items, item)
	}
	return items
}

// isAbsent reports whether value is nil, a nil pointer or a nil interface.
func isAbsent(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func:
		return rv.IsNil()
	}
	return false
}

// indirect follows pointers and interfaces down to a concrete value.
func indirect(rv reflect.Value) reflect.Value {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return reflect.Value{}
		}
		rv = rv.Elem()
	}
	return rv
}
