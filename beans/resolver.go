package beans

import (
	"fmt"
	"reflect"
)

// ClassResolver acts on fully constructed bean instances whose type carries
// the marker the resolver targets.
type ClassResolver interface {
	Resolve(bean any) error
}

// MethodResolver acts on a single marked method of a bean instance.
type MethodResolver interface {
	ResolveMethod(bean any, m Method) error
}

// ShapedResolver is implemented by method resolvers that require a specific
// method shape. The lifecycle manager checks the shape before the method is
// handed to ResolveMethod; a mismatching method is never passed on.
type ShapedResolver interface {
	Shape() MethodShape
}

// MethodShape describes the method form a resolver accepts.
type MethodShape struct {
	// RequireStatic rejects methods bound to the bean instance.
	RequireStatic bool
	// Args are the expected parameter types, in order. Nil skips the check.
	Args []reflect.Type
}

// MethodProvider is implemented by components that expose marked methods.
type MethodProvider interface {
	Methods() []Method
}

// Method is a handle to a marked method of a component.
type Method struct {
	// Name is the method name, used in error reports.
	Name string
	// Marker is the method-level marker.
	Marker Marker
	// Value carries the marker attribute, resolver specific.
	Value any
	// Static is true for handles that do not close over the bean instance.
	Static bool
	// Func is the callable.
	Func any
}

// Static returns a handle for a function that does not depend on the bean.
func Static(name string, marker Marker, fn any, value ...any) Method {
	return newMethod(name, marker, true, fn, value)
}

// Bound returns a handle for a method value bound to the bean instance.
func Bound(name string, marker Marker, fn any, value ...any) Method {
	return newMethod(name, marker, false, fn, value)
}

func newMethod(name string, marker Marker, static bool, fn any, value []any) Method {
	m := Method{Name: name, Marker: marker, Static: static, Func: fn}
	if len(value) > 0 {
		m.Value = value[0]
	}
	return m
}

// ArgTypes returns the parameter types of the method's callable.
func (m Method) ArgTypes() []reflect.Type {
	t := reflect.TypeOf(m.Func)
	if t == nil || t.Kind() != reflect.Func {
		return nil
	}
	in := make([]reflect.Type, t.NumIn())
	for i := range in {
		in[i] = t.In(i)
	}
	return in
}

// CheckShape validates m against shape. It returns a KindMethodNotStatic or
// KindMethodArgumentMismatch error, or nil when the method fits.
func CheckShape(bean string, resolver string, m Method, shape MethodShape) error {
	if shape.RequireStatic && !m.Static {
		return &Error{Kind: KindMethodNotStatic, Bean: bean, Resolver: resolver, Method: m.Name}
	}
	if shape.Args == nil {
		return nil
	}
	actual := m.ArgTypes()
	if reflect.TypeOf(m.Func) == nil || reflect.TypeOf(m.Func).Kind() != reflect.Func || !sameTypes(actual, shape.Args) {
		return &Error{
			Kind:     KindMethodArgumentMismatch,
			Bean:     bean,
			Resolver: resolver,
			Method:   m.Name,
			Expected: typeNames(shape.Args),
			Actual:   typeNames(actual),
		}
	}
	return nil
}

// TypeOf returns the reflect.Type of T, handy for interface types in a MethodShape.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

func sameTypes(a, b []reflect.Type) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func typeNames(ts []reflect.Type) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = fmt.Sprint(t)
	}
	return out
}

// ClassResolverBinding ties a class resolver to the marker it targets.
type ClassResolverBinding struct {
	Target   Marker
	Name     string
	Resolver ClassResolver
}

// MethodResolverBinding ties a method resolver to the method marker it targets.
type MethodResolverBinding struct {
	Target   Marker
	Name     string
	Resolver MethodResolver
}
