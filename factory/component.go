package factory

import (
	"reflect"

	"github.com/go-lynx/cute/beans"
)

// ResolverOrder is the explicit order forced onto resolver components that
// do not declare one, so they are created before ordinary components.
const ResolverOrder = 1

// NameResolver supplies the bean name of a component whose declared name is
// blank. Implementations must be pure functions of the type identity.
type NameResolver func(typeID string) string

// DefaultName resolves a blank name to the simple type name.
func DefaultName(typeID string) string {
	return beans.SimpleName(typeID)
}

// Option customizes a descriptor built by Component and friends.
type Option func(*beans.Descriptor)

// WithName sets the declared bean name.
func WithName(name string) Option {
	return func(d *beans.Descriptor) { d.Name = name }
}

// WithOrder sets an explicit order.
func WithOrder(order int) Option {
	return func(d *beans.Descriptor) { d.Order = beans.OrderOf(order) }
}

// WithMarkers adds type-level markers.
func WithMarkers(markers ...beans.Marker) Option {
	return func(d *beans.Descriptor) { d.Markers = append(d.Markers, markers...) }
}

// WithNamespace overrides the namespace derived from the type's package.
func WithNamespace(ns string) Option {
	return func(d *beans.Descriptor) { d.Namespace = ns }
}

// WithTypeID overrides the type identity, for components that share a Go type.
func WithTypeID(id string) Option {
	return func(d *beans.Descriptor) { d.TypeID = id }
}

// TypeID returns the type identity of T, "pkgpath.TypeName". Pointer types
// resolve to their element type.
func TypeID[T any]() string {
	t := reflect.TypeOf((*T)(nil)).Elem()
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.PkgPath() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// Component builds a descriptor for a component of type T.
func Component[T any](ctor func() (T, error), opts ...Option) beans.Descriptor {
	d := beans.Descriptor{
		TypeID: TypeID[T](),
		Factory: func() (any, error) {
			return ctor()
		},
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ClassResolver builds a descriptor for a class resolver targeting marker.
func ClassResolver[T beans.ClassResolver](target beans.Marker, ctor func() (T, error), opts ...Option) beans.Descriptor {
	d := Component(ctor, opts...)
	d.ClassResolverFor = target
	return forceResolverOrder(d)
}

// MethodResolver builds a descriptor for a method resolver targeting marker.
func MethodResolver[T beans.MethodResolver](target beans.Marker, ctor func() (T, error), opts ...Option) beans.Descriptor {
	d := Component(ctor, opts...)
	d.MethodResolverFor = target
	return forceResolverOrder(d)
}

func forceResolverOrder(d beans.Descriptor) beans.Descriptor {
	if d.Order == nil {
		d.Order = beans.OrderOf(ResolverOrder)
	}
	return d
}

// Register adds a descriptor to the default registry and panics on duplicates.
// It is meant to be called from init functions.
func Register(d beans.Descriptor) {
	Default().MustRegister(d)
}
