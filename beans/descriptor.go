// Package beans defines the data model shared by the component registry, the
// lifecycle manager and the resolvers that plug into it.
package beans

import (
	"strings"
)

// Marker tags a component type or one of its methods with a role.
// Resolvers declare the marker they want to be notified about.
type Marker string

// Descriptor describes a registered component. Descriptors are created at
// registration time and never mutated afterwards; the registry hands out copies.
type Descriptor struct {
	// TypeID is the identity of the component type, "pkgpath.TypeName".
	TypeID string

	// Name is the declared bean name. A blank name is resolved by the
	// lifecycle manager through its name resolver.
	Name string

	// Order is the explicit ordering value. Nil means no preference.
	Order *int

	// Namespace is the package path the component belongs to. Defaults to the
	// package part of TypeID.
	Namespace string

	// Markers are the type-level marker tags carried by the component.
	Markers []Marker

	// Factory is the zero-argument constructor of the component.
	Factory func() (any, error)

	// ClassResolverFor makes the component a class resolver for that marker.
	ClassResolverFor Marker

	// MethodResolverFor makes the component a method resolver for that marker.
	MethodResolverFor Marker
}

// HasOrder reports whether the descriptor declares an explicit order.
func (d Descriptor) HasOrder() bool {
	return d.Order != nil
}

// HasMarker reports whether the descriptor carries m.
func (d Descriptor) HasMarker(m Marker) bool {
	for _, mk := range d.Markers {
		if mk == m {
			return true
		}
	}
	return false
}

// IsResolver reports whether the descriptor declares a class or method resolver.
func (d Descriptor) IsResolver() bool {
	return d.ClassResolverFor != "" || d.MethodResolverFor != ""
}

// PackagePath returns the package part of TypeID.
func (d Descriptor) PackagePath() string {
	return PackageOf(d.TypeID)
}

// Clone returns a deep copy so callers cannot alter registry state.
func (d Descriptor) Clone() Descriptor {
	c := d
	if d.Order != nil {
		o := *d.Order
		c.Order = &o
	}
	if d.Markers != nil {
		c.Markers = append([]Marker(nil), d.Markers...)
	}
	return c
}

// PackageOf splits the package path off a "pkgpath.TypeName" identity.
func PackageOf(typeID string) string {
	slash := strings.LastIndex(typeID, "/")
	dot := strings.LastIndex(typeID, ".")
	if dot <= slash {
		return ""
	}
	return typeID[:dot]
}

// SimpleName returns the TypeName part of a "pkgpath.TypeName" identity.
func SimpleName(typeID string) string {
	slash := strings.LastIndex(typeID, "/")
	dot := strings.LastIndex(typeID, ".")
	if dot <= slash {
		return typeID[slash+1:]
	}
	return typeID[dot+1:]
}

// OrderOf is a helper to build an explicit order value.
func OrderOf(v int) *int {
	return &v
}
