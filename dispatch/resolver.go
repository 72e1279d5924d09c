package dispatch

import (
	"fmt"
	"reflect"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/factory"
)

// MarkerHandler tags static methods of shape func(error) that handle
// failures. The method value selects the failures: a beans.ErrorKind or a
// sentinel error.
const MarkerHandler beans.Marker = "cute.dispatch.handler"

// HandlerResolver registers MarkerHandler methods with a dispatcher.
type HandlerResolver struct {
	d *Dispatcher
}

// NewHandlerResolver creates a method resolver bound to d.
func NewHandlerResolver(d *Dispatcher) *HandlerResolver {
	return &HandlerResolver{d: d}
}

// Shape implements beans.ShapedResolver.
func (r *HandlerResolver) Shape() beans.MethodShape {
	return beans.MethodShape{RequireStatic: true, Args: []reflect.Type{beans.TypeOf[error]()}}
}

// ResolveMethod implements beans.MethodResolver.
func (r *HandlerResolver) ResolveMethod(_ any, m beans.Method) error {
	fn, ok := m.Func.(func(error))
	if !ok {
		return fmt.Errorf("method %s is %T, want func(error)", m.Name, m.Func)
	}
	switch v := m.Value.(type) {
	case beans.ErrorKind:
		return r.d.Handle(v, fn)
	case error:
		return r.d.HandleError(v, fn)
	default:
		return fmt.Errorf("method %s: unsupported handler target %T", m.Name, m.Value)
	}
}

// RegisterResolvers adds the handler resolver, bound to d, to r.
func RegisterResolvers(r *factory.Registry, d *Dispatcher) error {
	return r.Register(factory.MethodResolver(MarkerHandler, func() (*HandlerResolver, error) {
		return NewHandlerResolver(d), nil
	}, factory.WithName("cute.dispatch.handlerResolver")))
}
