// Package cute provides the bean lifecycle and resolution engine.
//
// Components are registered explicitly into a factory registry, scanned by
// namespace, ordered, instantiated once and handed to class and method
// resolvers. Resolvers are components themselves and are instantiated first,
// so every later component can be routed to them.
//
// # Architecture
//
//   - Manager: runs CreateAll exactly once and owns the name to bean table
//   - App: assembles configuration, logging, the event bus, the error
//     dispatcher, the message catalog, metrics and plugins around a Manager
//   - Resolvers: events.ListenerResolver, events.SubscribeResolver and
//     dispatch.HandlerResolver are registered by every App
//
// # File Organization
//
//   - app.go: App assembly and the process default instance
//   - lifecycle.go: Manager state machine and the CreateAll protocol
//   - ops.go: read access to the bean table and resolver bindings
//   - topology.go: instantiation ordering and registry joining
//
// # Quick Start
//
//	package main
//
//	import (
//	    "context"
//
//	    "github.com/go-lynx/cute"
//	    "github.com/go-lynx/cute/factory"
//	)
//
//	type Greeter struct{}
//
//	func init() {
//	    factory.Register(factory.Component(func() (*Greeter, error) {
//	        return &Greeter{}, nil
//	    }))
//	}
//
//	func main() {
//	    app, err := cute.New(nil)
//	    if err != nil {
//	        panic(err)
//	    }
//	    defer app.Close()
//	    if err := app.CreateAll(context.Background()); err != nil {
//	        panic(err)
//	    }
//	    g, _ := cute.Lookup[*Greeter](app.Manager(), "Greeter")
//	    _ = g
//	}
//
// Failures of single components never abort CreateAll: they are handed to
// the error dispatcher and the component is skipped. Only a second call and a
// failed scan are returned to the caller.
package cute
