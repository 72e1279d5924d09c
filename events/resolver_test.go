package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-lynx/cute/beans"
	"github.com/go-lynx/cute/factory"
)

type auditListener struct {
	seen []EventType
}

func (l *auditListener) OnEvent(ev Event) { l.seen = append(l.seen, ev.EventType) }

func (l *auditListener) EventTypes() []EventType { return []EventType{EventAfterBeanLoaded} }

func TestListenerResolver(t *testing.T) {
	b := newTestBus(t)
	r := NewListenerResolver(b)
	l := &auditListener{}

	require.NoError(t, r.Resolve(l))
	b.Publish(NewEvent(EventBeforeBeanLoaded))
	b.Publish(NewEvent(EventAfterBeanLoaded))

	assert.Equal(t, []EventType{EventAfterBeanLoaded}, l.seen)
}

func TestListenerResolver_NotListener(t *testing.T) {
	r := NewListenerResolver(newTestBus(t))
	err := r.Resolve(struct{}{})
	assert.ErrorIs(t, err, ErrNotListener)
}

func TestSubscribeResolver(t *testing.T) {
	b := newTestBus(t)
	r := NewSubscribeResolver(b)

	var got []string
	m := beans.Bound("OnLoaded", MarkerSubscribe, func(ev Event) { got = append(got, ev.Name) }, EventAfterBeanLoaded)

	require.NoError(t, beans.CheckShape("bean", "resolver", m, r.Shape()))
	require.NoError(t, r.ResolveMethod(nil, m))

	b.Publish(NewEvent(EventAfterBeanLoaded).WithName("x"))
	b.Publish(NewEvent(EventBeforeBeanLoaded).WithName("y"))
	assert.Equal(t, []string{"x"}, got)
}

func TestSubscribeResolver_ShapeRejectsWrongArgs(t *testing.T) {
	r := NewSubscribeResolver(newTestBus(t))
	m := beans.Bound("OnLoaded", MarkerSubscribe, func(string) {})

	err := beans.CheckShape("bean", "resolver", m, r.Shape())
	assert.ErrorIs(t, err, beans.ErrMethodArgumentMismatch)
}

func TestSubscribeResolver_BadValue(t *testing.T) {
	r := NewSubscribeResolver(newTestBus(t))
	m := beans.Bound("OnLoaded", MarkerSubscribe, func(Event) {}, "nonsense")
	assert.Error(t, r.ResolveMethod(nil, m))
}

func TestRegisterResolvers(t *testing.T) {
	reg := factory.NewRegistry()
	require.NoError(t, RegisterResolvers(reg, newTestBus(t)))

	ds, err := reg.Scan("github.com/go-lynx/cute")
	require.NoError(t, err)
	require.Len(t, ds, 2)
	assert.Equal(t, MarkerListener, ds[0].ClassResolverFor)
	assert.Equal(t, MarkerSubscribe, ds[1].MethodResolverFor)
	assert.Equal(t, factory.ResolverOrder, *ds[0].Order)

	assert.Error(t, RegisterResolvers(reg, newTestBus(t)), "duplicate registration")
}
