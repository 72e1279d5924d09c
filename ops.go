package cute

// State returns the current protocol state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Progress returns the index of the component being instantiated and the
// number of components scanned. Both are zero before instantiation starts.
func (m *Manager) Progress() (current, total int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current, m.total
}

// Bean returns the instance registered under name.
func (m *Manager) Bean(name string) (any, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.table[name]
	if !ok {
		return nil, false
	}
	return b.Instance, true
}

// Beans returns the bean table entries in creation order.
func (m *Manager) Beans() []Bean {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Bean, len(m.created))
	for i, b := range m.created {
		out[i] = *b
	}
	return out
}

// Names returns the registered bean names in creation order.
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.created))
	for i, b := range m.created {
		names[i] = b.Name
	}
	return names
}

// Len returns the number of registered beans.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.table)
}

// ClassResolvers returns the names of the bound class resolvers in binding order.
func (m *Manager) ClassResolvers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.classBindings))
	for i, b := range m.classBindings {
		names[i] = b.Name
	}
	return names
}

// MethodResolvers returns the names of the bound method resolvers in binding order.
func (m *Manager) MethodResolvers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, len(m.methodBindings))
	for i, b := range m.methodBindings {
		names[i] = b.Name
	}
	return names
}

// Lookup returns the bean registered under name if it is a T.
func Lookup[T any](m *Manager, name string) (T, bool) {
	var zero T
	v, ok := m.Bean(name)
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	return t, ok
}

// BeansOf returns every bean that is a T, in creation order.
func BeansOf[T any](m *Manager) []T {
	var out []T
	for _, b := range m.Beans() {
		if t, ok := b.Instance.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
