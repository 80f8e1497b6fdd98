package view

import "sync"

// Modal names used by the console UI.
const (
	ModalAddSubscriber = "add-sub"
	ModalEditBalance   = "edit-bal"
)

// Modals tracks keyed open/closed state for named dialogs. All modals
// start closed. Nothing prevents several being open at once; the UI
// simply stacks them.
type Modals struct {
	mu   sync.Mutex
	open map[string]bool
}

func NewModals() *Modals {
	return &Modals{open: make(map[string]bool)}
}

func (m *Modals) Open(name string) {
	m.mu.Lock()
	m.open[name] = true
	m.mu.Unlock()
}

func (m *Modals) Close(name string) {
	m.mu.Lock()
	delete(m.open, name)
	m.mu.Unlock()
}

func (m *Modals) IsOpen(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open[name]
}

// OpenNames returns the names of all open modals.
func (m *Modals) OpenNames() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.open))
	for name := range m.open {
		names = append(names, name)
	}
	return names
}
