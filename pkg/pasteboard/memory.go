package pasteboard

import "sync"

// Memory is an in-process Source. Every Set or Touch advances the revision,
// mirroring how the system pasteboard bumps its change count on each write.
type Memory struct {
	mu       sync.Mutex
	revision int64
	content  Content
	err      error
}

// NewMemory returns an empty pasteboard at revision zero.
func NewMemory() *Memory {
	return &Memory{}
}

// Set replaces the payload and advances the revision.
func (m *Memory) Set(content Content) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	m.revision++
	return m.revision
}

// Touch advances the revision without changing the payload.
func (m *Memory) Touch() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.revision++
	return m.revision
}

// Fail makes subsequent reads return err until it is cleared with nil.
func (m *Memory) Fail(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Revision implements Source.
func (m *Memory) Revision() (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return m.revision, nil
}

// Content implements Source.
func (m *Memory) Content() (Content, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return None(), m.err
	}
	return m.content, nil
}
