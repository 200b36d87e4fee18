package booking

import "sync"

// Pending is the in-flight guard for clients that do not keep a View
// between submissions, such as browsers posting a form. The zero value is
// ready to use.
type Pending struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// Begin marks key as submitting. It reports false when key already is.
func (p *Pending) Begin(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if _, busy := p.keys[key]; busy {
		return false
	}
	if p.keys == nil {
		p.keys = map[string]struct{}{}
	}
	p.keys[key] = struct{}{}
	return true
}

func (p *Pending) End(key string) {
	p.mu.Lock()
	delete(p.keys, key)
	p.mu.Unlock()
}
