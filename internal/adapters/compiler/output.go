package compiler

import "sync"

// tailBuffer keeps the last max bytes written to it and accepts everything,
// so engine pipes are always drained.
type tailBuffer struct {
	mu        sync.Mutex
	buf       []byte
	max       int
	discarded int
}

func newTailBuffer(maxBytes int) *tailBuffer {
	return &tailBuffer{max: maxBytes}
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.max; over > 0 {
		t.discarded += over
		t.buf = append(t.buf[:0], t.buf[over:]...)
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}

func (t *tailBuffer) Discarded() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.discarded
}
