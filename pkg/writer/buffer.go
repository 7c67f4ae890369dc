package writer

// buffer is a fixed-capacity byte accumulator for one stream
type buffer struct {
	data     []byte
	capacity int
}

func newBuffer(capacity int) *buffer {
	return &buffer{
		data:     make([]byte, 0, capacity),
		capacity: capacity,
	}
}

// write appends as much of p as fits and returns the part that did not fit
func (b *buffer) write(p []byte) []byte {
	space := b.capacity - len(b.data)
	if len(p) <= space {
		b.data = append(b.data, p...)
		return nil
	}
	b.data = append(b.data, p[:space]...)
	return p[space:]
}

func (b *buffer) empty() bool {
	return len(b.data) == 0
}

func (b *buffer) reset() {
	b.data = b.data[:0]
}
