package expand

// Buffer is a scratch buffer for building strings.
type Buffer struct {
	b []byte
}

func (b *Buffer) WriteString(s string) {
	b.b = append(b.b, s...)
}

func (b *Buffer) WriteByte(c byte) error {
	b.b = append(b.b, c)
	return nil
}

func (b *Buffer) Len() int {
	return len(b.b)
}

func (b *Buffer) String() string {
	return string(b.b)
}

// Pool keeps a bounded number of buffers for reuse. It isn't safe for
// concurrent use: give each goroutine its own Pool. A nil Pool allocates a
// fresh buffer every time.
type Pool struct {
	free []*Buffer
	size int
}

// NewPool creates a pool holding at most size idle buffers.
func NewPool(size int) *Pool {
	return &Pool{size: size}
}

// Use lends a buffer to fn. The buffer is zeroed and returned to the pool
// when fn returns, whether it fails or not.
func (p *Pool) Use(fn func(*Buffer) error) error {
	buf := p.get()
	defer p.put(buf)
	return fn(buf)
}

// Idle returns the number of buffers waiting for reuse.
func (p *Pool) Idle() int {
	if p == nil {
		return 0
	}
	return len(p.free)
}

func (p *Pool) get() *Buffer {
	if p == nil || len(p.free) == 0 {
		return &Buffer{}
	}
	buf := p.free[len(p.free)-1]
	p.free = p.free[:len(p.free)-1]
	return buf
}

func (p *Pool) put(buf *Buffer) {
	clear(buf.b[:cap(buf.b)])
	buf.b = buf.b[:0]
	if p == nil || len(p.free) >= p.size {
		return
	}
	p.free = append(p.free, buf)
}
