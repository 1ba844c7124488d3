package webhook

// ringBuffer is a fixed-capacity FIFO of rows waiting for a successful send.
// Not safe for concurrent use.
type ringBuffer struct {
	buf      []Row
	capacity int
	head     int // next write position
	count    int
	dropped  int // rows overwritten since the last drain
}

func newRingBuffer(capacity int) *ringBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &ringBuffer{
		buf:      make([]Row, capacity),
		capacity: capacity,
	}
}

// push appends row, overwriting the oldest when full. It reports whether a
// row was dropped.
func (r *ringBuffer) push(row Row) bool {
	r.buf[r.head] = row
	r.head = (r.head + 1) % r.capacity
	if r.count == r.capacity {
		r.dropped++
		return true
	}
	r.count++
	return false
}

func (r *ringBuffer) drainAll() []Row {
	if r.count == 0 {
		return nil
	}

	result := make([]Row, r.count)
	// Oldest item is at (head - count) mod capacity
	start := (r.head - r.count + r.capacity) % r.capacity
	for i := 0; i < r.count; i++ {
		result[i] = r.buf[(start+i)%r.capacity]
	}

	r.count = 0
	r.head = 0
	r.dropped = 0
	return result
}

func (r *ringBuffer) len() int {
	return r.count
}
