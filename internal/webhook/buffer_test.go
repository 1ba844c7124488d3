package webhook

import (
	"testing"
)

func row(i int) Row {
	return Row{Temperature: float64(i)}
}

func TestRingBufferEmptyDrain(t *testing.T) {
	rb := newRingBuffer(10)
	got := rb.drainAll()
	if got != nil {
		t.Errorf("expected nil from empty drain, got %d items", len(got))
	}
}

func TestRingBufferPushAndDrain(t *testing.T) {
	rb := newRingBuffer(10)
	for i := 0; i < 5; i++ {
		rb.push(row(i))
	}

	got := rb.drainAll()
	if len(got) != 5 {
		t.Fatalf("expected 5 items, got %d", len(got))
	}
	for i := 0; i < 5; i++ {
		if got[i].Temperature != float64(i) {
			t.Errorf("item %d: expected %d, got %v", i, i, got[i].Temperature)
		}
	}

	if got2 := rb.drainAll(); got2 != nil {
		t.Errorf("expected nil from second drain, got %d items", len(got2))
	}
}

func TestRingBufferOverflowDropsOldest(t *testing.T) {
	size := 5
	rb := newRingBuffer(size)

	dropped := 0
	for i := 0; i < size+3; i++ {
		if rb.push(row(i)) {
			dropped++
		}
	}
	if dropped != 3 {
		t.Errorf("expected 3 drops, got %d", dropped)
	}

	got := rb.drainAll()
	if len(got) != size {
		t.Fatalf("expected %d items, got %d", size, len(got))
	}
	for i := 0; i < size; i++ {
		want := float64(i + 3)
		if got[i].Temperature != want {
			t.Errorf("item %d: expected %v, got %v", i, want, got[i].Temperature)
		}
	}
}

func TestRingBufferMultipleCycles(t *testing.T) {
	rb := newRingBuffer(5)

	for i := 0; i < 3; i++ {
		rb.push(row(i))
	}
	if got := rb.drainAll(); len(got) != 3 {
		t.Fatalf("cycle 1: expected 3 items, got %d", len(got))
	}

	for i := 10; i < 14; i++ {
		rb.push(row(i))
	}
	got := rb.drainAll()
	if len(got) != 4 {
		t.Fatalf("cycle 2: expected 4 items, got %d", len(got))
	}
	for i, r := range got {
		if want := float64(10 + i); r.Temperature != want {
			t.Errorf("cycle 2 item %d: expected %v, got %v", i, want, r.Temperature)
		}
	}
}

func TestRingBufferLen(t *testing.T) {
	rb := newRingBuffer(10)
	if rb.len() != 0 {
		t.Errorf("expected len 0, got %d", rb.len())
	}

	rb.push(row(1))
	rb.push(row(2))
	if rb.len() != 2 {
		t.Errorf("expected len 2, got %d", rb.len())
	}

	rb.drainAll()
	if rb.len() != 0 {
		t.Errorf("expected len 0 after drain, got %d", rb.len())
	}
}

func TestRingBufferMinimumCapacity(t *testing.T) {
	rb := newRingBuffer(0)
	rb.push(row(1))
	rb.push(row(2))

	got := rb.drainAll()
	if len(got) != 1 || got[0].Temperature != 2 {
		t.Errorf("expected only the newest row, got %+v", got)
	}
}
