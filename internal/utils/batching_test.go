package utils

import "testing"

func TestBatchBufferAddAndDrain(t *testing.T) {
	buffer := NewBatchBuffer[string](4)

	if buffer.Size() != 0 {
		t.Fatal("new buffer should be empty")
	}

	buffer.Add("a")
	buffer.Add("b")
	if buffer.Size() != 2 {
		t.Fatalf("expected size 2, got %d", buffer.Size())
	}

	batch := buffer.GetAndClear()
	if len(batch) != 2 || batch[0] != "a" || batch[1] != "b" {
		t.Fatalf("unexpected batch %v", batch)
	}
	if buffer.Size() != 0 {
		t.Fatalf("expected buffer drained, size %d", buffer.Size())
	}
}

func TestBatchBufferGetAndClearEmpty(t *testing.T) {
	buffer := NewBatchBuffer[int](4)

	if batch := buffer.GetAndClear(); batch != nil {
		t.Fatalf("expected nil batch from empty buffer, got %v", batch)
	}
}

func TestBatchBufferKeepsCapacityAcrossDrains(t *testing.T) {
	buffer := NewBatchBuffer[int](8)

	for i := 0; i < 8; i++ {
		buffer.Add(i)
	}
	buffer.GetAndClear()

	buffer.Add(1)
	if got := cap(buffer.GetAndClear()); got != 8 {
		t.Fatalf("expected drained buffer recreated with capacity 8, got %d", got)
	}
}
