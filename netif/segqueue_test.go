package netif

import (
	"bytes"
	"testing"
)

func TestSegQueueReadSpansSegments(t *testing.T) {
	var q segQueue
	segs := []*testSegment{
		{data: []byte("hello ")},
		{data: []byte("cruel ")},
		{data: []byte("world")},
	}
	total := 0
	for _, s := range segs {
		q.push(s)
		total += len(s.data)
	}

	var acked int
	ack := func(n int) { acked += n }

	// First read stops mid second segment; the cursor keeps the rest.
	dst := make([]byte, 8)
	if n := q.read(dst, ack); n != 8 {
		t.Fatalf("read %d, want 8", n)
	}
	if !bytes.Equal(dst, []byte("hello cr")) {
		t.Fatalf("read %q", dst)
	}
	if acked != len("hello ") {
		t.Errorf("acked %d after partial, want only the consumed segment", acked)
	}
	if !segs[0].released || segs[1].released {
		t.Error("release does not follow consumption")
	}

	// Drain the rest; totals must be conserved.
	rest := make([]byte, 64)
	n := q.read(rest, ack)
	if got := string(dst) + string(rest[:n]); got != "hello cruel world" {
		t.Errorf("reassembled %q", got)
	}
	if 8+n != total || acked != total {
		t.Errorf("read %d and acked %d bytes of %d queued", 8+n, acked, total)
	}
	if !q.empty() {
		t.Error("queue not empty after drain")
	}
	for i, s := range segs {
		if !s.released {
			t.Errorf("segment %d leaked", i)
		}
	}
}

func TestSegQueueRepeatedSmallReads(t *testing.T) {
	var q segQueue
	payload := []byte("0123456789abcdef")
	q.push(&testSegment{data: payload})

	var got []byte
	dst := make([]byte, 3)
	for !q.empty() {
		n := q.read(dst, nil)
		got = append(got, dst[:n]...)
	}
	if !bytes.Equal(got, payload) {
		t.Errorf("reassembled %q, want %q", got, payload)
	}
}

func TestSegQueueFlush(t *testing.T) {
	var q segQueue
	segs := []*testSegment{
		{data: []byte("abc")},
		{data: []byte("defg")},
	}
	for _, s := range segs {
		q.push(s)
	}
	// Partially consume the head, then flush: the full segment lengths
	// are acknowledged since partial reads never ack.
	q.read(make([]byte, 2), nil)

	var acked int
	q.flush(func(n int) { acked += n })
	if acked != 7 {
		t.Errorf("flush acked %d, want 7", acked)
	}
	if !q.empty() {
		t.Error("queue not empty after flush")
	}
	for i, s := range segs {
		if !s.released {
			t.Errorf("segment %d leaked", i)
		}
	}
}

func TestSegQueueEmptySegment(t *testing.T) {
	var q segQueue
	s := &testSegment{data: nil}
	q.push(s)
	if !q.empty() {
		t.Error("empty segment queued")
	}
	if !s.released {
		t.Error("empty segment leaked")
	}
}
