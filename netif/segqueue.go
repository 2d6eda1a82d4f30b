package netif

// segQueue owns the not-yet-consumed received segments of one socket:
// a queue plus a consumed-offset cursor into the head segment. The
// invariant is off < len(head.Bytes()) whenever the queue is nonempty.
type segQueue struct {
	segs []Segment
	off  int
}

func (q *segQueue) empty() bool { return len(q.segs) == 0 }

// push appends a segment, taking ownership. Empty segments are
// released on the spot so the head invariant holds.
func (q *segQueue) push(seg Segment) {
	if len(seg.Bytes()) == 0 {
		seg.Release()
		return
	}
	q.segs = append(q.segs, seg)
}

// read copies up to len(dst) bytes starting at the cursor, spanning as
// many segments as needed. Each fully consumed segment is released and
// its total length reported through ack; a partially consumed head
// keeps its cursor for the next call.
func (q *segQueue) read(dst []byte, ack func(n int)) int {
	n := 0
	for n < len(dst) && len(q.segs) > 0 {
		data := q.segs[0].Bytes()
		c := copy(dst[n:], data[q.off:])
		n += c
		q.off += c
		if q.off == len(data) {
			if ack != nil {
				ack(len(data))
			}
			q.pop()
		}
	}
	return n
}

// flush releases every queued segment, reporting each segment's total
// length through ack when non-nil.
func (q *segQueue) flush(ack func(n int)) {
	for _, seg := range q.segs {
		if ack != nil {
			ack(len(seg.Bytes()))
		}
		seg.Release()
	}
	q.segs = nil
	q.off = 0
}

func (q *segQueue) pop() {
	q.segs[0].Release()
	copy(q.segs, q.segs[1:])
	q.segs = q.segs[:len(q.segs)-1]
	q.off = 0
}
