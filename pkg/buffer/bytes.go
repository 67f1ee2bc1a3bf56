// Package buffer holds the owned storage types the rest of rower passes
// around: a growable byte store, a terminated text builder, an immutable
// text view and a scratch arena released as a unit.
//
// None of these types lock. Concurrent mutation of the same value must be
// serialized by the caller.
package buffer

// DefaultSize is the size of the chunks read off the network.
const DefaultSize = 2048

// ByteBuffer is a growable byte store.
//
// The zero value is the canonical empty buffer: it holds no storage and
// reports a capacity of 0. Every constructor that cannot produce storage
// returns it, so an empty result and a failed allocation look the same.
type ByteBuffer struct {
	count int
	// len(contents) is the capacity, contents[count:] is zero-filled.
	contents []byte
}

// NewByteBuffer allocates a zero-filled buffer able to hold capacity bytes.
// A non-positive capacity yields the canonical empty buffer.
func NewByteBuffer(capacity int) ByteBuffer {
	if capacity <= 0 {
		return ByteBuffer{}
	}
	return ByteBuffer{contents: make([]byte, capacity)}
}

// Len returns the number of bytes in use.
func (b *ByteBuffer) Len() int {
	return b.count
}

// Cap returns the number of bytes allocated.
func (b *ByteBuffer) Cap() int {
	return len(b.contents)
}

// IsEmpty reports whether b is the canonical empty buffer.
func (b *ByteBuffer) IsEmpty() bool {
	return len(b.contents) == 0
}

// Bytes returns the bytes in use. The slice aliases the buffer storage and
// is only valid until the next Append, Resize or Release.
func (b *ByteBuffer) Bytes() []byte {
	return b.contents[:b.count]
}

func (b *ByteBuffer) String() string {
	return string(b.contents[:b.count])
}

// Append copies p at the end of the buffer. When p does not fit, the
// storage grows to exactly Len()+len(p) bytes.
func (b *ByteBuffer) Append(p []byte) {
	required := b.count + len(p)
	if required > len(b.contents) {
		b.Resize(required)
	}
	copy(b.contents[b.count:], p)
	b.count = required
}

// Resize reallocates the storage to newSize bytes. Existing bytes are kept
// up to newSize, any extension is zero-filled, and Len is truncated when it
// exceeds newSize.
func (b *ByteBuffer) Resize(newSize int) {
	if newSize < 0 {
		newSize = 0
	}
	if newSize == len(b.contents) {
		return
	}

	kept := min(b.count, newSize)
	resized := make([]byte, newSize)
	copy(resized, b.contents[:kept])
	b.contents = resized
	b.count = kept
}

// Clone returns a buffer owning a copy of the bytes in use, sized exactly.
func (b *ByteBuffer) Clone() ByteBuffer {
	cloned := NewByteBuffer(b.count)
	cloned.Append(b.Bytes())
	return cloned
}

// Release drops the storage and resets b to the canonical empty buffer.
func (b *ByteBuffer) Release() {
	b.count = 0
	b.contents = nil
}
