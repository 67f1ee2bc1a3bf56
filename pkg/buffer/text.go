package buffer

import "strings"

// DefaultTextSize is the capacity tokens start with.
const DefaultTextSize = 32

// TextBuilder is a growable, NUL-terminated text store.
//
// Capacity counts the terminator. A capacity of 0 is the released state and
// doubles as the "no token" sentinel of the tokenizer.
type TextBuilder struct {
	length int
	// len(contents) is the capacity and contents[length] is always 0 when
	// the capacity is not 0.
	contents []byte
}

// NewTextBuilder allocates an empty builder with room for capacity bytes,
// terminator included.
func NewTextBuilder(capacity int) TextBuilder {
	if capacity <= 0 {
		return TextBuilder{}
	}
	return TextBuilder{contents: make([]byte, capacity)}
}

// NewTextBuilderWithContents allocates a builder sized exactly for s.
func NewTextBuilderWithContents(s string) TextBuilder {
	sb := NewTextBuilder(len(s) + 1)
	copy(sb.contents, s)
	sb.length = len(s)
	return sb
}

// Len returns the length of the text, terminator excluded.
func (sb *TextBuilder) Len() int {
	return sb.length
}

// Cap returns the allocated size, terminator included.
func (sb *TextBuilder) Cap() int {
	return len(sb.contents)
}

// Released reports whether sb holds no storage.
func (sb *TextBuilder) Released() bool {
	return len(sb.contents) == 0
}

func (sb *TextBuilder) String() string {
	return string(sb.contents[:sb.length])
}

// Bytes returns the text without its terminator. The slice aliases the
// builder storage.
func (sb *TextBuilder) Bytes() []byte {
	return sb.contents[:sb.length]
}

// Equal reports whether the text is exactly s.
func (sb *TextBuilder) Equal(s string) bool {
	return string(sb.contents[:sb.length]) == s
}

// LastChar returns the last byte of the text, if any.
func (sb *TextBuilder) LastChar() (byte, bool) {
	if sb.length == 0 {
		return 0, false
	}
	return sb.contents[sb.length-1], true
}

// SetContents replaces the text with s.
func (sb *TextBuilder) SetContents(s string) {
	sb.reserve(len(s) + 1)
	copy(sb.contents, s)
	sb.length = len(s)
	sb.contents[sb.length] = 0
}

// AppendContents appends s to the text.
func (sb *TextBuilder) AppendContents(s string) {
	sb.reserve(sb.length + len(s) + 1)
	copy(sb.contents[sb.length:], s)
	sb.length += len(s)
	sb.contents[sb.length] = 0
}

// AppendChar appends a single byte to the text.
func (sb *TextBuilder) AppendChar(c byte) {
	sb.reserve(sb.length + 2)
	sb.contents[sb.length] = c
	sb.length++
	sb.contents[sb.length] = 0
}

// Release drops the storage. Releasing twice is a no-op.
func (sb *TextBuilder) Release() {
	if len(sb.contents) == 0 {
		return
	}
	sb.length = 0
	sb.contents = nil
}

// reserve reallocates to exactly required bytes when the current capacity
// is smaller.
func (sb *TextBuilder) reserve(required int) {
	if required <= len(sb.contents) {
		return
	}
	grown := make([]byte, required)
	copy(grown, sb.contents[:sb.length])
	sb.contents = grown
}

// TextView is an immutable string with a cached length.
//
// The zero value is the canonical empty view. It owns nothing and releasing
// it does nothing.
type TextView struct {
	length   int
	contents string
}

// NewTextView returns a view owning a copy of s.
func NewTextView(s string) TextView {
	if len(s) == 0 {
		return TextView{}
	}
	return TextView{length: len(s), contents: strings.Clone(s)}
}

// NewTextViewFromBuilder returns a view owning a copy of the text of sb.
func NewTextViewFromBuilder(sb *TextBuilder) TextView {
	return NewTextView(sb.String())
}

func (v TextView) Len() int {
	return v.length
}

func (v TextView) IsEmpty() bool {
	return v.length == 0
}

func (v TextView) String() string {
	return v.contents
}

// Release resets v to the canonical empty view.
func (v *TextView) Release() {
	if v.length == 0 {
		return
	}
	v.length = 0
	v.contents = ""
}
