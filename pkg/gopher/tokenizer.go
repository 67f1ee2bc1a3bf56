package gopher

import "github.com/raskyld/rower/pkg/buffer"

// Tokenizer lexes RFC 1436 directory tokens out of a source buffer.
//
// Tokens are:
//
// * The first byte of every line, always alone.
// * Anything between tabs, including nothing.
// * Line ends: a CR or LF that follows a non-whitespace byte closes the
// current token and starts a new one, so a well-formed line ends with a
// token that is exactly "\r\n".
//
// A NUL byte or the end of the source ends the stream.
type Tokenizer struct {
	source []byte
	pos    int
}

func NewTokenizer(source []byte) *Tokenizer {
	return &Tokenizer{source: source}
}

// Pos returns the cursor position.
func (t *Tokenizer) Pos() int {
	return t.pos
}

// Next returns the next token. Past the end of the source it returns a
// released TextBuilder, see IsEOF.
func (t *Tokenizer) Next() buffer.TextBuilder {
	return NextToken(t.source, &t.pos)
}

// IsEOF reports whether tok is the end-of-source sentinel.
func IsEOF(tok *buffer.TextBuilder) bool {
	return tok.Cap() == 0
}

// NextToken reads the token starting at *pos and advances *pos past it.
func NextToken(source []byte, pos *int) buffer.TextBuilder {
	p := *pos
	if p >= len(source) || source[p] == 0 {
		return buffer.TextBuilder{}
	}

	tok := buffer.NewTextBuilder(buffer.DefaultTextSize)
	if p == 0 || source[p-1] == '\n' {
		tok.AppendChar(source[p])
		*pos = p + 1
		return tok
	}

	for ; p < len(source) && source[p] != 0; p++ {
		c := source[p]
		switch c {
		case '\t':
			*pos = p + 1
			return tok
		case '\r', '\n':
			if last, ok := tok.LastChar(); ok && !isSpace(last) {
				// The line end becomes its own token.
				*pos = p
				return tok
			}
			tok.AppendChar(c)
			if c == '\n' {
				*pos = p + 1
				return tok
			}
		default:
			tok.AppendChar(c)
		}
	}

	*pos = p
	return tok
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
