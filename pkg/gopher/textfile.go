package gopher

import "github.com/raskyld/rower/pkg/buffer"

// ParseTextFile undoes the dot-stuffing of a text document.
//
// A dot opening a line is dropped. A line made only of a dot is removed,
// and when that dot is followed by a CR the document ends there.
func ParseTextFile(buf []byte) buffer.TextBuilder {
	out := buffer.NewTextBuilder(len(buf) + 1)

	for i := 0; i < len(buf); i++ {
		c := buf[i]
		if c == '.' && i > 0 && buf[i-1] == '\n' {
			if i+1 < len(buf) {
				switch buf[i+1] {
				case '\r':
					return out
				case '\n':
					i++
				}
			}
			continue
		}
		out.AppendChar(c)
	}

	return out
}
