package render

import "strings"

// Segment is a run of plain text or a math span of the markup.
type Segment struct {
	Text    string
	Math    bool
	Display bool
	// Closed is false for a math span that runs to the end of the markup.
	Closed bool
}

// TeX returns the formula body handed to the math typesetter, which supplies
// the inline delimiters itself. Display spans are set with \displaystyle.
func (s Segment) TeX() string {
	if s.Display {
		return `\displaystyle ` + s.Text
	}
	return s.Text
}

// Split cuts markup into alternating text runs and math spans. Outside math
// `\$` is a literal dollar; inside math every backslash pair is kept verbatim
// so `\$` and `\\` never close the span.
func Split(markup string) []Segment {
	var (
		segs []Segment
		buf  strings.Builder
	)
	flushText := func() {
		if buf.Len() > 0 {
			segs = append(segs, Segment{Text: buf.String()})
			buf.Reset()
		}
	}

	for i := 0; i < len(markup); {
		c := markup[i]
		if c == '\\' && i+1 < len(markup) && markup[i+1] == '$' {
			buf.WriteByte('$')
			i += 2
			continue
		}
		if c != '$' {
			buf.WriteByte(c)
			i++
			continue
		}

		flushText()
		display := strings.HasPrefix(markup[i:], "$$")
		delim := "$"
		if display {
			delim = "$$"
		}
		i += len(delim)

		seg := Segment{Math: true, Display: display}
		var body strings.Builder
		for i < len(markup) {
			if markup[i] == '\\' && i+1 < len(markup) {
				body.WriteString(markup[i : i+2])
				i += 2
				continue
			}
			if strings.HasPrefix(markup[i:], delim) {
				seg.Closed = true
				i += len(delim)
				break
			}
			body.WriteByte(markup[i])
			i++
		}
		seg.Text = body.String()
		segs = append(segs, seg)
	}
	flushText()
	return segs
}
