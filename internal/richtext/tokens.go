package richtext

import "strings"

// Kind is the type of a Segment.
type Kind int

const (
	KindText Kind = iota
	KindBold
	KindBreak
)

// Segment is one display token. Text is empty for KindBreak.
type Segment struct {
	Kind Kind
	Text string
}

var breakForms = []string{lineBreak, "<br>", "<br />"}

// Parse tokenizes a fragment produced by FormatHTML. Only <strong>…</strong>
// pairs and line breaks are recognized; every other byte is kept as literal
// text, so markup from the provider is never interpreted.
func Parse(fragment string) []Segment {
	var (
		segs []Segment
		buf  strings.Builder
		bold bool
	)
	flush := func() {
		if buf.Len() == 0 {
			return
		}
		kind := KindText
		if bold {
			kind = KindBold
		}
		segs = appendText(segs, kind, buf.String())
		buf.Reset()
	}

	rest := fragment
	for len(rest) > 0 {
		if n := breakPrefix(rest); n > 0 {
			flush()
			segs = append(segs, Segment{Kind: KindBreak})
			rest = rest[n:]
			continue
		}
		if !bold && strings.HasPrefix(rest, strongOpen) && strings.Contains(rest[len(strongOpen):], strongClose) {
			flush()
			bold = true
			rest = rest[len(strongOpen):]
			continue
		}
		if bold && strings.HasPrefix(rest, strongClose) {
			flush()
			bold = false
			rest = rest[len(strongClose):]
			continue
		}
		buf.WriteByte(rest[0])
		rest = rest[1:]
	}
	flush()
	return segs
}

// PlainText renders segments without styling, one newline per break.
func PlainText(segs []Segment) string {
	var b strings.Builder
	for _, s := range segs {
		if s.Kind == KindBreak {
			b.WriteByte('\n')
			continue
		}
		b.WriteString(s.Text)
	}
	return b.String()
}

func breakPrefix(s string) int {
	for _, f := range breakForms {
		if strings.HasPrefix(s, f) {
			return len(f)
		}
	}
	return 0
}

func appendText(segs []Segment, kind Kind, text string) []Segment {
	if n := len(segs); n > 0 && segs[n-1].Kind == kind {
		segs[n-1].Text += text
		return segs
	}
	return append(segs, Segment{Kind: kind, Text: text})
}
