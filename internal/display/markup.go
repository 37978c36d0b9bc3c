package display

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var (
	tagRe    = regexp.MustCompile(`<(/?)([a-zA-Z]+)[^<>]*>`)
	entityRe = regexp.MustCompile(`^&(?:(lt|gt|amp|quot|apos)|#([0-9]{1,8})|#x([0-9a-fA-F]{1,8}));`)
)

// allowedTags are the body markup tags Pango renders. Links and images are
// stripped to their text.
var allowedTags = map[string]bool{"b": true, "i": true, "u": true}

// sanitizeMarkup reduces notification body markup to well-formed Pango
// markup: known tags lose their attributes, unknown tags are dropped, stray
// angle brackets and ampersands are escaped and unclosed tags are closed.
func sanitizeMarkup(body string) string {
	var out strings.Builder
	var open []string

	last := 0
	for _, loc := range tagRe.FindAllStringSubmatchIndex(body, -1) {
		out.WriteString(escapeText(body[last:loc[0]]))
		last = loc[1]

		closing := loc[3] > loc[2]
		name := strings.ToLower(body[loc[4]:loc[5]])
		if !allowedTags[name] {
			continue
		}

		if !closing {
			open = append(open, name)
			out.WriteString("<" + name + ">")
			continue
		}
		if len(open) > 0 && open[len(open)-1] == name {
			open = open[:len(open)-1]
			out.WriteString("</" + name + ">")
		}
	}
	out.WriteString(escapeText(body[last:]))

	for i := len(open) - 1; i >= 0; i-- {
		out.WriteString("</" + open[i] + ">")
	}
	return out.String()
}

// validEntity returns the entity at the start of s if Pango accepts it: one
// of the five XML named entities or a character reference to a legal XML
// character. HTML names like &nbsp; are not valid markup.
func validEntity(s string) string {
	m := entityRe.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	if m[1] != "" {
		return m[0]
	}

	digits, base := m[2], 10
	if digits == "" {
		digits, base = m[3], 16
	}
	v, err := strconv.ParseUint(digits, base, 32)
	if err != nil || !xmlChar(rune(v)) {
		return ""
	}
	return m[0]
}

func xmlChar(r rune) bool {
	switch {
	case r == '\t' || r == '\n' || r == '\r':
		return true
	case r < 0x20, r == 0xFFFE, r == 0xFFFF:
		return false
	}
	return utf8.ValidRune(r)
}

// escapeText escapes markup metacharacters, leaving valid entities alone.
func escapeText(s string) string {
	var out strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '<':
			out.WriteString("&lt;")
		case '>':
			out.WriteString("&gt;")
		case '&':
			if m := validEntity(s[i:]); m != "" {
				out.WriteString(m)
				i += len(m) - 1
			} else {
				out.WriteString("&amp;")
			}
		default:
			out.WriteByte(c)
		}
	}
	return out.String()
}
