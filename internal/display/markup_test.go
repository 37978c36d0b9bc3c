package display

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeMarkup(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "hello", "hello"},
		{"bold kept", "<b>hi</b>", "<b>hi</b>"},
		{"attributes dropped", `<b class="x">hi</b>`, "<b>hi</b>"},
		{"uppercase tag", "<I>hi</I>", "<i>hi</i>"},
		{"link stripped to text", `<a href="https://example.com">site</a>`, "site"},
		{"image removed", `see <img src="/tmp/x.png" alt="x"/> here`, "see  here"},
		{"unclosed tag closed", "<b>open", "<b>open</b>"},
		{"stray close dropped", "text</u>", "text"},
		{"misnested close dropped", "<b><i>x</b></i>", "<b><i>x</i></b>"},
		{"lone angle brackets escaped", "1 < 2 > 0", "1 &lt; 2 &gt; 0"},
		{"ampersand escaped", "R&D", "R&amp;D"},
		{"entity preserved", "fish &amp; chips &#39;", "fish &amp; chips &#39;"},
		{"xml entities preserved", "&lt;&gt;&quot;&apos;", "&lt;&gt;&quot;&apos;"},
		{"html entity escaped", "Tom&nbsp;&amp; Jerry", "Tom&amp;nbsp;&amp; Jerry"},
		{"accent entity escaped", "caf&eacute;", "caf&amp;eacute;"},
		{"decimal reference kept", "caf&#233;", "caf&#233;"},
		{"hex reference kept", "caf&#xE9;", "caf&#xE9;"},
		{"nul reference escaped", "a&#0;b", "a&amp;#0;b"},
		{"control reference escaped", "&#x1;", "&amp;#x1;"},
		{"surrogate reference escaped", "&#xD800;", "&amp;#xD800;"},
		{"out of range reference escaped", "&#x110000;", "&amp;#x110000;"},
		{"overlong reference escaped", "&#1234567890;", "&amp;#1234567890;"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeMarkup(tt.in))
		})
	}
}

func TestSanitizeClassName(t *testing.T) {
	assert.Equal(t, "im-received", sanitizeClassName("im.received"))
	assert.Equal(t, "firefox-nightly", sanitizeClassName("Firefox  Nightly!"))
	assert.Equal(t, "", sanitizeClassName("!!!"))
}
