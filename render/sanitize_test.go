package render

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitize(t *testing.T) {
	testCases := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain text", in: "just words", want: "just words"},
		{name: "formatting kept", in: "<b>bold</b> and <i>it</i><br>next", want: "<b>bold</b> and <i>it</i><br>next"},
		{name: "entities preserved", in: "Tom &amp; Jerry &#39;s", want: "Tom &amp; Jerry &#39;s"},
		{name: "bare angle bracket", in: "a < b", want: "a &lt; b"},
		{name: "script dropped", in: "hi<script>alert(1)</script>!", want: "hi!"},
		{name: "unknown tag stripped", in: `<div class="x">inside</div>`, want: "inside"},
		{name: "http link kept", in: `<a href="https://www.youtube.com/watch?v=1&amp;t=10" onclick="x()">0:10</a>`, want: `<a href="https://www.youtube.com/watch?v=1&amp;t=10">0:10</a>`},
		{name: "javascript link dropped", in: `<a href="javascript:alert(1)">x</a>`, want: `<a>x</a>`},
		{name: "unclosed tag closed", in: "<b>open", want: "<b>open</b>"},
		{name: "stray end tag", in: "text</b>", want: "text"},
		{name: "misnested", in: "<b><i>x</b>y</i>", want: "<b><i>x</i></b>y"},
		{name: "attributes dropped", in: `<span style="color:red">x</span>`, want: "<span>x</span>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Sanitize(tc.in))
		})
	}
}
