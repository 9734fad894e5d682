package render

import (
	"bytes"
	"html/template"
	"strconv"

	"comment-shots/comments"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
)

// Selector locates the comment container in the rendered document.
const Selector = "#comment"

// Width is the layout width of the comment container in CSS pixels.
const Width = 500

type palette struct {
	Background template.CSS
	Text       template.CSS
	Secondary  template.CSS
	Border     template.CSS
}

var palettes = map[comments.Theme]palette{
	comments.ThemeDark: {
		Background: "#0f0f0f",
		Text:       "#f1f1f1",
		Secondary:  "#aaaaaa",
		Border:     "#3f3f3f",
	},
	comments.ThemeLight: {
		Background: "#ffffff",
		Text:       "#0f0f0f",
		Secondary:  "#606060",
		Border:     "#e5e5e5",
	},
}

type documentData struct {
	Palette  palette
	Width    int
	Avatar   string
	Username string
	Date     string
	Content  template.HTML
	Likes    string
}

var documentTemplate = template.Must(template.New("comment").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
body {
  margin: 0;
  padding: 0;
  background: transparent;
  font-family: "Roboto", "Arial", sans-serif;
}
#comment {
  box-sizing: border-box;
  width: {{.Width}}px;
  display: flex;
  align-items: flex-start;
  padding: 12px 16px;
  background: {{.Palette.Background}};
  color: {{.Palette.Text}};
  border: 1px solid {{.Palette.Border}};
  border-radius: 12px;
}
.avatar {
  flex: none;
  width: 40px;
  height: 40px;
  margin-right: 16px;
  border-radius: 50%;
  background: {{.Palette.Border}};
  object-fit: cover;
}
.body {
  flex: auto;
  min-width: 0;
}
.header {
  font-size: 13px;
  line-height: 18px;
  margin-bottom: 2px;
}
.username {
  font-weight: 500;
  margin-right: 4px;
}
.date {
  color: {{.Palette.Secondary}};
}
.content {
  font-size: 14px;
  line-height: 20px;
  white-space: pre-wrap;
  overflow-wrap: anywhere;
}
.content a {
  color: #3ea6ff;
  text-decoration: none;
}
.toolbar {
  display: flex;
  align-items: center;
  margin-top: 4px;
  font-size: 12px;
  color: {{.Palette.Secondary}};
}
.toolbar svg {
  width: 20px;
  height: 20px;
  fill: {{.Palette.Text}};
}
.like, .dislike {
  display: flex;
  align-items: center;
  margin-right: 12px;
}
.like-count {
  margin-left: 4px;
}
.reply {
  font-weight: 500;
  color: {{.Palette.Text}};
}
</style>
</head>
<body>
<div id="comment">
  {{if .Avatar}}<img class="avatar" src="{{.Avatar}}" alt="">{{else}}<div class="avatar"></div>{{end}}
  <div class="body">
    <div class="header"><span class="username">{{.Username}}</span><span class="date">{{.Date}}</span></div>
    <div class="content">{{.Content}}</div>
    <div class="toolbar">
      <span class="like"><svg viewBox="0 0 24 24"><path d="M18.77 11h-4.23l1.52-4.94C16.38 5.03 15.54 4 14.38 4c-.58 0-1.14.24-1.52.65L7 11H3v10h14.43c1.06 0 1.98-.67 2.19-1.61l1.34-6c.27-1.24-.78-2.39-2.19-2.39zM7 20H4v-8h3v8zm12.98-6.83-1.34 6c-.1.48-.61.83-1.21.83H8v-8.61l5.6-6.06c.19-.21.48-.33.78-.33.26 0 .5.11.63.3.07.1.15.26.09.47l-1.52 4.94-.4 1.29h5.58c.41 0 .8.17 1.03.46.13.15.26.39.19.74z"/></svg><span class="like-count">{{.Likes}}</span></span>
      <span class="dislike"><svg viewBox="0 0 24 24"><path d="M17 4h-1H6.57c-1.06 0-1.98.67-2.19 1.61l-1.34 6C2.77 12.85 3.82 14 5.23 14h4.23l-1.52 4.94C7.62 19.97 8.46 21 9.62 21c.58 0 1.14-.24 1.52-.65L17 14h4V4h-4zm-6.6 15.67c-.19.21-.48.33-.78.33-.26 0-.5-.11-.63-.3-.07-.1-.15-.26-.09-.47l1.52-4.94.4-1.29H5.23c-.41 0-.8-.17-1.03-.46-.12-.15-.25-.39-.18-.74l1.34-6c.1-.47.61-.82 1.21-.82H16v8.61l-5.6 6.08zM20 13h-3V5h3v8z"/></svg></span>
      <span class="reply">Reply</span>
    </div>
  </div>
</div>
</body>
</html>
`))

// Document builds the HTML document for a comment. The body is passed through
// Sanitize before it is embedded.
func Document(comment *comments.Comment, theme comments.Theme, date string) (string, error) {
	colours, ok := palettes[theme]
	if !ok {
		return "", errors.Errorf("unknown theme %q", theme)
	}

	data := documentData{
		Palette:  colours,
		Width:    Width,
		Avatar:   comment.Avatar,
		Username: comment.Username,
		Date:     date,
		Content:  template.HTML(Sanitize(comment.Content)),
		Likes:    formatCount(comment.LikeCount),
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return "", errors.Wrap(err, "could not execute the comment template")
	}

	return buf.String(), nil
}

// countSuffixes maps SI prefixes to the platform's count suffixes.
var countSuffixes = map[string]string{"k": "K", "M": "M", "G": "B"}

// formatCount abbreviates counts the way the platform does: 999, 1.2K, 3.4M.
// Digits are truncated, never rounded up.
func formatCount(n int) string {
	if n < 1000 {
		return strconv.Itoa(n)
	}

	value, prefix := humanize.ComputeSI(float64(n))
	digits := 0
	if value < 10 {
		digits = 1
	}

	return humanize.FtoaWithDigits(value, digits) + countSuffixes[prefix]
}
