package comments

// Comment is a single public comment as the platform displays it. It is never
// modified after a source produces it.
type Comment struct {
	Avatar     string `json:"avatar" yaml:"avatar"`
	Username   string `json:"username" yaml:"username"`
	DatePosted string `json:"datePosted" yaml:"datePosted"`
	LikeCount  int    `json:"likeCount" yaml:"likeCount"`
	ReplyCount int    `json:"replyCount" yaml:"replyCount"`
	Content    string `json:"content" yaml:"content"`
}
