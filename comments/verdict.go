package comments

import "unicode/utf16"

// Rejection reasons, in the order Evaluate reports them.
const (
	ReasonInsufficientLikes   = "insufficient likes"
	ReasonInsufficientReplies = "insufficient replies"
	ReasonFilteredWord        = "contains filtered word"
	ReasonTooLong             = "exceeds max characters"
)

// Verdict is the outcome of evaluating a matched comment.
type Verdict struct {
	Accepted bool
	Reasons  []string
}

// Evaluate checks a comment against the criteria. Comments that do not match
// any search term are skipped and ok is false. Matched comments collect every
// failing check rather than stopping at the first one.
func Evaluate(comment *Comment, criteria *Criteria) (verdict Verdict, ok bool) {
	if !Match(comment, criteria) {
		return Verdict{}, false
	}

	var reasons []string
	if comment.LikeCount < criteria.MinLikes {
		reasons = append(reasons, ReasonInsufficientLikes)
	}
	if comment.ReplyCount < criteria.MinReplies {
		reasons = append(reasons, ReasonInsufficientReplies)
	}
	if containsAny(comment.Content, criteria.FilteredWords) {
		reasons = append(reasons, ReasonFilteredWord)
	}
	if criteria.MaxChars > 0 && Length(comment.Content) > criteria.MaxChars {
		reasons = append(reasons, ReasonTooLong)
	}

	return Verdict{Accepted: len(reasons) == 0, Reasons: reasons}, true
}

// Length counts UTF-16 code units, which is how the platform counts
// characters.
func Length(s string) int {
	return len(utf16.Encode([]rune(s)))
}
