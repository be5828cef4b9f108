package thread

import "unicode/utf8"

// TruncateLimit is the number of characters shown before a long comment is
// cut with a "See more" control.
const TruncateLimit = 200

const (
	SeeMore = "See more"
	SeeLess = "See less"
)

// Body is the visible part of a comment.
type Body struct {
	Text string
	// Truncated is set when Text is a prefix of the content.
	Truncated bool
	// Toggle is the label of the expand/collapse control, empty for short content.
	Toggle string
}

func TruncateBody(content string, expanded bool) Body {
	if utf8.RuneCountInString(content) <= TruncateLimit {
		return Body{Text: content, Truncated: false, Toggle: ""}
	}

	if expanded {
		return Body{Text: content, Truncated: false, Toggle: SeeLess}
	}

	runes := 0

	for i := range content {
		if runes == TruncateLimit {
			return Body{Text: content[:i], Truncated: true, Toggle: SeeMore}
		}

		runes++
	}

	return Body{Text: content, Truncated: false, Toggle: ""}
}
