package thread_test

import (
	"strings"
	"testing"

	"github.com/nasermirzaei89/agora/thread"
	"github.com/stretchr/testify/assert"
)

func TestTruncateBody(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("a", 200) + "b"
	exact := strings.Repeat("a", 200)
	multiByte := strings.Repeat("é", 201)

	tests := []struct {
		name     string
		content  string
		expanded bool
		expected thread.Body
	}{
		{
			name:     "short content",
			content:  "hello",
			expected: thread.Body{Text: "hello"},
		},
		{
			name:     "exactly the limit is shown in full",
			content:  exact,
			expected: thread.Body{Text: exact},
		},
		{
			name:     "one over the limit is truncated",
			content:  long,
			expected: thread.Body{Text: exact, Truncated: true, Toggle: thread.SeeMore},
		},
		{
			name:     "expanded long content",
			content:  long,
			expanded: true,
			expected: thread.Body{Text: long, Toggle: thread.SeeLess},
		},
		{
			name:     "expanded flag ignored for short content",
			content:  exact,
			expanded: true,
			expected: thread.Body{Text: exact},
		},
		{
			name:     "limit counts characters not bytes",
			content:  multiByte,
			expected: thread.Body{Text: strings.Repeat("é", 200), Truncated: true, Toggle: thread.SeeMore},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, thread.TruncateBody(tt.content, tt.expanded))
		})
	}
}
