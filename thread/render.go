package thread

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.gohtml
var templatesFS embed.FS

// Fragment names that can be rendered for a single comment.
const (
	FragmentComment   = "comment"
	FragmentBody      = "comment-body"
	FragmentLike      = "comment-like"
	FragmentOptions   = "comment-options"
	FragmentReplyForm = "comment-reply-form"
)

// RenderContext is what every comment template needs besides the node.
type RenderContext struct {
	PostID    string
	Viewer    Viewer
	CSRFField template.HTML
}

type nodeData struct {
	*Node

	Ctx RenderContext
}

type threadData struct {
	View *View
	Ctx  RenderContext
}

// Renderer renders a View as nested HTML. Comment bodies go through markdown,
// which must return sanitized HTML.
type Renderer struct {
	tpl *template.Template
}

func NewRenderer(markdown func(source string) template.HTML) (*Renderer, error) {
	funcs := template.FuncMap{
		"markdown": markdown,
		"node": func(node *Node, ctx RenderContext) nodeData {
			return nodeData{Node: node, Ctx: ctx}
		},
	}

	tpl, err := template.New("").Funcs(funcs).ParseFS(templatesFS, "templates/*.gohtml")
	if err != nil {
		return nil, fmt.Errorf("failed to parse thread templates: %w", err)
	}

	return &Renderer{tpl: tpl}, nil
}

// RenderThread writes the whole comment section of a post.
func (r *Renderer) RenderThread(w io.Writer, view *View, ctx RenderContext) error {
	err := r.tpl.ExecuteTemplate(w, "thread", threadData{View: view, Ctx: ctx})
	if err != nil {
		return fmt.Errorf("failed to execute thread template: %w", err)
	}

	return nil
}

// RenderNode writes one fragment of a comment, e.g. FragmentLike after a like
// change.
func (r *Renderer) RenderNode(w io.Writer, fragment string, node *Node, ctx RenderContext) error {
	err := r.tpl.ExecuteTemplate(w, fragment, nodeData{Node: node, Ctx: ctx})
	if err != nil {
		return fmt.Errorf("failed to execute %s template: %w", fragment, err)
	}

	return nil
}
