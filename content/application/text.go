package application

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	MetaDescriptionLength = 160
	ExcerptLength         = 200
	expandMaxLines        = 3
	expandMaxChars        = 500
)

// ResolveImageURL keeps absolute URLs and joins relative paths onto the
// storage base. An empty path yields "".
func ResolveImageURL(storageURL, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimSuffix(storageURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

type storageImageTransformer struct {
	storageURL string
}

// Transform points relative image sources at the storage host.
func (t *storageImageTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		img, ok := n.(*ast.Image)
		if !ok {
			return ast.WalkContinue, nil
		}

		dest := string(img.Destination)
		if isRelativeLink(dest) {
			img.Destination = []byte(ResolveImageURL(t.storageURL, dest))
		}
		return ast.WalkContinue, nil
	})
}

func isRelativeLink(dest string) bool {
	if strings.HasPrefix(dest, "//") {
		return false
	}
	if strings.HasPrefix(dest, "/") || strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}
	return !strings.Contains(dest, ":")
}

// DescriptionRenderer turns the plain-text product description into HTML.
// Raw HTML in the input is omitted and single newlines become line breaks.
type DescriptionRenderer struct {
	renderer goldmark.Markdown
}

func NewDescriptionRenderer(storageURL string) *DescriptionRenderer {
	renderer := goldmark.New(
		goldmark.WithExtensions(
			extension.Linkify,
			extension.Strikethrough,
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(&storageImageTransformer{storageURL: storageURL}, 100),
			),
		),
		goldmark.WithRendererOptions(
			gmhtml.WithHardWraps(),
		),
	)

	return &DescriptionRenderer{
		renderer: renderer,
	}
}

func (r *DescriptionRenderer) Render(description string) (string, error) {
	var buf bytes.Buffer
	if err := r.renderer.Convert([]byte(description), &buf); err != nil {
		return "", fmt.Errorf("failed to convert description to HTML: %w", err)
	}
	return buf.String(), nil
}

// ShouldExpand reports whether a description is long enough to be collapsed
// behind a "Xem thêm" toggle.
func ShouldExpand(content string) bool {
	lines := strings.Count(content, "\n") + 1
	return lines > expandMaxLines || utf8.RuneCountInString(content) > expandMaxChars
}

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`[\s\p{Zs}]+`)
)

// StripHTML removes tags, decodes entities and collapses whitespace.
func StripHTML(s string) string {
	s = tagPattern.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(s, " "))
}

// Truncate cuts s to at most limit runes, backing off to the last space and
// appending "..." when anything was removed.
func Truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	runes := []rune(s)
	cut := string(runes[:limit])
	if lastSpace := strings.LastIndexAny(cut, " \t"); lastSpace > 0 {
		cut = cut[:lastSpace]
	}
	return strings.TrimRight(cut, " ,.;:") + "..."
}

// MetaDescription prefers the explicit description and falls back to the
// text of the HTML body.
func MetaDescription(description *string, content string) string {
	if description != nil {
		if d := strings.TrimSpace(*description); d != "" {
			return Truncate(d, MetaDescriptionLength)
		}
	}
	return Truncate(StripHTML(content), MetaDescriptionLength)
}

// Excerpt is the plain-text teaser shown on post cards.
func Excerpt(content string) string {
	return Truncate(StripHTML(content), ExcerptLength)
}
