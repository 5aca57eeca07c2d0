package extract

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

type WebExtractor struct {
	client *http.Client
}

func NewWebExtractor() *WebExtractor {
	return &WebExtractor{client: newHTTPClient()}
}

func (e *WebExtractor) Extract(ctx context.Context, rawURL string) (string, string, error) {
	raw, err := fetch(ctx, e.client, rawURL, "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if err != nil {
		return "", "", fmt.Errorf("fetch page failed: %w", err)
	}
	doc, err := html.Parse(bytes.NewReader(raw))
	if err != nil {
		return "", "", fmt.Errorf("parse html failed: %w", err)
	}
	return pageTitle(doc), pageText(doc), nil
}

// Elements that carry navigation or chrome rather than manual content.
var strippedElements = map[string]bool{
	"script": true,
	"style":  true,
	"nav":    true,
	"footer": true,
	"header": true,
	"aside":  true,
}

var strippedClasses = []string{"navigation", "sidebar", "menu", "ad", "advertisement"}

// contentMatchers locate the main content region, tried in order before
// falling back to the whole body.
var contentMatchers = []matcher{
	elementMatcher("main"),
	elementMatcher("article"),
	classMatcher("content"),
	classMatcher("main-content"),
	idMatcher("content"),
	idMatcher("main"),
	classMatcher("post-content"),
	classMatcher("entry-content"),
}

// pageTitle resolves a display title with fallbacks: og:title meta, generic
// meta title, the title element, the first heading, then "Untitled".
func pageTitle(doc *html.Node) string {
	if n := findNode(doc, metaMatcher("property", "og:title")); n != nil {
		if v := strings.TrimSpace(attr(n, "content")); v != "" {
			return v
		}
	}
	if n := findNode(doc, metaMatcher("name", "title")); n != nil {
		if v := strings.TrimSpace(attr(n, "content")); v != "" {
			return v
		}
	}
	if n := findNode(doc, elementMatcher("title")); n != nil {
		if v := strings.TrimSpace(nodeText(n)); v != "" {
			return v
		}
	}
	if n := findNode(doc, elementMatcher("h1")); n != nil {
		if v := strings.TrimSpace(nodeText(n)); v != "" {
			return v
		}
	}
	return "Untitled"
}

// pageText extracts whitespace-normalized text from the main content region.
func pageText(doc *html.Node) string {
	var root *html.Node
	for _, match := range contentMatchers {
		if n := findNode(doc, match); n != nil {
			root = n
			break
		}
	}
	if root == nil {
		root = findNode(doc, elementMatcher("body"))
	}
	if root == nil {
		root = doc
	}
	return strings.Join(strings.Fields(nodeText(root)), " ")
}

type matcher func(n *html.Node) bool

func elementMatcher(name string) matcher {
	return func(n *html.Node) bool { return n.Data == name }
}

func classMatcher(class string) matcher {
	return func(n *html.Node) bool { return hasClass(n, class) }
}

func idMatcher(id string) matcher {
	return func(n *html.Node) bool { return attr(n, "id") == id }
}

func metaMatcher(key, value string) matcher {
	return func(n *html.Node) bool { return n.Data == "meta" && attr(n, key) == value }
}

// findNode walks depth-first for the first matching element, never descending
// into stripped subtrees.
func findNode(n *html.Node, match matcher) *html.Node {
	if n.Type == html.ElementNode {
		if stripped(n) {
			return nil
		}
		if match(n) {
			return n
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, match); found != nil {
			return found
		}
	}
	return nil
}

// nodeText concatenates the text nodes under n, skipping stripped subtrees.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && stripped(n) {
			return
		}
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte(' ')
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func stripped(n *html.Node) bool {
	if strippedElements[n.Data] {
		return true
	}
	for _, class := range strippedClasses {
		if hasClass(n, class) {
			return true
		}
	}
	return false
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
