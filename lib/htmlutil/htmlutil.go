// Package htmlutil walks the text nodes of a parsed html tree.
//
// The portal lays out values by the position of text nodes rather than by markup,
// so these helpers keep every text node as-is, whitespace-only nodes included.
package htmlutil

import (
	"bytes"

	"golang.org/x/net/html"
)

// GetText concatenates every text node under node in document order.
func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	walkText(node, func(text string) bool {
		buffer.WriteString(text)
		return true
	})
	return buffer.String()
}

// TextNodes returns the contents of every text node under node in document order.
func TextNodes(node *html.Node) []string {
	texts := []string{}
	walkText(node, func(text string) bool {
		texts = append(texts, text)
		return true
	})
	return texts
}

// FirstText returns the first text node under node, ok is false if node is nil or has no text nodes.
func FirstText(node *html.Node) (text string, ok bool) {
	walkText(node, func(t string) bool {
		text = t
		ok = true
		return false
	})
	return text, ok
}

// walkText calls visit for each text node until visit returns false.
func walkText(node *html.Node, visit func(text string) bool) bool {
	if node == nil {
		return true
	}
	if node.Type == html.TextNode {
		return visit(node.Data)
	}
	for child := node.FirstChild; child != nil; child = child.NextSibling {
		if !walkText(child, visit) {
			return false
		}
	}
	return true
}
