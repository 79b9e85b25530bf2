// Package hocr reads hOCR documents into word boxes and exposes engines
// that produce hOCR: pre-rendered files and the Kraken CLI.
package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"lekha/internal/domain"
	"lekha/internal/ocr"
)

var charsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
}

// Parse extracts the word boxes of every ocr_line in an hOCR document.
// Lines without ocrx_word children are split evenly into words.
func Parse(data []byte, engineID string) ([]domain.WordBox, error) {
	decoded, err := decode(data)
	if err != nil {
		return nil, err
	}
	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return nil, fmt.Errorf("parse hocr: %w", err)
	}
	if findClass(doc, "ocr_page") == nil {
		return nil, fmt.Errorf("no ocr_page elements found in hocr data")
	}

	var boxes []domain.WordBox
	walk(doc, func(n *html.Node) bool {
		if !hasClass(n, "ocr_line") && !hasClass(n, "ocrx_line") {
			return true
		}
		boxes = append(boxes, lineBoxes(n, engineID)...)
		return false
	})
	return boxes, nil
}

func lineBoxes(line *html.Node, engineID string) []domain.WordBox {
	var words []domain.WordBox
	walk(line, func(n *html.Node) bool {
		if !hasClass(n, "ocrx_word") && !hasClass(n, "ocr_word") {
			return true
		}
		text := strings.TrimSpace(textContent(n))
		bbox, ok := ParseBBox(attr(n, "title"))
		if text != "" && ok {
			words = append(words, domain.WordBox{
				Text:     text,
				Left:     bbox.Left,
				Top:      bbox.Top,
				Width:    bbox.Width,
				Height:   bbox.Height,
				EngineID: engineID,
			})
		}
		return false
	})
	if len(words) > 0 {
		return words
	}
	bbox, ok := ParseBBox(attr(line, "title"))
	if !ok {
		return nil
	}
	return ocr.SplitLine(textContent(line), bbox, engineID)
}

// ParseBBox reads the bbox property of an hOCR title attribute, for
// example "bbox 100 200 300 400; x_wconf 95".
func ParseBBox(title string) (domain.BBox, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) < 5 || fields[0] != "bbox" {
			continue
		}
		var v [4]int
		for i := range v {
			n, err := strconv.Atoi(fields[i+1])
			if err != nil {
				return domain.BBox{}, false
			}
			v[i] = n
		}
		return domain.BBox{Left: v[0], Top: v[1], Width: v[2] - v[0], Height: v[3] - v[1]}, true
	}
	return domain.BBox{}, false
}

// decode converts legacy single-byte charsets declared in a meta tag to
// UTF-8.
func decode(data []byte) ([]byte, error) {
	lower := strings.ToLower(string(data[:min(len(data), 2048)]))
	idx := strings.Index(lower, "charset=")
	if idx < 0 {
		return data, nil
	}
	rest := strings.TrimLeft(lower[idx+len("charset="):], `"'`)
	end := strings.IndexAny(rest, `"'; >/`)
	if end >= 0 {
		rest = rest[:end]
	}
	enc, ok := charsets[rest]
	if !ok {
		return data, nil
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rest, err)
	}
	return out, nil
}

// walk visits n and its descendants depth first. Returning false from
// visit skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findClass(n *html.Node, class string) *html.Node {
	var found *html.Node
	walk(n, func(node *html.Node) bool {
		if found != nil {
			return false
		}
		if hasClass(node, class) {
			found = node
			return false
		}
		return true
	})
	return found
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
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

func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(node *html.Node) {
		if node.Type == html.TextNode {
			b.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return b.String()
}
