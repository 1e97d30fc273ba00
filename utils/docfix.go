/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package utils

import (
	"bytes"
	"fmt"
	"strings"

	nethtml "golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/humaidq/ennu/rules"
)

var parseHTMLFragment = nethtml.ParseFragment

var renderHTML = nethtml.Render

// DocFixReport counts the edits made to one document.
type DocFixReport struct {
	NamesReplaced     int `json:"names_replaced"`
	ScriptsRemoved    int `json:"scripts_removed"`
	HandlersRemoved   int `json:"handlers_removed"`
	UnsafeURLsCleared int `json:"unsafe_urls_cleared"`
}

// Changed reports whether any edit was made.
func (r DocFixReport) Changed() bool {
	return r.NamesReplaced+r.ScriptsRemoved+r.HandlersRemoved+r.UnsafeURLsCleared > 0
}

// FixDocumentationHTML renames deprecated biomarker names in text nodes and
// strips script elements, inline event handlers and javascript: URLs.
func FixDocumentationHTML(body string, replacements []rules.Replacement) (string, DocFixReport, error) {
	var report DocFixReport

	for _, r := range replacements {
		if r.From == "" {
			return "", report, errEmptyReplacement
		}
	}

	if strings.TrimSpace(body) == "" {
		return body, report, nil
	}

	container := &nethtml.Node{Type: nethtml.ElementNode, Data: "div", DataAtom: atom.Div}
	nodes, err := parseHTMLFragment(strings.NewReader(body), container)
	if err != nil {
		return "", report, fmt.Errorf("failed to parse documentation: %w", err)
	}

	for _, node := range nodes {
		container.AppendChild(node)
	}

	fixNode(container, replacements, &report)

	if !report.Changed() {
		return body, report, nil
	}

	var buffer bytes.Buffer
	for child := container.FirstChild; child != nil; child = child.NextSibling {
		if err := renderHTML(&buffer, child); err != nil {
			return "", report, fmt.Errorf("failed to render documentation: %w", err)
		}
	}

	return buffer.String(), report, nil
}

func fixNode(node *nethtml.Node, replacements []rules.Replacement, report *DocFixReport) {
	child := node.FirstChild
	for child != nil {
		next := child.NextSibling

		switch child.Type {
		case nethtml.ElementNode:
			if child.DataAtom == atom.Script {
				node.RemoveChild(child)
				report.ScriptsRemoved++
				child = next
				continue
			}
			child.Attr = cleanAttributes(child.Attr, report)
			fixNode(child, replacements, report)
		case nethtml.TextNode:
			child.Data = replaceNames(child.Data, replacements, report)
		}

		child = next
	}
}

func cleanAttributes(attrs []nethtml.Attribute, report *DocFixReport) []nethtml.Attribute {
	kept := attrs[:0]
	for _, attr := range attrs {
		key := strings.ToLower(attr.Key)
		if strings.HasPrefix(key, "on") {
			report.HandlersRemoved++
			continue
		}
		if (key == "href" || key == "src") && isScriptURL(attr.Val) {
			report.UnsafeURLsCleared++
			attr.Val = "#"
		}
		kept = append(kept, attr)
	}
	return kept
}

func isScriptURL(raw string) bool {
	compact := strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, raw)
	return strings.HasPrefix(strings.ToLower(compact), "javascript:")
}

func replaceNames(text string, replacements []rules.Replacement, report *DocFixReport) string {
	for _, r := range replacements {
		if n := strings.Count(text, r.From); n > 0 {
			text = strings.ReplaceAll(text, r.From, r.To)
			report.NamesReplaced += n
		}
	}
	return text
}
