package webpreview

import (
	"bytes"
	"net/url"
	"path"
	"strings"
	"unicode"

	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type pageMetadata struct {
	title       string
	description string
	siteName    string
	imageURL    string
	canonical   string
}

// extractMetadata walks the parsed document and collects <title>, meta
// description, and OpenGraph tags. OpenGraph values win over the plain
// tags when both exist.
func extractMetadata(body []byte) pageMetadata {
	var meta pageMetadata

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	var plainTitle, plainDescription string
	var walk func(node *html.Node)
	walk = func(node *html.Node) {
		if node.Type == html.ElementNode {
			switch node.Data {
			case "title":
				if node.FirstChild != nil && plainTitle == "" {
					plainTitle = collapseWhitespace(node.FirstChild.Data)
				}
			case "meta":
				handleMeta(node, &meta, &plainDescription)
			case "link":
				if attr(node, "rel") == "canonical" && meta.canonical == "" {
					meta.canonical = strings.TrimSpace(attr(node, "href"))
				}
			case "body":
				// Head metadata is all we need.
				return
			}
		}
		for child := node.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if meta.title == "" {
		meta.title = plainTitle
	}
	if meta.description == "" {
		meta.description = plainDescription
	}
	return meta
}

func handleMeta(node *html.Node, meta *pageMetadata, plainDescription *string) {
	content := collapseWhitespace(attr(node, "content"))
	if content == "" {
		return
	}
	switch strings.ToLower(attr(node, "property")) {
	case "og:title":
		meta.title = content
	case "og:description":
		meta.description = content
	case "og:site_name":
		meta.siteName = content
	case "og:image":
		if meta.imageURL == "" {
			meta.imageURL = content
		}
	case "og:url":
		if meta.canonical == "" {
			meta.canonical = content
		}
	}
	if strings.EqualFold(attr(node, "name"), "description") && *plainDescription == "" {
		*plainDescription = content
	}
}

func attr(node *html.Node, name string) string {
	for _, a := range node.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func collapseWhitespace(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// titleFromURL derives a presentable fallback title from the URL when the
// page offered none: the last meaningful path segment, cleaned and
// title-cased, suffixed with the host.
func titleFromURL(parsed *url.URL) string {
	segment := path.Base(strings.TrimSuffix(parsed.Path, "/"))
	segment = strings.TrimSuffix(segment, path.Ext(segment))

	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range segment {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	title := strings.TrimSpace(cleaned.String())
	host := strings.TrimPrefix(strings.ToLower(parsed.Host), "www.")
	if title == "" || title == "/" {
		return host
	}
	return cases.Title(language.Und).String(title) + " · " + host
}
