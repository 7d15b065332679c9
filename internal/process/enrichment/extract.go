package enrichment

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	readability "github.com/go-shiori/go-readability"
	"github.com/mmcdole/gofeed"
	"golang.org/x/net/html"
)

// PageContent is the distilled content of one linked page.
type PageContent struct {
	Title       string
	Description string
	Text        string
	SiteName    string
	PublishedAt *time.Time
}

// ContentExtractor turns raw HTML (or a feed document) into PageContent.
// Readability does the heavy lifting, meta tags fill the gaps, and feed
// documents fall back to their newest entry.
type ContentExtractor struct {
	maxContentLength int
	feedParser       *gofeed.Parser
}

func NewContentExtractor(maxContentLength int) *ContentExtractor {
	return &ContentExtractor{
		maxContentLength: maxContentLength,
		feedParser:       gofeed.NewParser(),
	}
}

func (e *ContentExtractor) Extract(body []byte, pageURL string) (*PageContent, error) {
	if looksLikeFeed(body) {
		return e.extractFromFeed(body)
	}

	parsedURL, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parse page URL: %w", err)
	}

	content := &PageContent{}

	article, err := readability.FromReader(bytes.NewReader(body), parsedURL)
	if err == nil {
		content.Title = strings.TrimSpace(article.Title)
		content.Text = e.truncate(collapseWhitespace(article.TextContent))
		content.Description = strings.TrimSpace(article.Excerpt)
		content.SiteName = strings.TrimSpace(article.SiteName)
	}

	meta := parseMetaTags(body)
	content.Title = coalesce(content.Title, meta.title)
	content.Description = coalesce(content.Description, meta.description)
	content.SiteName = coalesce(content.SiteName, meta.siteName)

	if meta.published != "" {
		if ts, err := dateparse.ParseAny(meta.published); err == nil {
			content.PublishedAt = &ts
		}
	}

	if content.Title == "" && content.Text == "" {
		return nil, fmt.Errorf("no extractable content in %s", pageURL)
	}

	return content, nil
}

func (e *ContentExtractor) extractFromFeed(body []byte) (*PageContent, error) {
	feed, err := e.feedParser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	content := &PageContent{
		Title:       strings.TrimSpace(feed.Title),
		Description: strings.TrimSpace(feed.Description),
		SiteName:    strings.TrimSpace(feed.Title),
	}

	if len(feed.Items) > 0 {
		item := feed.Items[0]
		content.Title = coalesce(strings.TrimSpace(item.Title), content.Title)
		content.Text = e.truncate(collapseWhitespace(stripHTMLTags(coalesce(item.Content, item.Description))))
		content.PublishedAt = item.PublishedParsed
	}

	return content, nil
}

func (e *ContentExtractor) truncate(text string) string {
	if e.maxContentLength <= 0 || len(text) <= e.maxContentLength {
		return text
	}

	cut := e.maxContentLength
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	return text[:cut]
}

type metaTags struct {
	title       string
	description string
	siteName    string
	published   string
}

func parseMetaTags(body []byte) metaTags {
	var meta metaTags

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return meta
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if meta.title == "" && n.FirstChild != nil {
					meta.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				key, content := metaAttr(n)
				switch key {
				case "og:title", "twitter:title":
					meta.title = coalesce(meta.title, content)
				case "og:description", "twitter:description", "description":
					meta.description = coalesce(meta.description, content)
				case "og:site_name":
					meta.siteName = coalesce(meta.siteName, content)
				case "article:published_time", "og:published_time", "date":
					meta.published = coalesce(meta.published, content)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return meta
}

func metaAttr(n *html.Node) (key, content string) {
	for _, attr := range n.Attr {
		switch attr.Key {
		case "property", "name":
			if key == "" {
				key = strings.ToLower(attr.Val)
			}
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}

	return key, content
}

func looksLikeFeed(body []byte) bool {
	head := body
	if len(head) > 512 {
		head = head[:512]
	}

	lower := bytes.ToLower(head)

	return bytes.Contains(lower, []byte("<rss")) ||
		bytes.Contains(lower, []byte("<feed")) ||
		bytes.Contains(lower, []byte("<rdf:rdf"))
}

func stripHTMLTags(s string) string {
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return s
	}

	var sb strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.TrimSpace(sb.String())
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}

	return ""
}
