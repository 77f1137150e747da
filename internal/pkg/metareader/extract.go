package metareader

import (
	"regexp"
	"strings"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/htmldoc"

	"github.com/PuerkitoBio/goquery"
)

// Open Graph properties, see https://ogp.me/
const (
	ogType        = "og:type"
	ogTitle       = "og:title"
	ogDescription = "og:description"
	ogImage       = "og:image"
)

var (
	lineBreaks = strings.NewReplacer("\n", " ", "\r", " ", "\t", " ")
	spaceRuns  = regexp.MustCompile(` {2,}`)
)

// extract applies the fallback chain to an already parsed page
func extract(doc *goquery.Document, pageURL string) domain.Metadata {
	metadata := domain.NewMetadata(pageURL)

	// Open Graph first. Every tag is checked against every property so a
	// later tag overrides an earlier one.
	doc.Find("meta").Each(func(_ int, meta *goquery.Selection) {
		metadata.Type = metaProperty(meta, ogType, metadata.Type)
		metadata.Title = metaProperty(meta, ogTitle, metadata.Title)
		metadata.Description = metaProperty(meta, ogDescription, metadata.Description)
		metadata.Image = metaProperty(meta, ogImage, metadata.Image)
		if metadata.Image != "" {
			metadata.Image = resolveURL(pageURL, metadata.Image)
		}
	})

	if metadata.Title == "" {
		if title := doc.Find("title").First(); title.Length() > 0 {
			metadata.Title = title.Text()
		}
	}

	if metadata.Image == "" {
		if img := doc.Find("img").First(); img.Length() > 0 {
			src, _ := img.Attr("src")
			metadata.Image = resolveURL(pageURL, src)
		}
	}

	if metadata.Description == "" {
		if text, ok := htmldoc.BodyText(doc); ok {
			metadata.Description = text
		}
	}

	if metadata.Description != "" {
		metadata.Description = normalizeDescription(metadata.Description)
	}

	return metadata
}

// metaProperty returns the content of meta when its property equals name,
// current otherwise. A matching tag without content keeps current.
func metaProperty(meta *goquery.Selection, name, current string) string {
	if property, ok := meta.Attr("property"); !ok || property != name {
		return current
	}
	if content, ok := meta.Attr("content"); ok {
		return content
	}
	return current
}

// normalizeDescription turns line breaks and tabs into spaces, collapses
// runs of spaces and trims the result
func normalizeDescription(s string) string {
	s = lineBreaks.Replace(s)
	s = spaceRuns.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
