// Package metareader builds link previews from the pages behind URLs found
// in free text. Open Graph tags take priority, the page title, first image and
// body text fill whatever they leave empty.
package metareader

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"bootcamp-news/internal/domain"
	"bootcamp-news/internal/pkg/fetch"
	"bootcamp-news/internal/pkg/htmldoc"
	"bootcamp-news/internal/pkg/urldetector"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher retrieves the raw page behind a URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Response, error)
}

// Parser turns raw page bytes into a queryable document. contentType is
// the Content-Type header of the response, empty when unknown.
type Parser interface {
	Parse(body []byte, contentType string) (*goquery.Document, error)
}

// Reader extracts metadata records from URLs
type Reader struct {
	fetcher Fetcher
	parser  Parser
	logger  *slog.Logger
}

// New creates a new metadata reader
func New(fetcher Fetcher, parser Parser, logger *slog.Logger) *Reader {
	return &Reader{
		fetcher: fetcher,
		parser:  parser,
		logger:  logger,
	}
}

// NewHTTPReader creates a reader fetching pages over HTTP and parsing them
// as HTML
func NewHTTPReader(opts fetch.Options, logger *slog.Logger) *Reader {
	return New(fetch.New(opts), htmldoc.NewParser(), logger)
}

// FindURLs returns every URL found in text, in order
func (r *Reader) FindURLs(text string) []string {
	return urldetector.FindURLs(text)
}

// FromText extracts the metadata of the first URL in text.
// The zero Metadata is returned when text holds no URL.
func (r *Reader) FromText(ctx context.Context, text string) (domain.Metadata, error) {
	urls := r.FindURLs(text)
	if len(urls) == 0 {
		r.logger.Debug("No URL found in text", "text_length", len(text))
		return domain.Metadata{}, nil
	}
	return r.FromURL(ctx, urls[0])
}

// FromURL fetches pageURL and extracts its metadata.
// Fetch errors are returned as is.
func (r *Reader) FromURL(ctx context.Context, pageURL string) (domain.Metadata, error) {
	resp, err := r.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return domain.Metadata{}, err
	}

	doc, err := r.parser.Parse(resp.Body, resp.ContentType)
	if err != nil {
		return domain.Metadata{}, err
	}

	metadata := extract(doc, pageURL)

	r.logger.Debug("Metadata extracted",
		"url", pageURL,
		"type", metadata.Type,
		"title", metadata.Title,
		"has_image", metadata.Image != "",
		"description_length", len(metadata.Description),
	)

	return metadata, nil
}

// resolveURL resolves ref against base the way a browser would and always
// yields an absolute URL. Tabs and newlines are dropped from ref, an empty
// ref yields base. Stray '%' signs and control bytes are percent-escaped, a
// ref that still fails to parse is joined as a plain path.
func resolveURL(base, ref string) string {
	ref = strings.NewReplacer("\t", "", "\n", "", "\r", "").Replace(ref)
	if ref == "" {
		return base
	}
	baseURL, err := url.Parse(base)
	if err != nil {
		return ref
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		refURL, err = url.Parse(escapeRef(ref))
	}
	if err != nil {
		refURL = &url.URL{Path: ref}
	}
	return baseURL.ResolveReference(refURL).String()
}

// escapeRef percent-encodes the bytes url.Parse rejects: control bytes and
// '%' signs that do not start a valid escape.
func escapeRef(ref string) string {
	var sb strings.Builder
	for i := 0; i < len(ref); i++ {
		c := ref[i]
		switch {
		case c == '%' && i+2 < len(ref) && isHex(ref[i+1]) && isHex(ref[i+2]):
			sb.WriteByte(c)
		case c == '%' || c < 0x20 || c == 0x7f:
			fmt.Fprintf(&sb, "%%%02X", c)
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}
