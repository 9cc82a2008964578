package config

import (
	"regexp"
	"strings"
)

// PageMetadata is the anti-forgery token pair the server embeds in every page.
type PageMetadata struct {
	CSRFToken  string
	CSRFHeader string
}

var (
	// Match: <meta name="_csrf" content="...">, attributes in either order.
	csrfTokenRe = []*regexp.Regexp{
		regexp.MustCompile(`<meta[^>]+name=["']_csrf["'][^>]*content=["']([^"']+)["']`),
		regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]*name=["']_csrf["']`),
	}
	// Match: <meta name="_csrf_header" content="...">
	csrfHeaderRe = []*regexp.Regexp{
		regexp.MustCompile(`<meta[^>]+name=["']_csrf_header["'][^>]*content=["']([^"']+)["']`),
		regexp.MustCompile(`<meta[^>]+content=["']([^"']+)["'][^>]*name=["']_csrf_header["']`),
	}
)

// ParsePageMetadata extracts the anti-forgery token and header name from an
// HTML page. It returns nil unless both values are present.
func ParsePageMetadata(content string) *PageMetadata {
	meta := &PageMetadata{
		CSRFToken:  firstMatch(csrfTokenRe, content),
		CSRFHeader: firstMatch(csrfHeaderRe, content),
	}

	if meta.CSRFToken == "" || meta.CSRFHeader == "" {
		return nil
	}

	return meta
}

func firstMatch(patterns []*regexp.Regexp, content string) string {
	for _, re := range patterns {
		if match := re.FindStringSubmatch(content); len(match) > 1 {
			return strings.TrimSpace(match[1])
		}
	}
	return ""
}
