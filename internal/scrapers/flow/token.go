package flow

import (
	"bytes"
	"regexp"

	"github.com/PuerkitoBio/goquery"
)

// TokenExtractor pulls the login csrf token out of the login page.
type TokenExtractor interface {
	ExtractToken(document []byte) (token string, ok bool)
}

var csrfTokenPattern = regexp.MustCompile(`csrfToken" value="([a-z0-9\-]+)"`)
var csrfTokenCharset = regexp.MustCompile(`^[a-z0-9\-]+$`)

// PatternExtractor matches the raw markup against `csrfToken" value="<token>"`.
type PatternExtractor struct{}

func (PatternExtractor) ExtractToken(document []byte) (string, bool) {
	groups := csrfTokenPattern.FindSubmatch(document)
	if len(groups) < 2 {
		return "", false
	}
	return string(groups[1]), true
}

// FormInputExtractor parses the page and reads the value of the csrfToken input,
// which survives attribute reordering in the markup.
type FormInputExtractor struct{}

func (FormInputExtractor) ExtractToken(document []byte) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(document))
	if err != nil {
		return "", false
	}
	token := doc.Find("input[name=csrfToken]").AttrOr("value", "")
	if !csrfTokenCharset.MatchString(token) {
		return "", false
	}
	return token, true
}

type firstOf []TokenExtractor

func (extractors firstOf) ExtractToken(document []byte) (string, bool) {
	for _, e := range extractors {
		token, ok := e.ExtractToken(document)
		if ok {
			return token, true
		}
	}
	return "", false
}

// FirstOf tries each extractor in order and returns the first token found.
func FirstOf(extractors ...TokenExtractor) TokenExtractor {
	return firstOf(extractors)
}

// DefaultTokenExtractor is the pattern match with a goquery fallback.
func DefaultTokenExtractor() TokenExtractor {
	return FirstOf(PatternExtractor{}, FormInputExtractor{})
}
