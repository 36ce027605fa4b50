package extract

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/nao1215/gravelscan/internal/model"
	"golang.org/x/net/html/charset"
)

// Document parsing errors, wrapped in *model.ParseError.
var (
	// ErrEmptyMarkup is returned for blank input.
	ErrEmptyMarkup = errors.New("empty markup")
	// ErrUndecodable is returned when the markup is not UTF-8 and no
	// declared or sniffed charset decodes it.
	ErrUndecodable = errors.New("markup is not decodable text")
	// ErrNoElements is returned when the markup contains no elements.
	ErrNoElements = errors.New("markup contains no elements")
)

// parseDocument builds a goquery document from markup.
func parseDocument(markup, sourceURL string) (*goquery.Document, error) {
	if strings.TrimSpace(markup) == "" {
		return nil, &model.ParseError{URL: sourceURL, Err: ErrEmptyMarkup}
	}

	text, err := toUTF8(markup)
	if err != nil {
		return nil, &model.ParseError{URL: sourceURL, Err: err}
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil, &model.ParseError{URL: sourceURL, Err: err}
	}

	if doc.Find("head > *, body *").Length() == 0 {
		return nil, &model.ParseError{URL: sourceURL, Err: ErrNoElements}
	}
	return doc, nil
}

// toUTF8 returns markup unchanged when it is valid UTF-8, otherwise decodes
// it with the charset named in its meta tags or sniffed from its bytes.
func toUTF8(markup string) (string, error) {
	if utf8.ValidString(markup) {
		return markup, nil
	}

	enc, name, _ := charset.DetermineEncoding([]byte(markup), "text/html")
	if enc == nil || name == "utf-8" {
		return "", ErrUndecodable
	}
	decoded, err := enc.NewDecoder().String(markup)
	if err != nil || !utf8.ValidString(decoded) {
		return "", fmt.Errorf("%w: %s", ErrUndecodable, name)
	}
	return decoded, nil
}
