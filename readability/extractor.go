// Package readability extracts readable article content with
// go-readability, for use as a transform function.
package readability

import (
	"strings"

	"github.com/fwojciec/harvest"
	"github.com/go-shiori/go-readability"
)

// Ensure Extract is a harvest.TransformFunc at compile time.
var _ harvest.TransformFunc = Extract

// Extract returns the readable article body of rawHTML as HTML.
func Extract(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}
	return article.Content, nil
}

// Title returns the article title detected in rawHTML.
func Title(rawHTML string) (string, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return "", harvest.Errorf(harvest.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return "", err
	}
	return article.Title, nil
}
