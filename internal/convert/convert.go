package convert

import (
	"fmt"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
)

// strippedTags are removed before conversion. Scripts, styles, and page
// chrome carry no documentation content.
const strippedTags = "script, style, nav, header, footer"

var (
	// emptyLinkPattern matches lines made up entirely of empty links
	// like [](page.htm), which CHM navigation tables leave behind.
	emptyLinkPattern = regexp.MustCompile(`^\s*(\[]\([^)]*\)\s*)+$`)

	// blankRunPattern matches three or more consecutive newlines
	blankRunPattern = regexp.MustCompile(`\n{3,}`)
)

// Converter renders extracted CHM pages as cleaned Markdown
type Converter struct {
	md *md.Converter
}

// NewConverter creates a converter with help-file appropriate settings:
// links are kept, images are dropped.
func NewConverter() *Converter {
	conv := md.NewConverter("", true, nil)
	conv.Remove("img")
	return &Converter{md: conv}
}

// Convert turns one HTML page into cleaned Markdown
func (c *Converter) Convert(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find(strippedTags).Remove()

	cleaned, err := doc.Html()
	if err != nil {
		return "", fmt.Errorf("failed to serialize HTML: %w", err)
	}

	markdown, err := c.md.ConvertString(cleaned)
	if err != nil {
		return "", fmt.Errorf("failed to convert to Markdown: %w", err)
	}

	return cleanMarkdown(markdown), nil
}

// cleanMarkdown drops navigation breadcrumb lines and lines that are
// only empty links, then collapses runs of blank lines. The result
// always ends with a single trailing newline.
func cleanMarkdown(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.HasPrefix(strings.TrimLeft(line, " \t"), "**Navigation:**") {
			continue
		}
		if emptyLinkPattern.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}

	result := blankRunPattern.ReplaceAllString(strings.Join(kept, "\n"), "\n\n")
	return strings.TrimSpace(result) + "\n"
}
