package sources

import (
	"context"
	"fmt"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
)

// maxArticleChars caps extracted article text so a long piece cannot blow out
// an LLM prompt.
const maxArticleChars = 2000

// chromeSelectors is everything stripped from an article page before extraction.
var chromeSelectors = []string{"script", "style", "noscript", "nav", "header", "footer", "aside", "form", "iframe"}

// ArticleExtractor pulls readable text out of news article pages.
type ArticleExtractor struct {
	fetcher   DocumentFetcher
	converter *md.Converter
	logger    arbor.ILogger
}

// NewArticleExtractor creates an article extractor.
func NewArticleExtractor(fetcher DocumentFetcher, logger arbor.ILogger) *ArticleExtractor {
	return &ArticleExtractor{
		fetcher:   fetcher,
		converter: md.NewConverter("", true, nil),
		logger:    logger,
	}
}

// FetchContent fetches an article URL and returns its readable text: page
// chrome removed, paragraph text joined, capped at maxArticleChars.
func (a *ArticleExtractor) FetchContent(ctx context.Context, articleURL string) (string, error) {
	doc, err := a.fetcher.FetchDocument(ctx, articleURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article %s: %w", articleURL, err)
	}

	stripChrome(doc)

	var paragraphs []string
	doc.Find("p").Each(func(_ int, p *goquery.Selection) {
		text := strings.TrimSpace(p.Text())
		if text != "" {
			paragraphs = append(paragraphs, text)
		}
	})

	content := strings.Join(paragraphs, "\n\n")
	if content == "" {
		return "", fmt.Errorf("no readable content in article %s", articleURL)
	}
	if len(content) > maxArticleChars {
		content = content[:maxArticleChars]
	}

	a.logger.Debug().
		Str("url", articleURL).
		Int("chars", len(content)).
		Msg("Extracted article content")

	return content, nil
}

// FetchMarkdown fetches an article URL and converts its main content to
// markdown, preserving headings and emphasis for LLM context. The result is
// capped at maxArticleChars.
func (a *ArticleExtractor) FetchMarkdown(ctx context.Context, articleURL string) (string, error) {
	doc, err := a.fetcher.FetchDocument(ctx, articleURL)
	if err != nil {
		return "", fmt.Errorf("failed to fetch article %s: %w", articleURL, err)
	}

	stripChrome(doc)

	body := doc.Find("article").First()
	if body.Length() == 0 {
		body = doc.Find("main").First()
	}
	if body.Length() == 0 {
		body = doc.Find("body").First()
	}

	html, err := body.Html()
	if err != nil {
		return "", fmt.Errorf("failed to extract article body from %s: %w", articleURL, err)
	}

	markdown, err := a.converter.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("failed to convert article %s to markdown: %w", articleURL, err)
	}

	markdown = strings.TrimSpace(markdown)
	if markdown == "" {
		return "", fmt.Errorf("no readable content in article %s", articleURL)
	}
	if len(markdown) > maxArticleChars {
		markdown = markdown[:maxArticleChars]
	}
	return markdown, nil
}

func stripChrome(doc *goquery.Document) {
	for _, selector := range chromeSelectors {
		doc.Find(selector).Remove()
	}
}
