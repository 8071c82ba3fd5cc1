package sources

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
)

const articlePageHTML = `<html><body>
<nav><p>Home | News | Markets</p></nav>
<script>var tracking = true;</script>
<article>
  <h1>Apple beats earnings expectations</h1>
  <p>Apple reported quarterly revenue above analyst estimates.</p>
  <p>Services revenue grew 12% year over year.</p>
</article>
<footer><p>Copyright 2024</p></footer>
</body></html>`

func TestArticleExtractorFetchContent(t *testing.T) {
	server, fetcher := serveHTML(t, articlePageHTML)
	extractor := NewArticleExtractor(fetcher, arbor.NewLogger())

	content, err := extractor.FetchContent(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, content, "quarterly revenue above analyst estimates")
	assert.Contains(t, content, "Services revenue grew 12%")
	assert.NotContains(t, content, "Home | News", "navigation stripped")
	assert.NotContains(t, content, "Copyright", "footer stripped")
	assert.NotContains(t, content, "tracking", "scripts stripped")
}

func TestArticleExtractorCapsLength(t *testing.T) {
	long := "<html><body><p>" + strings.Repeat("word ", 1000) + "</p></body></html>"
	server, fetcher := serveHTML(t, long)
	extractor := NewArticleExtractor(fetcher, arbor.NewLogger())

	content, err := extractor.FetchContent(context.Background(), server.URL)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(content), maxArticleChars)
}

func TestArticleExtractorEmptyPage(t *testing.T) {
	server, fetcher := serveHTML(t, `<html><body><script>x</script></body></html>`)
	extractor := NewArticleExtractor(fetcher, arbor.NewLogger())

	_, err := extractor.FetchContent(context.Background(), server.URL)
	assert.Error(t, err)
}

func TestArticleExtractorFetchMarkdown(t *testing.T) {
	server, fetcher := serveHTML(t, articlePageHTML)
	extractor := NewArticleExtractor(fetcher, arbor.NewLogger())

	markdown, err := extractor.FetchMarkdown(context.Background(), server.URL)
	require.NoError(t, err)

	assert.Contains(t, markdown, "Apple beats earnings expectations")
	assert.Contains(t, markdown, "Services revenue grew 12%")
	assert.NotContains(t, markdown, "<p>", "HTML converted to markdown")
}
