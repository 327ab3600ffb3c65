package extract

import (
	"strings"
	"testing"

	"newslens/internal/core"
)

func paragraphs(n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteString("<p>The committee voted to approve the measure after extensive debate on Tuesday evening.</p>")
	}
	return sb.String()
}

func TestExtractFromHTMLArticleTag(t *testing.T) {
	html := `<html><head>
		<meta property="og:description" content="A vote summary">
		<meta name="author" content="Jane Reporter">
	</head><body>
		<nav>Home | News | Sports</nav>
		<article>` + paragraphs(10) + `</article>
		<footer>Copyright</footer>
	</body></html>`

	content := ExtractFromHTML(html, "https://example.com/story", 300)
	if !content.Success {
		t.Fatalf("expected success, got error kind %s", content.ErrorKind)
	}
	if content.Method != core.MethodReadability {
		t.Errorf("expected readability method, got %s", content.Method)
	}
	if content.Excerpt != "A vote summary" {
		t.Errorf("wrong excerpt: %q", content.Excerpt)
	}
	if content.Byline != "Jane Reporter" {
		t.Errorf("wrong byline: %q", content.Byline)
	}
	if strings.Contains(content.Body, "Home | News") {
		t.Error("navigation text leaked into body")
	}
	if strings.Contains(content.Body, "Copyright") {
		t.Error("footer text leaked into body")
	}
	if content.Language != "en" {
		t.Errorf("expected en detection, got %q", content.Language)
	}
}

func TestExtractFromHTMLBodyFallback(t *testing.T) {
	html := `<html><body><div>` + paragraphs(8) + `</div></body></html>`

	content := ExtractFromHTML(html, "https://example.com/story", 300)
	if !content.Success {
		t.Fatalf("expected success, got error kind %s", content.ErrorKind)
	}
	if content.Method != core.MethodRawText {
		t.Errorf("expected raw-text fallback, got %s", content.Method)
	}
}

func TestExtractFromHTMLExcerptFallback(t *testing.T) {
	longDesc := strings.Repeat("A detailed summary of the reported events. ", 10)
	html := `<html><head><meta property="og:description" content="` + longDesc + `"></head>
		<body><p>Too short.</p></body></html>`

	content := ExtractFromHTML(html, "https://example.com/story", 300)
	if !content.Success {
		t.Fatalf("expected metadata fallback success, got error kind %s", content.ErrorKind)
	}
	if content.Method != core.MethodMetadata {
		t.Errorf("expected metadata method, got %s", content.Method)
	}
}

func TestExtractFromHTMLTooShortFails(t *testing.T) {
	html := `<html><body><article><p>Barely anything here.</p></article></body></html>`

	content := ExtractFromHTML(html, "https://example.com/story", 300)
	if content.Success {
		t.Fatal("expected failure for sub-minimum body")
	}
	if content.ErrorKind != core.ErrExtractionFailed {
		t.Errorf("expected extraction_failed, got %s", content.ErrorKind)
	}
}
