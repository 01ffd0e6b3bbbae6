package fetch

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
)

// ErrorPrefix marks a render result that is a failure description
// instead of page markup. The solver treats any result carrying this
// prefix as a terminal scrape failure.
const ErrorPrefix = "Error:"

// Renderer drives a headless browser to produce the full markup of a
// page, JavaScript included. Quiz pages hide their instructions and
// data links behind client-side rendering, so a plain GET is not enough.
type Renderer struct {
	Timeout  time.Duration // per-page render budget
	MaxChars int           // maximum characters of markup to return
	logger   *log.Logger
}

// NewRenderer creates a renderer with the given per-page budget.
func NewRenderer(timeout time.Duration, maxChars int) *Renderer {
	if timeout == 0 {
		timeout = 45 * time.Second
	}
	return &Renderer{
		Timeout:  timeout,
		MaxChars: maxChars,
		logger:   log.New(log.Writer(), "[FETCH] ", log.LstdFlags),
	}
}

// Render navigates to rawURL and returns the page's outer HTML. Anchor
// tags are preserved because the planner extracts literal hrefs from
// them. Failures are reported as a distinguished "Error: ..." string
// value, never as a non-nil error.
func (r *Renderer) Render(ctx context.Context, rawURL string) (string, error) {
	if strings.TrimSpace(rawURL) == "" {
		return fmt.Sprintf("%s empty url", ErrorPrefix), nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()
	t0 := time.Now()

	html, err := renderHTML(ctx, rawURL)
	if err != nil {
		r.logger.Printf("render failed for %s: %v", rawURL, err)
		return fmt.Sprintf("%s could not scrape page: %v", ErrorPrefix, err), nil
	}

	title := pageTitle(html, rawURL)
	r.logger.Printf("rendered %s (%q, %d chars, %v)", rawURL, title, len(html), time.Since(t0).Round(time.Millisecond))

	if r.MaxChars > 0 && len(html) > r.MaxChars {
		html = html[:r.MaxChars]
	}
	return html, nil
}

func renderHTML(ctx context.Context, rawURL string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("QuizAgent/1.0 (+contact@example.com)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(rawURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

// pageTitle extracts a human-readable title for logging; the article
// body itself is never used, the planner works on raw markup.
func pageTitle(html, rawURL string) string {
	article, err := readability.FromReader(strings.NewReader(html), mustParseURL(rawURL))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(article.Title)
}

func mustParseURL(raw string) *url.URL {
	u, err := url.Parse(raw)
	if err != nil {
		return &url.URL{}
	}
	return u
}
