// Package browser fetches pages through headless Chrome, for readings pages
// whose content is only present after client-side rendering.
package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

const (
	DefaultTimeout = 45 * time.Second

	// Readings pages render their sections inside this container.
	defaultWaitSelector = `.b-verse, .innerblock, body`
	settleDelay         = 1 * time.Second
)

// Fetcher renders a page in headless Chrome and returns its final markup.
type Fetcher struct {
	chromePath   string
	userAgent    string
	timeout      time.Duration
	waitSelector string
}

// New creates a Fetcher. An empty chromePath lets chromedp find Chrome on
// the PATH.
func New(chromePath, userAgent string, timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		chromePath:   chromePath,
		userAgent:    userAgent,
		timeout:      timeout,
		waitSelector: defaultWaitSelector,
	}
}

func (f *Fetcher) allocatorOptions() []chromedp.ExecAllocatorOption {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if f.chromePath != "" {
		opts = append(opts, chromedp.ExecPath(f.chromePath))
	}
	if f.userAgent != "" {
		opts = append(opts, chromedp.UserAgent(f.userAgent))
	}
	return append(opts,
		chromedp.Headless,
		chromedp.DisableGPU,
		chromedp.NoSandbox,
	)
}

// Fetch navigates to url, waits for the readings content to render and
// returns the document's outer HTML.
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, f.allocatorOptions()...)
	defer allocCancel()

	chromeCtx, chromeCancel := chromedp.NewContext(allocCtx)
	defer chromeCancel()

	var html string
	err := chromedp.Run(chromeCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady(f.waitSelector, chromedp.ByQuery),
		chromedp.Sleep(settleDelay),
		chromedp.OuterHTML(`html`, &html, chromedp.ByQuery),
	)
	if err != nil {
		return nil, fmt.Errorf("rendering %s: %w", url, err)
	}

	return []byte(html), nil
}
