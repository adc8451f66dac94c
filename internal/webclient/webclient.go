// Package webclient fetches raw page content. Two backends exist: a plain
// net/http client and a chromedp-driven headless browser for pages that
// only render under JavaScript.
package webclient

import (
	"context"
)

type WebClient interface {
	Do(ctx context.Context, req *Request) (*Response, error)

	Close() error
}
