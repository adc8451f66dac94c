package webclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/raysh454/pagewatch/internal/interfaces"
)

// ChromedpClient renders pages in headless Chrome before returning their
// HTML, for pages whose content only exists after scripts run. One browser
// process is shared; each Do gets its own tab.
type ChromedpClient struct {
	cfg       *Config
	logger    interfaces.Logger
	allocCtx  context.Context
	cancelAll context.CancelFunc
}

func NewChromedpClient(cfg *Config, logger interfaces.Logger) (WebClient, error) {
	componentLogger := logger.With(interfaces.Field{Key: "backend", Value: "chromedp"})

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
	)
	if cfg != nil && cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}

	allocCtx, cancel := chromedp.NewExecAllocator(context.Background(), opts...)

	componentLogger.Info("created chromedp webclient",
		interfaces.Field{Key: "timeout", Value: cfg.timeout().String()})

	return &ChromedpClient{
		cfg:       cfg,
		logger:    componentLogger,
		allocCtx:  allocCtx,
		cancelAll: cancel,
	}, nil
}

// Do navigates a fresh tab to req.URL and returns the rendered document.
// Only GET semantics are supported; the browser drives the actual request.
func (cc *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}

	cc.logger.Debug("rendering page",
		interfaces.Field{Key: "url", Value: req.URL})

	tabCtx, cancelTab := chromedp.NewContext(cc.allocCtx)
	defer cancelTab()

	runCtx, cancelRun := context.WithTimeout(tabCtx, cc.cfg.timeout())
	defer cancelRun()

	// Capture the status code of the main document response.
	var statusCode int64
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if res, ok := ev.(*network.EventResponseReceived); ok {
			if res.Type == network.ResourceTypeDocument && statusCode == 0 {
				statusCode = res.Response.Status
			}
		}
	})

	// Optional settle delay for pages that keep mutating after load.
	var settle time.Duration
	if v, ok := req.Options["wait"]; ok {
		if d, err := time.ParseDuration(v); err == nil {
			settle = d
		}
	}

	actions := []chromedp.Action{
		network.Enable(),
		chromedp.Navigate(req.URL),
		chromedp.WaitReady("body"),
	}
	if settle > 0 {
		actions = append(actions, chromedp.Sleep(settle))
	}

	var html string
	actions = append(actions, chromedp.OuterHTML("html", &html))

	if err := chromedp.Run(runCtx, actions...); err != nil {
		cc.logger.Warn("page render failed",
			interfaces.Field{Key: "url", Value: req.URL},
			interfaces.Field{Key: "error", Value: err.Error()})
		return nil, fmt.Errorf("chromedp run: %w", err)
	}

	if statusCode == 0 {
		statusCode = http.StatusOK
	}

	return &Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    http.Header{},
		StatusCode: int(statusCode),
		FetchedAt:  time.Now(),
	}, nil
}

func (cc *ChromedpClient) Close() error {
	cc.logger.Info("closing chromedp webclient")
	cc.cancelAll()
	return nil
}
