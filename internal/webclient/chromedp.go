package webclient

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"

	"github.com/farolabs/faro/internal/logging"
)

// ChromedpClient renders pages in headless Chrome before returning their
// markup. Marketing sites frequently inject analytics tags, chat widgets and
// cookie banners from JavaScript, so auditing the rendered DOM catches
// signatures a plain HTTP fetch would miss.
type ChromedpClient struct {
	cfg    Config
	logger logging.Logger
}

// NewChromedpClient constructs the chromedp backend. It satisfies Constructor.
func NewChromedpClient(cfg Config, logger logging.Logger) (WebClient, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &ChromedpClient{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "backend", Value: BackendChromedp}),
	}, nil
}

// networkIdleAfter is how long the tab must stay without in-flight requests
// before we consider the page settled.
const networkIdleAfter = 2 * time.Second

// waitNetworkIdle returns a channel that is closed once the tab has had no
// active network requests for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idle := make(chan struct{})
	var activeReqs int32
	var timerMu sync.Mutex
	var timer *time.Timer
	var once sync.Once

	startTimer := func() {
		timerMu.Lock()
		defer timerMu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&activeReqs) == 0 {
				once.Do(func() { close(idle) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&activeReqs, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&activeReqs, -1) <= 0 {
				startTimer()
			}
		}
	})

	// Fire even if the page makes no requests at all after load.
	startTimer()

	return idle
}

// Do navigates to req.URL, waits for the network to go idle and returns the
// rendered document. Only GET semantics are supported by this backend.
func (c *ChromedpClient) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, fmt.Errorf("nil request")
	}
	if req.Method != "" && req.Method != http.MethodGet {
		return nil, fmt.Errorf("chromedp backend supports GET only, got %s", req.Method)
	}

	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	if c.cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(c.cfg.UserAgent))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	tabCtx, cancelTimeout := context.WithTimeout(tabCtx, c.cfg.Timeout)
	defer cancelTimeout()

	var statusCode int64 = http.StatusOK
	chromedp.ListenTarget(tabCtx, func(ev any) {
		if resp, ok := ev.(*network.EventResponseReceived); ok && resp.Type == network.ResourceTypeDocument {
			statusCode = resp.Response.Status
		}
	})

	idle := waitNetworkIdle(tabCtx, networkIdleAfter)

	if err := chromedp.Run(tabCtx,
		network.Enable(),
		chromedp.Navigate(req.URL),
	); err != nil {
		return nil, fmt.Errorf("chromedp navigate: %w", err)
	}

	select {
	case <-idle:
	case <-tabCtx.Done():
		c.logger.Warn("network idle wait interrupted",
			logging.Field{Key: "url", Value: req.URL},
			logging.Field{Key: "error", Value: tabCtx.Err().Error()})
		return nil, fmt.Errorf("chromedp wait: %w", tabCtx.Err())
	}

	var html string
	if err := chromedp.Run(tabCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("chromedp capture: %w", err)
	}

	return &Response{
		Request:    req,
		Body:       []byte(html),
		Headers:    http.Header{"Content-Type": []string{"text/html; charset=utf-8"}},
		StatusCode: int(statusCode),
		FetchedAt:  time.Now(),
	}, nil
}

func (c *ChromedpClient) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, URL: url})
}

func (c *ChromedpClient) Close() error { return nil }
