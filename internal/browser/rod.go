package browser

import (
	"context"
	"fmt"
	"net/url"
	"sort"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"
)

// RodController implements Controller over the Chrome DevTools protocol.
// It attaches to an already running browser started with
// --remote-debugging-port and never closes it.
type RodController struct {
	browser *rod.Browser
	cancel  context.CancelFunc
	log     logrus.FieldLogger
}

// Connect attaches to the browser at debuggerURL, either an http address
// like http://127.0.0.1:9222 or a ws:// endpoint
func Connect(ctx context.Context, debuggerURL string, logger logrus.FieldLogger) (*RodController, error) {
	log := logger.WithField("component", "browser")

	controlURL, err := launcher.ResolveURL(debuggerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve debugger url %s: %w", debuggerURL, err)
	}

	// The connection lives until Close; ctx only bounds the handshake
	connCtx, cancel := context.WithCancel(context.Background())
	b := rod.New().ControlURL(controlURL).Context(connCtx)

	done := make(chan error, 1)
	go func() { done <- b.Connect() }()
	select {
	case err := <-done:
		if err != nil {
			cancel()
			return nil, fmt.Errorf("connect to browser: %w", err)
		}
	case <-ctx.Done():
		cancel()
		return nil, fmt.Errorf("connect to browser: %w", ctx.Err())
	}

	log.WithField("url", controlURL).Info("browser connected")
	return &RodController{browser: b, cancel: cancel, log: log}, nil
}

// Close drops the devtools connection. The browser keeps running.
func (c *RodController) Close() error {
	c.cancel()
	return nil
}

func (c *RodController) client(ctx context.Context) *rod.Browser {
	return c.browser.Context(ctx)
}

// ListWindows groups page targets by window. Window and tab order follow
// target creation order since CDP exposes no strip index.
func (c *RodController) ListWindows(ctx context.Context) ([]Window, error) {
	b := c.client(ctx)
	res, err := proto.TargetGetTargets{}.Call(b)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}

	byID := map[int]*Window{}
	var order []int
	for _, info := range res.TargetInfos {
		if info.Type != proto.TargetTargetInfoTypePage {
			continue
		}
		win, err := proto.BrowserGetWindowForTarget{TargetID: info.TargetID}.Call(b)
		if err != nil {
			c.log.WithError(err).WithField("tab_id", info.TargetID).Debug("skipping target without window")
			continue
		}
		wid := int(win.WindowID)
		w, ok := byID[wid]
		if !ok {
			w = &Window{ID: wid}
			byID[wid] = w
			order = append(order, wid)
		}
		w.Tabs = append(w.Tabs, Tab{
			ID:         string(info.TargetID),
			WindowID:   wid,
			Title:      info.Title,
			URL:        info.URL,
			FavIconURL: faviconFor(info.URL),
			Active:     c.visible(ctx, info.TargetID),
		})
	}

	sort.Ints(order)
	windows := make([]Window, 0, len(order))
	for _, id := range order {
		windows = append(windows, *byID[id])
	}
	return windows, nil
}

// visible reports whether the page is the shown tab of its window
func (c *RodController) visible(ctx context.Context, id proto.TargetTargetID) bool {
	page, err := c.client(ctx).PageFromTarget(id)
	if err != nil {
		return false
	}
	res, err := page.Context(ctx).Eval(`() => document.visibilityState === "visible"`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

// RaiseWindow restores and raises the window owning tabID
func (c *RodController) RaiseWindow(ctx context.Context, tabID string) error {
	b := c.client(ctx)
	win, err := proto.BrowserGetWindowForTarget{TargetID: proto.TargetTargetID(tabID)}.Call(b)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrTabNotFound, tabID, err)
	}
	err = proto.BrowserSetWindowBounds{
		WindowID: win.WindowID,
		Bounds:   &proto.BrowserBounds{WindowState: proto.BrowserWindowStateNormal},
	}.Call(b)
	if err != nil {
		return fmt.Errorf("raise window %d: %w", win.WindowID, err)
	}
	return nil
}

// FocusTab activates tabID, which also raises its window
func (c *RodController) FocusTab(ctx context.Context, tabID string) error {
	err := proto.TargetActivateTarget{TargetID: proto.TargetTargetID(tabID)}.Call(c.client(ctx))
	if err != nil {
		return fmt.Errorf("focus tab %s: %w", tabID, err)
	}
	return nil
}

// CloseTab closes a single tab
func (c *RodController) CloseTab(ctx context.Context, tabID string) error {
	_, err := proto.TargetCloseTarget{TargetID: proto.TargetTargetID(tabID)}.Call(c.client(ctx))
	if err != nil {
		return fmt.Errorf("close tab %s: %w", tabID, err)
	}
	return nil
}

// CloseWindow closes every tab of a window, which closes the window
func (c *RodController) CloseWindow(ctx context.Context, windowID int) error {
	windows, err := c.ListWindows(ctx)
	if err != nil {
		return err
	}
	for _, w := range windows {
		if w.ID != windowID {
			continue
		}
		for _, t := range w.Tabs {
			if err := c.CloseTab(ctx, t.ID); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("close window %d: no such window", windowID)
}

// CreateWindow opens the first url in a new window and the rest as tabs
// after it. New targets land in the last focused window, which is the one
// just created.
func (c *RodController) CreateWindow(ctx context.Context, urls []string) (int, error) {
	if len(urls) == 0 {
		urls = []string{"about:blank"}
	}
	b := c.client(ctx)
	first, err := proto.TargetCreateTarget{URL: urls[0], NewWindow: true}.Call(b)
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}
	win, err := proto.BrowserGetWindowForTarget{TargetID: first.TargetID}.Call(b)
	if err != nil {
		return 0, fmt.Errorf("create window: %w", err)
	}
	for _, u := range urls[1:] {
		if _, err := (proto.TargetCreateTarget{URL: u}).Call(b); err != nil {
			return int(win.WindowID), fmt.Errorf("open %s: %w", u, err)
		}
	}
	return int(win.WindowID), nil
}

// CreateTab opens url as a new tab. CDP cannot target a window directly, so
// a window is chosen by focusing one of its tabs first.
func (c *RodController) CreateTab(ctx context.Context, u string, windowID int) (string, error) {
	if windowID != 0 {
		windows, err := c.ListWindows(ctx)
		if err != nil {
			return "", err
		}
		for _, w := range windows {
			if w.ID == windowID && len(w.Tabs) > 0 {
				if err := c.FocusTab(ctx, w.Tabs[0].ID); err != nil {
					return "", err
				}
				break
			}
		}
	}
	res, err := proto.TargetCreateTarget{URL: u}.Call(c.client(ctx))
	if err != nil {
		return "", fmt.Errorf("create tab: %w", err)
	}
	return string(res.TargetID), nil
}

// faviconFor guesses the conventional favicon location for a page
func faviconFor(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/favicon.ico"
}
