package browser

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// fakeController records calls and serves a fixed window list
type fakeController struct {
	mu      sync.Mutex
	windows []Window
	calls   []string
	created [][]string
	failOn  map[string]error
	nextWin int
	gate    chan struct{}
}

func newFake(windows ...Window) *fakeController {
	return &fakeController{windows: windows, failOn: map[string]error{}, nextWin: 100}
}

func (f *fakeController) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.failOn[call]
}

func (f *fakeController) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeController) ListWindows(ctx context.Context) ([]Window, error) {
	return f.windows, f.record("list")
}

func (f *fakeController) RaiseWindow(ctx context.Context, tabID string) error {
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.record("raise:" + tabID)
}

func (f *fakeController) FocusTab(ctx context.Context, tabID string) error {
	return f.record("focus:" + tabID)
}

func (f *fakeController) CloseTab(ctx context.Context, tabID string) error {
	return f.record("closeTab:" + tabID)
}

func (f *fakeController) CloseWindow(ctx context.Context, windowID int) error {
	return f.record(fmt.Sprintf("closeWindow:%d", windowID))
}

func (f *fakeController) CreateWindow(ctx context.Context, urls []string) (int, error) {
	if err := f.record(fmt.Sprintf("createWindow:%s", urls[0])); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, urls)
	f.nextWin++
	return f.nextWin, nil
}

func (f *fakeController) CreateTab(ctx context.Context, url string, windowID int) (string, error) {
	return "new", f.record(fmt.Sprintf("createTab:%s:%d", url, windowID))
}

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
