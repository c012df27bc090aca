//go:build e2e

// Package e2e provides end-to-end browser tests for the tasklist web UI.
//
// Test organization:
// - e2e_test.go: TestMain, shared helpers, constants, page tests
// - tasks_test.go: add, edit, toggle, delete and clear-all flows
// - controls_test.go: UI controls tests (theme, filter, search)
package e2e

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"sync"
	"testing"
	"time"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseURL    = "http://localhost:18080"
	testDBPath = "/tmp/tasklist-e2e.db"
)

var (
	pw        *playwright.Playwright
	serverCmd *exec.Cmd
)

func TestMain(m *testing.M) {
	// clean old test data
	_ = os.Remove(testDBPath)

	// build test binary
	ctx := context.Background()
	build := exec.CommandContext(ctx, "go", "build", "-o", "/tmp/tasklist-e2e", "./app")
	build.Dir = ".."
	build.Stdout = os.Stdout
	build.Stderr = os.Stderr
	if err := build.Run(); err != nil {
		fmt.Printf("failed to build: %v\n", err)
		os.Exit(1)
	}

	// start server with write limits off, tests hit write endpoints rapidly
	serverCmd = exec.CommandContext(ctx, "/tmp/tasklist-e2e",
		"--listen=:18080",
		"--db="+testDBPath,
		"--write-rate=0",
	)
	serverCmd.Stdout = os.Stdout
	serverCmd.Stderr = os.Stderr
	if err := serverCmd.Start(); err != nil {
		fmt.Printf("failed to start server: %v\n", err)
		os.Exit(1)
	}

	// wait for server readiness
	if err := waitForServer(baseURL+"/ping", 30*time.Second); err != nil {
		fmt.Printf("server not ready: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// install playwright browsers
	if err := playwright.Install(&playwright.RunOptions{
		Browsers: []string{"chromium"},
	}); err != nil {
		fmt.Printf("failed to install playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// start playwright
	var err error
	pw, err = playwright.Run()
	if err != nil {
		fmt.Printf("failed to start playwright: %v\n", err)
		_ = serverCmd.Process.Kill()
		os.Exit(1)
	}

	// run tests
	code := m.Run()

	// cleanup
	_ = pw.Stop()
	_ = serverCmd.Process.Kill()
	_ = os.Remove(testDBPath)

	os.Exit(code)
}

func waitForServer(url string, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("server not ready after %v", timeout)
		default:
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody) // #nosec G107 - test url
			if err != nil {
				time.Sleep(100 * time.Millisecond)
				continue
			}
			resp, err := client.Do(req)
			if err == nil {
				_ = resp.Body.Close()
				if resp.StatusCode == http.StatusOK {
					return nil
				}
			}
			time.Sleep(100 * time.Millisecond)
		}
	}
}

// dialogs records messages of browser dialogs, all dialogs are accepted
type dialogs struct {
	mu   sync.Mutex
	msgs []string
}

func (d *dialogs) last() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.msgs) == 0 {
		return ""
	}
	return d.msgs[len(d.msgs)-1]
}

func newPage(t *testing.T) (playwright.Page, *dialogs) {
	t.Helper()
	headless := os.Getenv("E2E_HEADLESS") != "false"
	slowMo := 0.0
	if !headless {
		slowMo = 50 // 50ms slowdown for UI mode
	}
	brow, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(headless),
		SlowMo:   playwright.Float(slowMo),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = brow.Close() })

	// create isolated context (incognito-like) so preference cookies don't leak between tests
	ctx, err := brow.NewContext()
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })

	page, err := ctx.NewPage()
	require.NoError(t, err)

	dlg := &dialogs{}
	page.OnDialog(func(d playwright.Dialog) {
		dlg.mu.Lock()
		dlg.msgs = append(dlg.msgs, d.Message())
		dlg.mu.Unlock()
		_ = d.Accept()
	})
	return page, dlg
}

// resetTasks removes all tasks through the JSON API, tests share one database
func resetTasks(t *testing.T) {
	t.Helper()
	req, err := http.NewRequestWithContext(t.Context(), http.MethodDelete, baseURL+"/api/tasks", http.NoBody)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// navigateToList resets tasks, opens the page and waits for it to load
func navigateToList(t *testing.T, page playwright.Page) {
	t.Helper()
	resetTasks(t)

	_, err := page.Goto(baseURL)
	require.NoError(t, err)

	// wait for header to be visible (confirms page loaded)
	waitVisible(t, page.Locator(".header"))
}

// addTask types text into the form and submits it, waits for the task to show up
func addTask(t *testing.T, page playwright.Page, text string) {
	t.Helper()
	require.NoError(t, page.Locator("#task-form input[name='text']").Fill(text))
	require.NoError(t, page.Locator("#task-form button[type='submit']").Click())
	waitVisible(t, taskItem(page, text))
}

// taskItem locates a task row by its text
func taskItem(page playwright.Page, text string) playwright.Locator {
	return page.Locator(".task-item").Filter(playwright.LocatorFilterOptions{HasText: text})
}

func taskCount(t *testing.T, page playwright.Page) int {
	t.Helper()
	count, err := page.Locator(".task-item").Count()
	require.NoError(t, err)
	return count
}

func waitVisible(t *testing.T, loc playwright.Locator) {
	t.Helper()
	err := loc.First().WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: playwright.Float(5000),
	})
	require.NoError(t, err)
}

// --- page tests ---

func TestPage_Loads(t *testing.T) {
	page, _ := newPage(t)
	navigateToList(t, page)

	title, err := page.Title()
	require.NoError(t, err)
	assert.Equal(t, "Tasks", title)

	visible, err := page.Locator("#task-form").IsVisible()
	require.NoError(t, err)
	assert.True(t, visible, "task form should be visible")

	text, err := page.Locator("#task-form button[type='submit']").TextContent()
	require.NoError(t, err)
	assert.Contains(t, text, "Add")
}

func TestPage_EmptyState(t *testing.T) {
	page, _ := newPage(t)
	navigateToList(t, page)

	text, err := page.Locator(".empty-state").TextContent()
	require.NoError(t, err)
	assert.Contains(t, text, "No tasks yet. Add a new one!")

	count, err := page.Locator(".clear-all").Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count, "clear all should be hidden without tasks")
}

func TestPage_ShowsStoredTasks(t *testing.T) {
	page, _ := newPage(t)
	navigateToList(t, page)
	addTask(t, page, "persisted task")

	// reload and verify the task came from the store
	_, err := page.Reload()
	require.NoError(t, err)
	waitVisible(t, taskItem(page, "persisted task"))
	assert.Equal(t, 1, taskCount(t, page))
}
