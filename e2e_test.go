package formset

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/chromedp/chromedp"
)

func findChrome() bool {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// TestE2EBrowserSubmit loads a live page in a real browser, edits the
// pruned formset and submits it as a regular HTML form
func TestE2EBrowserSubmit(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping e2e browser test in short mode")
	}
	if !findChrome() {
		t.Skip("Skipping e2e browser test: Chrome not found")
	}

	var fsMarkup bytes.Buffer
	if err := RenderDefinition(&fsMarkup, itemsDefinition()); err != nil {
		t.Fatalf("RenderDefinition failed: %v", err)
	}
	page := `<!DOCTYPE html><html><body><form method="post" action="/">` + fsMarkup.String() +
		`<button type="submit" id="save">Save</button></form></body></html>`

	received := make(chan map[string]*Submission, 1)
	handler, err := Mount([]byte(page), WithSubmitHandler(func(subs map[string]*Submission) error {
		received <- subs
		return nil
	}, true, true))
	if err != nil {
		t.Fatalf("Mount failed: %v", err)
	}

	server := httptest.NewServer(handler)
	defer server.Close()

	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()
	ctx, cancel = context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	var total, body string
	var addButtons int
	err = chromedp.Run(ctx,
		chromedp.Navigate(server.URL),
		chromedp.WaitReady(`[data-fastview-formset="items"]`, chromedp.ByQuery),
		chromedp.Value(`#id_items-TOTAL_FORMS`, &total, chromedp.ByQuery),
		chromedp.Evaluate(`document.querySelectorAll("button.fastview-add").length`, &addButtons),
		chromedp.SetValue(`[name="items-0-title"]`, "Updated", chromedp.ByQuery),
		chromedp.Click(`#save`, chromedp.ByQuery),
		chromedp.WaitReady(`body pre`, chromedp.ByQuery),
		chromedp.Text(`body`, &body, chromedp.ByQuery),
	)
	if err != nil {
		t.Fatalf("browser run failed: %v", err)
	}

	// Extra forms were pruned when the session attached
	if total != "1" {
		t.Errorf("TOTAL_FORMS = %q, want 1", total)
	}
	if addButtons != 1 {
		t.Errorf("found %d add buttons, want 1", addButtons)
	}

	var resp SubmitResponse
	if err := json.NewDecoder(strings.NewReader(body)).Decode(&resp); err != nil {
		t.Fatalf("failed to decode submit response %q: %v", body, err)
	}
	if !resp.Success {
		t.Errorf("submission failed: %v", resp.Errors)
	}
	var sub *Submission
	select {
	case subs := <-received:
		sub = subs["items"]
	case <-time.After(5 * time.Second):
		t.Fatal("submit handler was not called")
	}
	if sub == nil || len(sub.Forms) != 1 {
		t.Fatalf("expected one submitted form, got %+v", sub)
	}
	if got := sub.Forms[0].Get("title"); got != "Updated" {
		t.Errorf("submitted title = %q, want Updated", got)
	}
	if got := sub.Forms[0].Get("id"); got != "7" {
		t.Errorf("submitted id = %q, want 7", got)
	}
}
