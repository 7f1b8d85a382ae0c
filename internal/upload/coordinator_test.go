package upload

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/kazipost/kazipost/internal/draft"
)

type uploadOutcome struct {
	url string
	err error
}

// fakeMediaStore gates each upload on a per-filename channel so tests
// control exactly when and how uploads finish.
type fakeMediaStore struct {
	mu      sync.Mutex
	gates   map[string]chan uploadOutcome
	deletes []string
	deleted chan string
}

func newFakeMediaStore() *fakeMediaStore {
	return &fakeMediaStore{
		gates:   make(map[string]chan uploadOutcome),
		deleted: make(chan string, 16),
	}
}

func (f *fakeMediaStore) gate(filename string) chan uploadOutcome {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch, ok := f.gates[filename]
	if !ok {
		ch = make(chan uploadOutcome, 1)
		f.gates[filename] = ch
	}
	return ch
}

func (f *fakeMediaStore) finish(filename, url string, err error) {
	f.gate(filename) <- uploadOutcome{url: url, err: err}
}

func (f *fakeMediaStore) Upload(ctx context.Context, filename string, content io.Reader) (string, error) {
	outcome := <-f.gate(filename)
	return outcome.url, outcome.err
}

func (f *fakeMediaStore) Delete(ctx context.Context, remoteURL string) error {
	f.mu.Lock()
	f.deletes = append(f.deletes, remoteURL)
	f.mu.Unlock()
	f.deleted <- remoteURL
	return nil
}

func (f *fakeMediaStore) deleteCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.deletes)
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(msg)
}

func settle(t *testing.T, c *Coordinator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := c.Settle(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func TestEnqueueUploadsAndReleasesPreview(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	localID, err := c.Enqueue("tap.jpg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	att, ok := c.Get(localID)
	if !ok {
		t.Fatal("expected attachment to exist")
	}
	if att.Status.Terminal() {
		t.Fatalf("status = %v before upload finished", att.Status)
	}
	if att.PreviewRef == "" {
		t.Fatal("expected preview ref while not uploaded")
	}

	store.finish("tap.jpg", "https://cdn.example/img1.jpg", nil)
	settle(t, c)

	att, _ = c.Get(localID)
	if att.Status != draft.AttachmentUploaded {
		t.Fatalf("status = %v, want %v", att.Status, draft.AttachmentUploaded)
	}
	if att.RemoteURL != "https://cdn.example/img1.jpg" {
		t.Fatalf("remote url = %q, want %q", att.RemoteURL, "https://cdn.example/img1.jpg")
	}
	if att.PreviewRef != "" {
		t.Fatal("preview ref must be released once uploaded")
	}
}

func TestUploadFailureIsTerminalWithoutRetry(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	localID, err := c.Enqueue("tap.jpg", []byte("jpeg"))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	store.finish("tap.jpg", "", fmt.Errorf("connection reset"))
	settle(t, c)

	att, _ := c.Get(localID)
	if att.Status != draft.AttachmentFailed {
		t.Fatalf("status = %v, want %v", att.Status, draft.AttachmentFailed)
	}
	if att.RemoteURL != "" {
		t.Fatal("failed attachment must not carry a remote url")
	}
	if att.PreviewRef == "" {
		t.Fatal("failed attachment keeps its preview for display")
	}
	if store.deleteCount() != 0 {
		t.Fatalf("no delete calls expected, got %d", store.deleteCount())
	}
}

func TestUploadsRunConcurrently(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	firstID, _ := c.Enqueue("a.jpg", []byte("a"))
	secondID, _ := c.Enqueue("b.jpg", []byte("b"))

	// Both must be in-flight at once: neither gate has been released yet.
	waitFor(t, func() bool {
		a, _ := c.Get(firstID)
		b, _ := c.Get(secondID)
		return a.Status == draft.AttachmentUploading && b.Status == draft.AttachmentUploading
	}, "expected both uploads in flight")

	// Completions arrive in reverse enqueue order.
	store.finish("b.jpg", "https://cdn.example/b.jpg", nil)
	store.finish("a.jpg", "https://cdn.example/a.jpg", nil)
	settle(t, c)

	atts := c.Snapshot()
	if len(atts) != 2 {
		t.Fatalf("expected 2 attachments, got %d", len(atts))
	}
	if atts[0].RemoteURL != "https://cdn.example/a.jpg" || atts[1].RemoteURL != "https://cdn.example/b.jpg" {
		t.Fatalf("snapshot order broken: %v", atts)
	}
}

func TestRemoveWhileUploadingIssuesCompensatingDelete(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	firstID, _ := c.Enqueue("a.jpg", []byte("a"))
	secondID, _ := c.Enqueue("b.jpg", []byte("b"))

	waitFor(t, func() bool {
		a, _ := c.Get(firstID)
		return a.Status == draft.AttachmentUploading
	}, "expected first upload in flight")

	c.Remove(firstID)
	if _, ok := c.Get(firstID); ok {
		t.Fatal("removed attachment must leave the list immediately")
	}

	// The in-flight upload finishes anyway; its result is orphaned and must
	// be compensated with a remote delete.
	store.finish("a.jpg", "https://cdn.example/a.jpg", nil)
	select {
	case deleted := <-store.deleted:
		if deleted != "https://cdn.example/a.jpg" {
			t.Fatalf("deleted %q, want %q", deleted, "https://cdn.example/a.jpg")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected compensating delete")
	}

	// The second upload is unaffected.
	store.finish("b.jpg", "https://cdn.example/b.jpg", nil)
	settle(t, c)
	att, _ := c.Get(secondID)
	if att.Status != draft.AttachmentUploaded {
		t.Fatalf("second status = %v, want %v", att.Status, draft.AttachmentUploaded)
	}
}

func TestRemoveUploadedDeletesRemoteOnce(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	localID, _ := c.Enqueue("a.jpg", []byte("a"))
	store.finish("a.jpg", "https://cdn.example/a.jpg", nil)
	settle(t, c)

	c.Remove(localID)
	c.Remove(localID) // removing an already-removed attachment is a no-op

	select {
	case <-store.deleted:
	case <-time.After(2 * time.Second):
		t.Fatal("expected remote delete for fresh uploaded attachment")
	}
	time.Sleep(50 * time.Millisecond)
	if store.deleteCount() != 1 {
		t.Fatalf("delete calls = %d, want 1", store.deleteCount())
	}
}

func TestRemovePreexistingSkipsRemoteDelete(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	localID, err := c.EnqueuePreexisting("https://cdn.example/old.jpg")
	if err != nil {
		t.Fatalf("enqueue preexisting: %v", err)
	}
	att, _ := c.Get(localID)
	if att.Status != draft.AttachmentUploaded || !att.Preexisting {
		t.Fatalf("unexpected preexisting attachment %+v", att)
	}

	c.Remove(localID)
	time.Sleep(50 * time.Millisecond)
	if store.deleteCount() != 0 {
		t.Fatalf("delete calls = %d, want 0 for preexisting attachment", store.deleteCount())
	}
}

func TestSettleUnblocksWhenAllTerminal(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	c.Enqueue("ok.jpg", []byte("a"))
	c.Enqueue("bad.jpg", []byte("b"))
	store.finish("ok.jpg", "https://cdn.example/ok.jpg", nil)
	store.finish("bad.jpg", "", fmt.Errorf("boom"))

	// A failed attachment is terminal and must not hold the gate.
	settle(t, c)
}

func TestSettleHonorsContextCancellation(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	c.Enqueue("stuck.jpg", []byte("a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.Settle(ctx); err == nil {
		t.Fatal("expected context error while upload is in flight")
	}
	store.finish("stuck.jpg", "https://cdn.example/late.jpg", nil)
}

func TestRemoveUnknownIDIsNoOp(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)
	c.Remove("does-not-exist")
	if store.deleteCount() != 0 {
		t.Fatal("unexpected delete call")
	}
}

func TestStatusNeverSkipsUploading(t *testing.T) {
	store := newFakeMediaStore()
	c := NewCoordinator(store, nil)

	localID, _ := c.Enqueue("a.jpg", []byte("a"))

	sawUploading := false
	waitFor(t, func() bool {
		att, ok := c.Get(localID)
		if !ok {
			return false
		}
		if att.Status == draft.AttachmentUploading {
			sawUploading = true
		}
		return sawUploading
	}, "expected to observe the uploading status")

	store.finish("a.jpg", "https://cdn.example/a.jpg", nil)
	settle(t, c)
	att, _ := c.Get(localID)
	if att.Status != draft.AttachmentUploaded {
		t.Fatalf("status = %v, want %v", att.Status, draft.AttachmentUploaded)
	}
}
