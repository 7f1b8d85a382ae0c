// Package upload drives task attachments through their upload lifecycle,
// concurrently with the rest of the wizard interaction.
package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/kazipost/kazipost/internal/draft"
	"github.com/kazipost/kazipost/internal/platform/id"
	"github.com/kazipost/kazipost/internal/telemetry"
)

// Store is the remote media host the coordinator uploads to and deletes from.
type Store interface {
	Upload(ctx context.Context, filename string, content io.Reader) (string, error)
	Delete(ctx context.Context, remoteURL string) error
}

// entry pairs an attachment with its local resources. content doubles as the
// preview payload and the upload body; it is released once the remote URL
// supersedes it or the attachment is removed, so long sessions do not leak.
type entry struct {
	att      draft.Attachment
	filename string
	content  []byte
	removed  bool
}

// Coordinator owns attachment status transitions. List membership is driven
// by the step UI through Enqueue and Remove; everything in between is the
// coordinator's business. All uploads run concurrently.
type Coordinator struct {
	mu      sync.Mutex
	store   Store
	emitter *telemetry.Emitter
	byID    map[string]*entry
	order   []string
	changed chan struct{}
}

// NewCoordinator creates a coordinator backed by the given media store.
// emitter may be nil.
func NewCoordinator(store Store, emitter *telemetry.Emitter) *Coordinator {
	return &Coordinator{
		store:   store,
		emitter: emitter,
		byID:    make(map[string]*entry),
		changed: make(chan struct{}),
	}
}

// notifyLocked wakes every Settle waiter. Callers must hold mu.
func (c *Coordinator) notifyLocked() {
	close(c.changed)
	c.changed = make(chan struct{})
}

// Enqueue registers a new pending attachment and starts its upload in the
// background. It returns the attachment's local ID immediately.
func (c *Coordinator) Enqueue(filename string, content []byte) (string, error) {
	if c == nil || c.store == nil {
		return "", fmt.Errorf("upload coordinator is not configured")
	}
	localID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("new attachment id: %w", err)
	}

	e := &entry{
		att: draft.Attachment{
			LocalID:    localID,
			Status:     draft.AttachmentPending,
			PreviewRef: "mem://" + localID,
		},
		filename: filename,
		content:  content,
	}

	c.mu.Lock()
	c.byID[localID] = e
	c.order = append(c.order, localID)
	c.notifyLocked()
	c.mu.Unlock()

	go c.run(e)
	return localID, nil
}

// EnqueuePreexisting registers an already-hosted attachment carried over from
// a prior draft. It is born uploaded; removing it never triggers a remote
// delete.
func (c *Coordinator) EnqueuePreexisting(remoteURL string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("upload coordinator is not configured")
	}
	localID, err := id.NewID()
	if err != nil {
		return "", fmt.Errorf("new attachment id: %w", err)
	}

	e := &entry{
		att: draft.Attachment{
			LocalID:     localID,
			Status:      draft.AttachmentUploaded,
			RemoteURL:   remoteURL,
			Preexisting: true,
		},
	}

	c.mu.Lock()
	c.byID[localID] = e
	c.order = append(c.order, localID)
	c.notifyLocked()
	c.mu.Unlock()
	return localID, nil
}

// run executes one attachment's upload. The upload uses a background context:
// once started it is never cancelled, even if the attachment is removed; a
// removed attachment that still uploads gets a compensating remote delete.
func (c *Coordinator) run(e *entry) {
	c.mu.Lock()
	if e.removed {
		e.content = nil
		c.mu.Unlock()
		return
	}
	e.att.Status = draft.AttachmentUploading
	filename := e.filename
	payload := e.content
	c.notifyLocked()
	c.mu.Unlock()

	remoteURL, err := c.store.Upload(context.Background(), filename, bytes.NewReader(payload))

	c.mu.Lock()
	defer c.mu.Unlock()

	if e.removed {
		e.content = nil
		if err == nil {
			log.Printf("attachment %s: upload finished after removal, deleting %s", e.att.LocalID, remoteURL)
			_ = c.emitter.Emit(context.Background(), telemetry.Event{
				Kind:     telemetry.KindUploadOrphaned,
				EntityID: e.att.LocalID,
			})
			c.deleteRemote(e.att.LocalID, remoteURL)
		}
		c.notifyLocked()
		return
	}

	if err != nil {
		// Terminal: no automatic retry. The preview stays so the step UI can
		// still show what failed.
		e.att.Status = draft.AttachmentFailed
		log.Printf("attachment %s: upload failed: %v", e.att.LocalID, err)
		_ = c.emitter.Emit(context.Background(), telemetry.Event{
			Kind:     telemetry.KindUploadFailed,
			EntityID: e.att.LocalID,
			Detail:   err.Error(),
		})
		c.notifyLocked()
		return
	}

	e.att.Status = draft.AttachmentUploaded
	e.att.RemoteURL = remoteURL
	e.att.PreviewRef = ""
	e.content = nil
	c.notifyLocked()
}

// Remove takes an attachment out of the list immediately, whatever its
// status, and releases its local resources. A fresh uploaded attachment gets
// a best-effort remote delete; removing an unknown ID is a no-op.
func (c *Coordinator) Remove(localID string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.byID[localID]
	if !ok {
		return
	}
	delete(c.byID, localID)
	for i, orderedID := range c.order {
		if orderedID == localID {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}

	e.removed = true
	if e.att.Status == draft.AttachmentUploaded && !e.att.Preexisting {
		c.deleteRemote(e.att.LocalID, e.att.RemoteURL)
	}
	// An uploading attachment keeps its goroutine running; run() issues the
	// compensating delete if that upload still succeeds.
	e.content = nil
	e.att.PreviewRef = ""
	c.notifyLocked()
}

// RemoveAll removes every attachment, releasing previews and remote copies.
func (c *Coordinator) RemoveAll() {
	for _, att := range c.Snapshot() {
		c.Remove(att.LocalID)
	}
}

// deleteRemote fires a best-effort remote delete. Failures are logged and
// never surfaced: the user already moved on.
func (c *Coordinator) deleteRemote(localID, remoteURL string) {
	go func() {
		if err := c.store.Delete(context.Background(), remoteURL); err != nil {
			log.Printf("attachment %s: best-effort delete of %s failed: %v", localID, remoteURL, err)
		}
	}()
}

// Get returns the current state of one attachment.
func (c *Coordinator) Get(localID string) (draft.Attachment, bool) {
	if c == nil {
		return draft.Attachment{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.byID[localID]
	if !ok {
		return draft.Attachment{}, false
	}
	return e.att, true
}

// Snapshot returns the attachments in enqueue order.
func (c *Coordinator) Snapshot() []draft.Attachment {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	atts := make([]draft.Attachment, 0, len(c.order))
	for _, localID := range c.order {
		if e, ok := c.byID[localID]; ok {
			atts = append(atts, e.att)
		}
	}
	return atts
}

// Settle blocks until every attachment reaches a terminal status (uploaded
// or failed) or the context is cancelled. Failed attachments do not block:
// they are terminal.
func (c *Coordinator) Settle(ctx context.Context) error {
	if c == nil {
		return nil
	}
	for {
		c.mu.Lock()
		if !c.busyLocked() {
			c.mu.Unlock()
			return nil
		}
		changed := c.changed
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-changed:
		}
	}
}

func (c *Coordinator) busyLocked() bool {
	for _, localID := range c.order {
		if e, ok := c.byID[localID]; ok && !e.att.Status.Terminal() {
			return true
		}
	}
	return false
}
