package assistant

import "sync"

// Attachment is an image the user explicitly attached to the chat, kept as
// raw bytes plus the canvas shape it originated from (when known).
type Attachment struct {
	Data      []byte
	MediaType string
	ShapeID   string
}

// Context holds the implicit cross-turn state tool handlers fall back on
// when the model omits explicit shape references: the images the user
// attached to the conversation, newest last. The session is the only
// writer; handlers only read. A user swapping the reference mid-flight is
// last-writer-wins: there is no per-loop snapshot.
type Context struct {
	mu          sync.RWMutex
	attachments []Attachment
}

// NewContext creates an empty Context.
func NewContext() *Context {
	return &Context{}
}

// Attach records a newly attached image, making it the current reference.
func (c *Context) Attach(a Attachment) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attachments = append(c.attachments, a)
}

// Reference returns the current reference image (the most recently attached)
// and whether one exists.
func (c *Context) Reference() (Attachment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if len(c.attachments) == 0 {
		return Attachment{}, false
	}
	return c.attachments[len(c.attachments)-1], true
}

// Attachments returns a snapshot of all attachments, oldest first.
func (c *Context) Attachments() []Attachment {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return append([]Attachment(nil), c.attachments...)
}

// OverlayFor returns the most recently attached image that did not come from
// the given base shape. Tools that need both a base and a distinct overlay
// use this to default the overlay.
func (c *Context) OverlayFor(baseShapeID string) (Attachment, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for i := len(c.attachments) - 1; i >= 0; i-- {
		if c.attachments[i].ShapeID != baseShapeID {
			return c.attachments[i], true
		}
	}
	return Attachment{}, false
}

// Reset clears all attachments. Called on session reset.
func (c *Context) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attachments = nil
}
