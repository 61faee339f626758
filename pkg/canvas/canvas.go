// Package canvas provides an in-memory spatial document of shapes and media
// assets. The assistant's tools mutate it; frontends observe it. The
// Document is safe for concurrent use so independent generation flows can
// insert results without coordinating.
package canvas

import (
	"errors"
	"fmt"
	"sync"
)

// Kind identifies what a shape holds.
type Kind string

const (
	KindText        Kind = "text"
	KindImage       Kind = "image"
	KindVideo       Kind = "video"
	KindPlaceholder Kind = "placeholder"
)

var (
	// ErrShapeNotFound is returned when a referenced shape does not exist.
	ErrShapeNotFound = errors.New("canvas: shape not found")
	// ErrAssetNotFound is returned when a shape's asset is missing.
	ErrAssetNotFound = errors.New("canvas: asset not found")
	// ErrNotImage is returned when an operation needs an image shape but the
	// referenced shape holds something else.
	ErrNotImage = errors.New("canvas: shape is not an image")
)

// Point is a position on the page.
type Point struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle in page coordinates.
type Rect struct {
	X, Y, W, H float64
}

// Union returns the smallest rectangle containing both r and o.
// A zero-size rectangle acts as the identity.
func (r Rect) Union(o Rect) Rect {
	if r.W == 0 && r.H == 0 {
		return o
	}
	if o.W == 0 && o.H == 0 {
		return r
	}

	x1 := min(r.X, o.X)
	y1 := min(r.Y, o.Y)
	x2 := max(r.X+r.W, o.X+o.W)
	y2 := max(r.Y+r.H, o.Y+o.H)

	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

// Shape is an element on the canvas. Image and video shapes reference an
// Asset by ID; text shapes carry their text inline.
type Shape struct {
	ID      string
	Kind    Kind
	Bounds  Rect
	Text    string
	AssetID string
	GroupID string
}

// Asset holds raw media bytes for an image or video shape.
type Asset struct {
	ID        string
	MediaType string
	Data      []byte
}

// Connector is a visual arrow from one shape to another, drawn between a
// generation source and its results.
type Connector struct {
	ID   string
	From string
	To   string
}

// Document is the canvas: shapes in z-order, their assets, connectors, and
// the current selection.
type Document struct {
	mu         sync.RWMutex
	shapes     map[string]Shape
	order      []string
	assets     map[string]Asset
	connectors []Connector
	selection  []string
	nextID     int
}

// NewDocument creates an empty Document.
func NewDocument() *Document {
	return &Document{
		shapes: make(map[string]Shape),
		assets: make(map[string]Asset),
	}
}

func (d *Document) newID(prefix string) string {
	d.nextID++
	return fmt.Sprintf("%s-%d", prefix, d.nextID)
}

// CreateShape adds a shape and returns its ID. An empty ID is assigned.
func (d *Document) CreateShape(s Shape) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	if s.ID == "" {
		s.ID = d.newID("shape")
	}
	if _, exists := d.shapes[s.ID]; !exists {
		d.order = append(d.order, s.ID)
	}
	d.shapes[s.ID] = s

	return s.ID
}

// CreateImageShape stores the image bytes as a new asset and adds an image
// shape referencing it. It returns the created shape.
func (d *Document) CreateImageShape(data []byte, mediaType string, bounds Rect) Shape {
	return d.createAssetShape(KindImage, data, mediaType, bounds)
}

// CreateVideoShape stores the video bytes as a new asset and adds a playable
// video shape referencing it. It returns the created shape.
func (d *Document) CreateVideoShape(data []byte, mediaType string, bounds Rect) Shape {
	return d.createAssetShape(KindVideo, data, mediaType, bounds)
}

func (d *Document) createAssetShape(kind Kind, data []byte, mediaType string, bounds Rect) Shape {
	d.mu.Lock()
	defer d.mu.Unlock()

	asset := Asset{
		ID:        d.newID("asset"),
		MediaType: mediaType,
		Data:      append([]byte(nil), data...),
	}
	d.assets[asset.ID] = asset

	s := Shape{
		ID:      d.newID("shape"),
		Kind:    kind,
		Bounds:  bounds,
		AssetID: asset.ID,
	}
	d.shapes[s.ID] = s
	d.order = append(d.order, s.ID)

	return s
}

// Shape returns a shape by ID.
func (d *Document) Shape(id string) (Shape, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.shapes[id]
	return s, ok
}

// Shapes returns all shapes in z-order.
func (d *Document) Shapes() []Shape {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Shape, 0, len(d.order))
	for _, id := range d.order {
		out = append(out, d.shapes[id])
	}
	return out
}

// UpdateShape applies fn to the shape with the given ID.
func (d *Document) UpdateShape(id string, fn func(*Shape)) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.shapes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}

	fn(&s)
	s.ID = id // the ID is not editable
	d.shapes[id] = s

	return nil
}

// DeleteShape removes a shape along with its connectors and selection entry.
// The asset is kept if another shape still references it.
func (d *Document) DeleteShape(id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.shapes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
	}

	delete(d.shapes, id)
	d.order = remove(d.order, id)
	d.selection = remove(d.selection, id)

	var kept []Connector
	for _, c := range d.connectors {
		if c.From != id && c.To != id {
			kept = append(kept, c)
		}
	}
	d.connectors = kept

	if s.AssetID != "" && !d.assetReferenced(s.AssetID) {
		delete(d.assets, s.AssetID)
	}

	return nil
}

func (d *Document) assetReferenced(assetID string) bool {
	for _, s := range d.shapes {
		if s.AssetID == assetID {
			return true
		}
	}
	return false
}

// Asset returns an asset by ID.
func (d *Document) Asset(id string) (Asset, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	a, ok := d.assets[id]
	return a, ok
}

// ShapeAsset returns the asset backing the given shape.
func (d *Document) ShapeAsset(shapeID string) (Asset, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	s, ok := d.shapes[shapeID]
	if !ok {
		return Asset{}, fmt.Errorf("%w: %s", ErrShapeNotFound, shapeID)
	}

	a, ok := d.assets[s.AssetID]
	if !ok {
		return Asset{}, fmt.Errorf("%w: shape %s", ErrAssetNotFound, shapeID)
	}

	return a, nil
}

// UpdateAsset replaces the bytes of the asset backing the given image shape.
// The shape keeps its identity; only the pixels change.
func (d *Document) UpdateAsset(shapeID string, data []byte, mediaType string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	s, ok := d.shapes[shapeID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, shapeID)
	}

	a, ok := d.assets[s.AssetID]
	if !ok {
		return fmt.Errorf("%w: shape %s", ErrAssetNotFound, shapeID)
	}

	a.Data = append([]byte(nil), data...)
	if mediaType != "" {
		a.MediaType = mediaType
	}
	d.assets[a.ID] = a

	return nil
}

// InsertPlaceholder adds a transient placeholder shape shown while a
// generation is in flight. It returns the placeholder's ID.
func (d *Document) InsertPlaceholder(bounds Rect) string {
	d.mu.Lock()
	defer d.mu.Unlock()

	id := d.newID("placeholder")
	d.shapes[id] = Shape{ID: id, Kind: KindPlaceholder, Bounds: bounds}
	d.order = append(d.order, id)

	return id
}

// RemovePlaceholder deletes a placeholder. Unknown IDs are ignored so
// cleanup paths can call it unconditionally.
func (d *Document) RemovePlaceholder(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.shapes[id]; !ok {
		return
	}
	delete(d.shapes, id)
	d.order = remove(d.order, id)
}

// Connect draws a connector from one shape to another.
func (d *Document) Connect(fromID, toID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.shapes[fromID]; !ok {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, fromID)
	}
	if _, ok := d.shapes[toID]; !ok {
		return fmt.Errorf("%w: %s", ErrShapeNotFound, toID)
	}

	d.connectors = append(d.connectors, Connector{
		ID:   d.newID("connector"),
		From: fromID,
		To:   toID,
	})

	return nil
}

// Connectors returns all connectors.
func (d *Document) Connectors() []Connector {
	d.mu.RLock()
	defer d.mu.RUnlock()

	cp := make([]Connector, len(d.connectors))
	copy(cp, d.connectors)
	return cp
}

// SetSelection replaces the current selection. Every ID must exist.
func (d *Document) SetSelection(ids ...string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if _, ok := d.shapes[id]; !ok {
			return fmt.Errorf("%w: %s", ErrShapeNotFound, id)
		}
	}
	d.selection = append([]string(nil), ids...)

	return nil
}

// Selection returns the currently selected shapes in selection order.
func (d *Document) Selection() []Shape {
	d.mu.RLock()
	defer d.mu.RUnlock()

	out := make([]Shape, 0, len(d.selection))
	for _, id := range d.selection {
		if s, ok := d.shapes[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// SelectedByKind returns the selected shapes of the given kind.
func (d *Document) SelectedByKind(kind Kind) []Shape {
	var out []Shape
	for _, s := range d.Selection() {
		if s.Kind == kind {
			out = append(out, s)
		}
	}
	return out
}

// Group assigns the given shapes a fresh group ID and returns it.
func (d *Document) Group(ids ...string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, id := range ids {
		if _, ok := d.shapes[id]; !ok {
			return "", fmt.Errorf("%w: %s", ErrShapeNotFound, id)
		}
	}

	gid := d.newID("group")
	for _, id := range ids {
		s := d.shapes[id]
		s.GroupID = gid
		d.shapes[id] = s
	}

	return gid, nil
}

// PageBounds returns the union of all shape bounds.
func (d *Document) PageBounds() Rect {
	d.mu.RLock()
	defer d.mu.RUnlock()

	var page Rect
	for _, id := range d.order {
		page = page.Union(d.shapes[id].Bounds)
	}
	return page
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
