package scene

import (
	"encoding/json"
	"fmt"

	"memecanvas/core"
)

// Graph is the ordered collection of objects for one canvas. Sequence order
// is paint order, back to front; the last object is front-most. The graph is
// exclusively owned by one editor session and is not safe for concurrent
// mutation.
type Graph struct {
	width      int
	height     int
	background string
	order      []string
	objects    map[string]*Object
	active     string // "" means no selection
}

// snapshot is the wire form of a graph. Objects are stored in paint order so
// a round-trip reproduces ordering exactly.
type snapshot struct {
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	Background string    `json:"background"`
	Active     string    `json:"active,omitempty"`
	Objects    []*Object `json:"objects"`
}

// NewGraph creates an empty graph with the given canvas size and background
// color (#rrggbb or #rrggbbaa hex).
func NewGraph(width, height int, background string) (*Graph, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("canvas size %dx%d: %w", width, height, core.ErrInvalidGeometry)
	}
	return &Graph{
		width:      width,
		height:     height,
		background: background,
		objects:    make(map[string]*Object),
	}, nil
}

// Width returns the canvas width in pixels.
func (g *Graph) Width() int { return g.width }

// Height returns the canvas height in pixels.
func (g *Graph) Height() int { return g.height }

// Background returns the canvas background color.
func (g *Graph) Background() string { return g.background }

// Len returns the number of objects in the graph.
func (g *Graph) Len() int { return len(g.order) }

// Append adds an object as the new front-most layer.
func (g *Graph) Append(obj *Object) {
	g.order = append(g.order, obj.ID)
	g.objects[obj.ID] = obj
}

// Get returns the object with the given id.
func (g *Graph) Get(id string) (*Object, error) {
	obj, ok := g.objects[id]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", id, core.ErrNotFound)
	}
	return obj, nil
}

// Remove deletes an object by id, clearing the active selection if it
// referenced it. Removing a locked object is refused.
func (g *Graph) Remove(id string) error {
	obj, ok := g.objects[id]
	if !ok {
		return fmt.Errorf("remove object %s: %w", id, core.ErrNotFound)
	}
	if obj.Locked {
		return fmt.Errorf("remove object %s: %w", id, core.ErrObjectLocked)
	}

	delete(g.objects, id)
	for i, oid := range g.order {
		if oid == id {
			g.order = append(g.order[:i], g.order[i+1:]...)
			break
		}
	}
	if g.active == id {
		g.active = ""
	}
	return nil
}

// indexOf returns the position of id in paint order, or -1.
func (g *Graph) indexOf(id string) int {
	for i, oid := range g.order {
		if oid == id {
			return i
		}
	}
	return -1
}

// Reorder moves an object to the given position in paint order. The index is
// clamped to the valid range.
func (g *Graph) Reorder(id string, toIndex int) error {
	from := g.indexOf(id)
	if from < 0 {
		return fmt.Errorf("reorder object %s: %w", id, core.ErrNotFound)
	}
	if toIndex < 0 {
		toIndex = 0
	}
	if toIndex > len(g.order)-1 {
		toIndex = len(g.order) - 1
	}
	if toIndex == from {
		return nil
	}

	g.order = append(g.order[:from], g.order[from+1:]...)
	g.order = append(g.order[:toIndex], append([]string{id}, g.order[toIndex:]...)...)
	return nil
}

// BringToFront moves the object to the top of the paint order.
func (g *Graph) BringToFront(id string) error {
	return g.Reorder(id, len(g.order)-1)
}

// SendToBack moves the object to the bottom of the paint order.
func (g *Graph) SendToBack(id string) error {
	return g.Reorder(id, 0)
}

// BringForward moves the object one position up, clamped at the top.
func (g *Graph) BringForward(id string) error {
	i := g.indexOf(id)
	if i < 0 {
		return fmt.Errorf("reorder object %s: %w", id, core.ErrNotFound)
	}
	return g.Reorder(id, i+1)
}

// SendBackward moves the object one position down, clamped at the bottom.
func (g *Graph) SendBackward(id string) error {
	i := g.indexOf(id)
	if i < 0 {
		return fmt.Errorf("reorder object %s: %w", id, core.ErrNotFound)
	}
	return g.Reorder(id, i-1)
}

// SetActive marks the object with the given id as the single active
// selection. An empty id clears the selection.
func (g *Graph) SetActive(id string) error {
	if id == "" {
		g.active = ""
		return nil
	}
	if _, ok := g.objects[id]; !ok {
		return fmt.Errorf("select object %s: %w", id, core.ErrNotFound)
	}
	g.active = id
	return nil
}

// Active returns the selected object, or nil if nothing is selected.
func (g *Graph) Active() *Object {
	if g.active == "" {
		return nil
	}
	return g.objects[g.active]
}

// ActiveID returns the id of the selected object, or "".
func (g *Graph) ActiveID() string { return g.active }

// Objects returns the objects in paint order, back to front.
func (g *Graph) Objects() []*Object {
	out := make([]*Object, 0, len(g.order))
	for _, id := range g.order {
		out = append(out, g.objects[id])
	}
	return out
}

// Query returns the objects in paint order for which pred returns true.
// Used by the layer panel to filter by kind or visibility.
func (g *Graph) Query(pred func(*Object) bool) []*Object {
	var out []*Object
	for _, id := range g.order {
		if obj := g.objects[id]; pred(obj) {
			out = append(out, obj)
		}
	}
	return out
}

// SetCanvasDimensions changes the output size. Object transforms keep their
// absolute coordinates; resizing may clip layers or leave margin. Rescaling
// everything on resize would surprise users mid-edit, so it is deliberately
// not done here.
func (g *Graph) SetCanvasDimensions(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("canvas size %dx%d: %w", width, height, core.ErrInvalidGeometry)
	}
	g.width = width
	g.height = height
	return nil
}

// SetBackground changes the canvas background color.
func (g *Graph) SetBackground(color string) {
	g.background = color
}

// Clear removes every object and resets the background to white. Locked
// objects go too; clearing the canvas is an explicit whole-scene action.
func (g *Graph) Clear() {
	g.order = nil
	g.objects = make(map[string]*Object)
	g.active = ""
	g.background = "#ffffff"
}

// Serialize returns the graph as a self-contained JSON snapshot.
func (g *Graph) Serialize() ([]byte, error) {
	snap := snapshot{
		Width:      g.width,
		Height:     g.height,
		Background: g.background,
		Active:     g.active,
		Objects:    g.Objects(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("serialize graph: %w", err)
	}
	return data, nil
}

// Deserialize reconstructs a graph from a Serialize snapshot. The result
// reproduces object order, ids and attributes exactly. Blobs come from HTTP
// clients and stored records as well as Serialize, so every decoded object is
// validated; a blob that violates the object invariants is rejected whole.
func Deserialize(data []byte) (*Graph, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("deserialize graph: %w", err)
	}

	g, err := NewGraph(snap.Width, snap.Height, snap.Background)
	if err != nil {
		return nil, err
	}
	for _, obj := range snap.Objects {
		if err := validateObject(obj); err != nil {
			return nil, fmt.Errorf("deserialize graph: %w", err)
		}
		if _, ok := g.objects[obj.ID]; ok {
			return nil, fmt.Errorf("deserialize graph: duplicate object id %s: %w", obj.ID, core.ErrInvalidOperation)
		}
		g.Append(obj)
	}
	if snap.Active != "" {
		if err := g.SetActive(snap.Active); err != nil {
			return nil, err
		}
	}
	return g, nil
}
