// Package scene holds a flat list of shapes together with the state
// elements each one is drawn with, and traverses it for the shape actions.
package scene

import (
	"github.com/Faultbox/shapekit/internal/engine/lighting"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/render"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/pkg/math"
)

// Element sets one state element. id is the generation of the owning item,
// so caches stay valid until the item changes.
type Element func(s *state.State, id uint64)

// Set returns an element setting k to v.
func Set[T any](k *state.Key[T], v T) Element {
	return func(s *state.State, id uint64) { state.SetNode(s, k, v, id) }
}

// Item is one shape with its elements and placement.
type Item struct {
	Name     string
	Shape    shape.Shape
	Model    math.Mat4
	Style    state.Style
	Elements []Element

	id uint64
}

// NewItem returns an item at the origin.
func NewItem(name string, sh shape.Shape, elems ...Element) *Item {
	return &Item{Name: name, Shape: sh, Model: math.Identity(), Elements: elems, id: state.NextID()}
}

// Touch marks the item's elements as changed.
func (it *Item) Touch() { it.id = state.NextID() }

// Scene is a list of items sharing lights and style flags.
type Scene struct {
	Items []*Item

	lights []lighting.Light
	style  state.Style
	id     uint64
}

// New returns an empty scene.
func New() *Scene { return &Scene{id: state.NextID()} }

// Add appends items.
func (sc *Scene) Add(items ...*Item) { sc.Items = append(sc.Items, items...) }

// Find returns the item called name, or nil.
func (sc *Scene) Find(name string) *Item {
	for _, it := range sc.Items {
		if it.Name == name {
			return it
		}
	}
	return nil
}

// Style returns the style flags applied to every item.
func (sc *Scene) Style() state.Style { return sc.style }

// SetStyle replaces the style flags applied to every item.
func (sc *Scene) SetStyle(st state.Style) {
	sc.style = st
	sc.id = state.NextID()
}

// Lights returns the scene lights.
func (sc *Scene) Lights() []lighting.Light { return sc.lights }

// SetLights replaces the scene lights.
func (sc *Scene) SetLights(l ...lighting.Light) {
	sc.lights = l
	sc.id = state.NextID()
}

// Transparent reports whether it is drawn with transparency in s.
func Transparent(s *state.State) bool {
	return state.Get(s, state.StyleKey).Transparent()
}

// Visit calls fn for every item with s set up for it. s is restored after
// each call.
func (sc *Scene) Visit(s *state.State, fn func(it *Item)) {
	for _, it := range sc.Items {
		s.Push()
		state.SetNode(s, state.LightsKey, sc.lights, sc.id)
		model := state.Get(s, state.ModelMatrixKey).Mul(it.Model)
		state.SetNode(s, state.ModelMatrixKey, model, it.id)
		for _, e := range it.Elements {
			e(s, it.id)
		}
		st := sc.style | it.Style
		if state.Get(s, state.MaterialKey).IsTransparent() {
			st |= state.StyleTranspMaterial
		}
		state.SetNode(s, state.StyleKey, st, sc.id^it.id)
		fn(it)
		s.Pop()
	}
}

// Bounds returns the world space box around every item.
func (sc *Scene) Bounds(act *shape.Action) math.Box3 {
	box := math.EmptyBox3()
	sc.Visit(act.State, func(it *Item) {
		b, _, ok := shape.BoundingBox(act, it.Shape)
		if ok {
			box.Union(b.Transform(state.Get(act.State, state.ModelMatrixKey)))
		}
	})
	return box
}

// Count is the primitive count of one item.
type Count struct {
	Name    string
	Kind    shape.Kind
	Counter primitive.Counter
}

// Counts runs a primitive count over every item.
func (sc *Scene) Counts(act *shape.Action) []Count {
	out := make([]Count, 0, len(sc.Items))
	sc.Visit(act.State, func(it *Item) {
		out = append(out, Count{Name: it.Name, Kind: it.Shape.Kind(), Counter: shape.CountPrimitives(act, it.Shape)})
	})
	return out
}

// Render draws every item once through act and returns the path each one
// took, keyed by item name.
func (sc *Scene) Render(act *shape.Action, filter func(s *state.State) bool) map[string]render.Path {
	paths := make(map[string]render.Path, len(sc.Items))
	sc.Visit(act.State, func(it *Item) {
		if filter != nil && !filter(act.State) {
			return
		}
		paths[it.Name] = shape.GLRender(act, it.Shape)
	})
	return paths
}
