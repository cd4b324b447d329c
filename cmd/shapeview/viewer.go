package main

import (
	"image"
	"image/color"

	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/assets"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/camera"
	"github.com/Faultbox/shapekit/internal/engine/picking"
	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
	"github.com/Faultbox/shapekit/internal/engine/texture"
	"github.com/Faultbox/shapekit/internal/logger"
)

const bumpStrength = 4

// images are the pictures the demo quad mesh is dressed with.
type images struct {
	texture image.Image
	bumpMap image.Image
}

// loadImages reads the named texture and bump map through mgr, falling
// back to procedural ones for empty names.
func loadImages(mgr *assets.Manager, tex, bump string) (images, error) {
	var out images
	var err error
	if tex != "" {
		if out.texture, err = mgr.Image(tex); err != nil {
			return images{}, err
		}
	} else {
		out.texture = texture.Checker(256, 8,
			color.RGBA{R: 230, G: 230, B: 230, A: 255},
			color.RGBA{R: 60, G: 90, B: 160, A: 255})
	}
	if bump != "" {
		if out.bumpMap, err = mgr.BumpMap(bump, bumpStrength); err != nil {
			return images{}, err
		}
	} else {
		out.bumpMap = texture.NormalMap(texture.Bumps(128, 8), bumpStrength)
	}
	return out, nil
}

// viewer holds the scene, its camera and the style flags being shown.
type viewer struct {
	svc   *cache.Service
	scene *scene.Scene
	cam   *camera.OrbitCamera
}

func newViewer(svc *cache.Service, imgs images, styles []string) *viewer {
	v := &viewer{
		svc: svc,
		scene: scene.Demo(svc, scene.DemoOptions{
			Texture: imgs.texture,
			BumpMap: imgs.bumpMap,
		}),
		cam: camera.NewOrbitCamera(),
	}
	st, unknown := state.ParseStyle(styles)
	for _, name := range unknown {
		logger.Warn("unknown style flag", zap.String("name", name))
	}
	v.scene.SetStyle(st)
	v.fit()
	return v
}

// fit points the camera at the whole scene.
func (v *viewer) fit() {
	act := shape.NewAction(shape.BoundingBoxAction, state.New(), v.svc)
	v.cam.FitToBounds(v.scene.Bounds(act))
}

// toggleStyle flips the n-th style flag, 0 = invisible through
// 7 = vertexarray.
func (v *viewer) toggleStyle(n int) state.Style {
	st := v.scene.Style() ^ state.Style(1<<n)
	v.scene.SetStyle(st)
	logger.Info("style changed", zap.Stringer("style", st))
	return st
}

// pick logs the item under pixel (x, y) of a width x height framebuffer
// and its primitive counts.
func (v *viewer) pick(x, y float32, width, height int) *scene.Item {
	aspect := float32(width) / float32(max(height, 1))
	ray, ok := picking.ScreenToRay(x, y, width, height, v.cam.ViewMatrix(), v.cam.ProjectionMatrix(aspect))
	if !ok {
		return nil
	}
	act := shape.NewAction(shape.BoundingBoxAction, state.New(), v.svc)
	it, dist, ok := picking.Pick(v.scene, act, ray)
	if !ok {
		logger.Info("nothing picked")
		return nil
	}
	var c scene.Count
	for _, cc := range v.scene.Counts(shape.NewAction(shape.CountAction, state.New(), v.svc)) {
		if cc.Name == it.Name {
			c = cc
		}
	}
	logger.Info("picked",
		zap.String("name", it.Name),
		zap.Stringer("kind", it.Shape.Kind()),
		zap.Float32("distance", dist),
		zap.Int("triangles", c.Counter.Triangles),
		zap.Int("lines", c.Counter.Lines),
		zap.Int("points", c.Counter.Points),
		zap.Int("images", c.Counter.Images),
	)
	return it
}
