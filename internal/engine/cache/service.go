// Package cache holds the per-shape caches (normals, bounding box, primitive
// vertices, convex decomposition) and the process-wide Service they share.
package cache

import (
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/logger"
	"github.com/Faultbox/shapekit/pkg/math"
)

// calibrationPoints is the number of random points boxed when measuring the
// bounding box baseline.
const calibrationPoints = 100

// Service is shared by every shape in a process. Tests create their own.
type Service struct {
	cfg config.RenderConfig

	// mu guards primitive-vertex cache capture and the bump-map tables.
	mu sync.Mutex

	calibrateOnce sync.Once
	calibration   time.Duration

	statsMu sync.Mutex
	hits    int
	misses  int
}

// NewService returns a service using cfg. A zero BBoxCalibration is
// measured on first use.
func NewService(cfg config.RenderConfig) *Service {
	return &Service{cfg: cfg, calibration: cfg.BBoxCalibration}
}

// Config returns the render configuration.
func (s *Service) Config() config.RenderConfig { return s.cfg }

// Lock acquires the process-wide capture lock.
func (s *Service) Lock() { s.mu.Lock() }

// Unlock releases the process-wide capture lock.
func (s *Service) Unlock() { s.mu.Unlock() }

// Calibration returns the time considered cheap for a bounding box
// computation. Boxes that take at least this long are cached.
func (s *Service) Calibration() time.Duration {
	s.calibrateOnce.Do(func() {
		if s.calibration > 0 {
			return
		}
		s.calibration = measureCalibration()
		logger.Debug("bounding box calibration", zap.Duration("baseline", s.calibration))
	})
	return s.calibration
}

func measureCalibration() time.Duration {
	pts := make([]math.Vec3, calibrationPoints)
	for i := range pts {
		pts[i] = math.Vec3{X: rand.Float32(), Y: rand.Float32(), Z: rand.Float32()}
	}
	start := time.Now()
	box := math.EmptyBox3()
	for _, p := range pts {
		box.ExtendBy(p)
	}
	d := time.Since(start)
	if d <= 0 {
		d = time.Nanosecond
	}
	return d
}

func (s *Service) record(hit bool) {
	s.statsMu.Lock()
	if hit {
		s.hits++
	} else {
		s.misses++
	}
	s.statsMu.Unlock()
}

// Stats returns how often cached data was reused and how often it was
// recomputed, across every cache created through this service.
func (s *Service) Stats() (hits, misses int) {
	s.statsMu.Lock()
	defer s.statsMu.Unlock()
	return s.hits, s.misses
}
