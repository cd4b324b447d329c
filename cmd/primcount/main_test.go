package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/shapekit/internal/config"
	"github.com/Faultbox/shapekit/internal/engine/cache"
	"github.com/Faultbox/shapekit/internal/engine/primitive"
	"github.com/Faultbox/shapekit/internal/engine/scene"
	"github.com/Faultbox/shapekit/internal/engine/shape"
	"github.com/Faultbox/shapekit/internal/engine/state"
)

func demoCounts(t *testing.T) []scene.Count {
	t.Helper()
	cfg := config.Default().Render
	cfg.BBoxCalibration = time.Nanosecond
	svc := cache.NewService(cfg)
	sc := scene.Demo(svc, scene.DemoOptions{})
	return sc.Counts(shape.NewAction(shape.CountAction, state.New(), svc))
}

func TestFilter(t *testing.T) {
	counts := demoCounts(t)

	all, err := filter(counts, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(counts))

	some, err := filter(counts, []string{"quadmesh", "faceset"})
	require.NoError(t, err)
	require.Len(t, some, 2)
	assert.Equal(t, "quadmesh", some[0].Name)
	assert.Equal(t, "faceset", some[1].Name)

	_, err = filter(counts, []string{"teapot"})
	assert.ErrorContains(t, err, "teapot")
}

func TestWriteTable(t *testing.T) {
	var buf bytes.Buffer
	writeTable(&buf, []scene.Count{
		{Name: "a", Kind: shape.KindFaceSet, Counter: primitive.Counter{Triangles: 2}},
		{Name: "b", Kind: shape.KindLineSet, Counter: primitive.Counter{Lines: 3}},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "Triangles")
	assert.Equal(t, []string{"total", "2", "3", "0", "0"}, strings.Fields(lines[3]))
}

func TestReportRoundTrip(t *testing.T) {
	counts := demoCounts(t)
	rep := buildReport(counts, state.StyleVertexArray)
	assert.Len(t, rep.Shapes, len(counts))
	assert.NotEmpty(t, rep.Style)

	var want primitive.Counter
	for _, c := range counts {
		want.Add(c.Counter)
	}
	assert.Equal(t, want.Triangles, rep.Total.Triangles)
	assert.Equal(t, want.Lines, rep.Total.Lines)

	path := filepath.Join(t.TempDir(), "counts.yaml")
	require.NoError(t, writeReport(path, rep))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Report
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, rep.Shapes, got.Shapes)
	assert.Equal(t, rep.Total, got.Total)
}

func TestReportNoStyle(t *testing.T) {
	rep := buildReport(nil, 0)
	assert.Empty(t, rep.Style)
	assert.Empty(t, rep.Shapes)
}

func TestPrintCollectedLimit(t *testing.T) {
	col := &primitive.Collector{}
	v := &primitive.Vertex{}
	for i := 0; i < 3; i++ {
		col.Triangle(v, v, v, primitive.Detail{Face: i})
	}
	col.Line(v, v, primitive.Detail{})

	var buf bytes.Buffer
	assert.Equal(t, 4, printCollected(&buf, col, 0))
	assert.Equal(t, 4, strings.Count(buf.String(), "\n"))

	buf.Reset()
	assert.Equal(t, 2, printCollected(&buf, col, 2))
	assert.NotContains(t, buf.String(), "line")
}
