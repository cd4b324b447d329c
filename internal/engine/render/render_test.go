package render

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Faultbox/shapekit/internal/engine/state"
)

func TestSelect(t *testing.T) {
	all := state.StyleBBoxCmplx | state.StyleTranspMaterial | state.StyleSortedTriangles |
		state.StyleBigImage | state.StyleBumpMap | state.StyleVertexArray

	tests := []struct {
		name string
		in   Inputs
		want Path
	}{
		{"nothing set", Inputs{}, Immediate},
		{"invisible wins", Inputs{Style: all | state.StyleInvisible, Culled: true}, Invisible},
		{"culled", Inputs{Style: all, Culled: true}, CulledByBBox},
		{"transparency deferred", Inputs{Style: all, Deferred: true}, Invisible},
		{"deferral ignored when opaque", Inputs{Style: state.StyleVertexArray, Deferred: true}, VertexArray},
		{"bbox only", Inputs{Style: all}, BoundingBoxOnly},
		{"sorted", Inputs{Style: all &^ state.StyleBBoxCmplx}, SortedTriangles},
		{"sorted needs transparency", Inputs{Style: state.StyleSortedTriangles}, Immediate},
		{"texture transparency sorts", Inputs{Style: state.StyleTranspTexture | state.StyleSortedTriangles}, SortedTriangles},
		{"big image", Inputs{Style: state.StyleBigImage | state.StyleBumpMap, BigImage: true, Lights: 1}, BigTexture},
		{"big style without big image", Inputs{Style: state.StyleBigImage | state.StyleVertexArray}, VertexArray},
		{"bump", Inputs{Style: state.StyleBumpMap | state.StyleVertexArray, Lights: 2}, BumpMap},
		{"bump without lights", Inputs{Style: state.StyleBumpMap}, Immediate},
		{"vertex array", Inputs{Style: state.StyleVertexArray}, VertexArray},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Select(tt.in)
			assert.Equal(t, tt.want, got, "got %s", got)
			assert.Equal(t, tt.want != Immediate, got.Terminal())
		})
	}
}
