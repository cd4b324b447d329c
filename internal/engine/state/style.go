package state

import "strings"

// Style is the set of shape style flags the rendering path selector reads.
type Style uint32

const (
	StyleInvisible Style = 1 << iota
	StyleBBoxCmplx
	StyleTranspTexture
	StyleTranspMaterial
	StyleSortedTriangles
	StyleBigImage
	StyleBumpMap
	StyleVertexArray
)

var styleNames = []struct {
	flag Style
	name string
}{
	{StyleInvisible, "invisible"},
	{StyleBBoxCmplx, "bboxcmplx"},
	{StyleTranspTexture, "transp_texture"},
	{StyleTranspMaterial, "transp_material"},
	{StyleSortedTriangles, "sorted_triangles"},
	{StyleBigImage, "bigimage"},
	{StyleBumpMap, "bumpmap"},
	{StyleVertexArray, "vertexarray"},
}

// Has reports whether all bits of f are set.
func (s Style) Has(f Style) bool {
	return s&f == f
}

// Transparent reports whether texture or material transparency is active.
func (s Style) Transparent() bool {
	return s&(StyleTranspTexture|StyleTranspMaterial) != 0
}

// Names returns the names of the set flags in the form ParseStyle reads.
func (s Style) Names() []string {
	var names []string
	for _, n := range styleNames {
		if s.Has(n.flag) {
			names = append(names, n.name)
		}
	}
	return names
}

func (s Style) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, "|")
}

// ParseStyle converts flag names (as in config files) to a Style. Unknown
// names are returned separately.
func ParseStyle(names []string) (Style, []string) {
	var s Style
	var unknown []string
next:
	for _, name := range names {
		name = strings.ToLower(strings.TrimSpace(name))
		for _, n := range styleNames {
			if n.name == name {
				s |= n.flag
				continue next
			}
		}
		unknown = append(unknown, name)
	}
	return s, unknown
}
