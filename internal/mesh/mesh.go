// Package mesh owns the static geometry of a drawable model: an immutable
// vertex buffer, an immutable 32-bit index buffer and optionally the texture
// the model is drawn with.
package mesh

import (
	"fmt"

	"framekit/internal/gpu"
	"framekit/internal/logging"
	"framekit/internal/texture"
	"framekit/internal/vertex"
	"framekit/pkg/model"
)

// Options select the vertex format and the geometry source.
type Options struct {
	Format vertex.Kind

	// Points come from a parsed model file. Nil selects the built-in
	// triangle.
	Points []model.Point

	// Texture is owned by the mesh from New on and released with it.
	Texture *texture.Texture
}

// Mesh is a vertex and index buffer pair.
type Mesh struct {
	format      vertex.Kind
	vb, ib      gpu.Buffer
	vertexCount uint32
	indexCount  uint32
	tex         *texture.Texture
	points      []model.Point
}

// New uploads the geometry. On failure buffers created so far are released
// but a passed Texture is not; ownership only transfers on success.
func New(dev gpu.Device, opts Options) (*Mesh, error) {
	var points []vertex.Point
	if opts.Points == nil {
		points = vertex.Triangle()
	} else {
		points = fromModel(opts.Points)
	}
	if len(points) == 0 {
		return nil, fmt.Errorf("mesh: no vertices")
	}

	data, err := vertex.Build(opts.Format, points)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	indices := make([]uint32, len(points))
	for i := range indices {
		indices[i] = uint32(i)
	}

	m := &Mesh{
		format:      opts.Format,
		vertexCount: uint32(len(points)),
		indexCount:  uint32(len(indices)),
		points:      opts.Points,
	}
	m.vb, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label: opts.Format.String() + " vertices",
		Size:  uint32(len(data)),
		Usage: gpu.UsageImmutable,
		Bind:  gpu.BindVertexBuffer,
	}, data)
	if err != nil {
		return nil, fmt.Errorf("mesh: vertex buffer: %w", err)
	}
	idx := gpu.Bytes(indices)
	m.ib, err = dev.CreateBuffer(&gpu.BufferDescriptor{
		Label: opts.Format.String() + " indices",
		Size:  uint32(len(idx)),
		Usage: gpu.UsageImmutable,
		Bind:  gpu.BindIndexBuffer,
	}, idx)
	if err != nil {
		m.Release()
		return nil, fmt.Errorf("mesh: index buffer: %w", err)
	}
	m.tex = opts.Texture

	logging.Logger().Debug("mesh created", "format", opts.Format, "vertices", m.vertexCount)
	return m, nil
}

// fromModel keeps position, texture coordinate and normal. Model files carry
// no color, so colored formats draw them green like the built-in triangle.
func fromModel(in []model.Point) []vertex.Point {
	out := make([]vertex.Point, len(in))
	for i, p := range in {
		out[i] = vertex.Point{
			Position: [3]float32{p.X, p.Y, p.Z},
			UV:       [2]float32{p.TU, p.TV},
			Normal:   [3]float32{p.NX, p.NY, p.NZ},
			Color:    [4]float32{0, 1, 0, 1},
		}
	}
	return out
}

// Bind sets the buffers and topology on the input assembler.
func (m *Mesh) Bind(ctx gpu.Context) {
	ctx.SetVertexBuffer(0, m.vb, vertex.Stride(m.format), 0)
	ctx.SetIndexBuffer(m.ib, gpu.IndexUint32, 0)
	ctx.SetTopology(gpu.TopologyTriangleList)
}

func (m *Mesh) VertexCount() uint32 { return m.vertexCount }
func (m *Mesh) IndexCount() uint32  { return m.indexCount }
func (m *Mesh) Format() vertex.Kind { return m.format }

// Texture returns the owned texture, nil for untextured meshes.
func (m *Mesh) Texture() *texture.Texture { return m.tex }

// Release frees the index buffer, the vertex buffer and the owned texture.
// Safe to call more than once.
func (m *Mesh) Release() {
	if m == nil {
		return
	}
	if m.ib != nil {
		m.ib.Release()
		m.ib = nil
	}
	if m.vb != nil {
		m.vb.Release()
		m.vb = nil
	}
	if m.tex != nil {
		m.tex.Release()
		m.tex = nil
	}
	m.points = nil
}
