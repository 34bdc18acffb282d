// Package model parses the plain-text vertex list format:
//
//	Vertex Count: 3
//
//	Data:
//
//	-1.0 -1.0 0.0 0.0 1.0 0.0 0.0 -1.0
//	...
//
// Each record is position xyz, texture coordinate uv and normal xyz.
package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

var (
	ErrBadHeader = errors.New("model: bad header")
	ErrTruncated = errors.New("model: truncated vertex data")
)

// Point is one vertex record.
type Point struct {
	X, Y, Z    float32
	TU, TV     float32
	NX, NY, NZ float32
}

// MaxVertices bounds the declared count so a corrupt header cannot make
// Parse allocate without limit.
const MaxVertices = 1 << 22

// Parse reads a model.
func Parse(r io.Reader) ([]Point, error) {
	br := bufio.NewReader(r)

	if _, err := br.ReadString(':'); err != nil {
		return nil, fmt.Errorf("%w: no vertex count: %v", ErrBadHeader, err)
	}
	var count int
	if _, err := fmt.Fscan(br, &count); err != nil {
		return nil, fmt.Errorf("%w: vertex count: %v", ErrBadHeader, err)
	}
	if count <= 0 || count > MaxVertices {
		return nil, fmt.Errorf("%w: vertex count %d", ErrBadHeader, count)
	}
	if _, err := br.ReadString(':'); err != nil {
		return nil, fmt.Errorf("%w: no data marker: %v", ErrBadHeader, err)
	}

	points := make([]Point, count)
	for i := range points {
		p := &points[i]
		if _, err := fmt.Fscan(br, &p.X, &p.Y, &p.Z, &p.TU, &p.TV, &p.NX, &p.NY, &p.NZ); err != nil {
			return nil, fmt.Errorf("%w: record %d of %d: %v", ErrTruncated, i, count, err)
		}
	}
	return points, nil
}
