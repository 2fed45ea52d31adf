// Package export writes finalized strokes out of the process: one SVG path
// document per stroke, and PDF snapshots of the whole board.
package export

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"FreehandBoard/internal/state"
)

// Document is an SVG file holding a single open path.
type Document struct {
	XMLName xml.Name `xml:"http://www.w3.org/2000/svg svg"`
	Width   string   `xml:"width,attr"`
	Height  string   `xml:"height,attr"`
	Path    Path     `xml:"path"`
}

type Path struct {
	D      string `xml:"d,attr"`
	Fill   string `xml:"fill,attr"`
	Stroke string `xml:"stroke,attr"`
}

// NewPathDocument normalizes points into the local space of their bounding
// box (x from the left edge, y from the top edge) and joins them with straight
// segments in capture order. A single point yields a zero-size document with
// a lone move command.
func NewPathDocument(points []state.Point, stroke string) (*Document, state.Box, error) {
	box, err := state.Bounds(points)
	if err != nil {
		return nil, box, err
	}

	var d strings.Builder
	for i, p := range points {
		l := box.Local(p)
		if i == 0 {
			d.WriteString("M ")
		} else {
			d.WriteString(" L ")
		}
		d.WriteString(formatFloat(l.X))
		d.WriteByte(' ')
		d.WriteString(formatFloat(l.Y))
	}

	return &Document{
		Width:  formatFloat(box.Width()),
		Height: formatFloat(box.Height()),
		Path: Path{
			D:      d.String(),
			Fill:   "none",
			Stroke: stroke,
		},
	}, box, nil
}

// WriteTo encodes the document as XML.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	enc := xml.NewEncoder(cw)
	if err := enc.Encode(d); err != nil {
		return cw.n, fmt.Errorf("encode svg: %w", err)
	}
	if err := enc.Close(); err != nil {
		return cw.n, fmt.Errorf("encode svg: %w", err)
	}
	return cw.n, nil
}

// Encode returns the document text.
func (d *Document) Encode() (string, error) {
	if d == nil {
		return "", errors.New("encode svg: nil document")
	}
	var sb strings.Builder
	if _, err := d.WriteTo(&sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// String is Encode for callers that only display the text; it is empty when
// encoding fails.
func (d *Document) String() string {
	text, _ := d.Encode()
	return text
}

// Size returns the declared canvas size.
func (d *Document) Size() (w, h float64, err error) {
	if w, err = strconv.ParseFloat(d.Width, 64); err != nil {
		return 0, 0, fmt.Errorf("svg width %q: %w", d.Width, err)
	}
	if h, err = strconv.ParseFloat(d.Height, 64); err != nil {
		return 0, 0, fmt.Errorf("svg height %q: %w", d.Height, err)
	}
	return w, h, nil
}

// Vertices parses the path data back into document-space points.
func (d *Document) Vertices() ([]state.Point, error) {
	return ParsePathData(d.Path.D)
}

// ParseDocument reads a document written by WriteTo, or by a peer running the
// same code. Only the "M x y L x y ..." subset is accepted.
func ParseDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode svg: %w", err)
	}
	if _, _, err := doc.Size(); err != nil {
		return nil, err
	}
	if _, err := doc.Vertices(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// ParsePathData parses a move command followed by any number of line
// commands.
func ParsePathData(d string) ([]state.Point, error) {
	fields := strings.Fields(d)
	if len(fields) == 0 {
		return nil, fmt.Errorf("empty path data")
	}

	var out []state.Point
	for i := 0; i < len(fields); i += 3 {
		cmd := fields[i]
		switch {
		case i == 0 && cmd != "M":
			return nil, fmt.Errorf("path data must start with M, got %q", cmd)
		case i > 0 && cmd != "L":
			return nil, fmt.Errorf("unsupported path command %q", cmd)
		}
		if i+2 >= len(fields) {
			return nil, fmt.Errorf("command %q at token %d has no coordinate pair", cmd, i)
		}
		x, err := strconv.ParseFloat(fields[i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("path x: %w", err)
		}
		y, err := strconv.ParseFloat(fields[i+2], 64)
		if err != nil {
			return nil, fmt.Errorf("path y: %w", err)
		}
		out = append(out, state.Pt(x, y))
	}
	return out, nil
}

// formatFloat uses the shortest representation that parses back to v.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
