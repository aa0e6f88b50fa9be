// Package render draws the instrument views as plain text panels and
// rasterizes them for export and preview.
package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"io"

	"github.com/disintegration/imaging"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	apperrors "github.com/dygy/transcription-studio/internal/errors"
)

// ExportScale is the pixel multiplier used when rasterizing for export
const ExportScale = 2

const (
	margin     = 16
	lineHeight = 16
	minWidth   = 480
	maxWidth   = 4096
)

// Region is a view that can be exported. It is looked up by a logical id
// such as "piano-transcription".
type Region interface {
	ID() string
	Rasterize(scale int) (image.Image, error)
}

// Resolver looks up regions by id
type Resolver interface {
	Resolve(id string) (Region, bool)
}

// Set is a fixed collection of regions keyed by id
type Set map[string]Region

// Resolve implements Resolver
func (s Set) Resolve(id string) (Region, bool) {
	r, ok := s[id]
	return r, ok
}

// Add registers a region under its own id
func (s Set) Add(r Region) {
	s[r.ID()] = r
}

// Panel is a titled block of monospaced text lines
type Panel struct {
	id    string
	title string
	lines []string
}

// NewPanel creates a panel. Lines are drawn in order below the title.
func NewPanel(id, title string, lines []string) *Panel {
	return &Panel{id: id, title: title, lines: lines}
}

func (p *Panel) ID() string      { return p.id }
func (p *Panel) Title() string   { return p.title }
func (p *Panel) Lines() []string { return p.lines }

// Bounds returns the unscaled pixel size of the panel
func (p *Panel) Bounds() image.Rectangle {
	face := basicfont.Face7x13
	widest := font.MeasureString(face, p.title).Ceil()
	for _, line := range p.lines {
		if w := font.MeasureString(face, line).Ceil(); w > widest {
			widest = w
		}
	}

	w := widest + 2*margin
	if w < minWidth {
		w = minWidth
	}
	if w > maxWidth {
		w = maxWidth
	}
	// title, blank line, body
	h := 2*margin + (len(p.lines)+2)*lineHeight
	return image.Rect(0, 0, w, h)
}

// Rasterize draws the panel and scales it by the given factor onto an
// opaque white background.
func (p *Panel) Rasterize(scale int) (image.Image, error) {
	if scale < 1 {
		return nil, fmt.Errorf("%w: invalid scale %d", apperrors.ErrRasterization, scale)
	}

	bounds := p.Bounds()
	text := image.NewNRGBA(bounds)

	d := &font.Drawer{
		Dst:  text,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}
	y := margin + basicfont.Face7x13.Ascent
	d.Dot = fixed.P(margin, y)
	d.DrawString(p.title)

	// underline the title
	rule := image.Rect(margin, y+4, bounds.Dx()-margin, y+5)
	draw.Draw(text, rule, image.NewUniform(color.Gray{Y: 0x99}), image.Point{}, draw.Over)

	y += 2 * lineHeight
	for _, line := range p.lines {
		d.Dot = fixed.P(margin, y)
		d.DrawString(line)
		y += lineHeight
	}

	return Flatten(text, scale), nil
}

// Flatten scales img by an integer factor and composites it over white
func Flatten(img image.Image, scale int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx()*scale, b.Dy()*scale

	scaled := imaging.Resize(img, w, h, imaging.NearestNeighbor)
	bg := imaging.New(w, h, color.White)
	return imaging.Overlay(bg, scaled, image.Pt(0, 0), 1.0)
}

// EncodePNG writes img as PNG
func EncodePNG(w io.Writer, img image.Image) error {
	if err := imaging.Encode(w, img, imaging.PNG); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrRasterization, err)
	}
	return nil
}
