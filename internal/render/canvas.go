package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"

	"latex2png/internal/config"
	"latex2png/internal/domain"
	"latex2png/internal/fonts"
)

const (
	mmPerInch = 25.4
	// ParseLaTeX typesets at the plain TeX body size.
	texBaseSizePt = 10.0
)

// Canvas draws markup with github.com/tdewolff/canvas and rasterizes it.
// It keeps no mutable state between calls: every Draw builds its own font
// family and surface, so concurrent requests with different font sets never
// observe each other.
type Canvas struct {
	jpegQuality     int
	defaultWidthIn  float64
	defaultHeightIn float64
}

// NewCanvas checks that every font set loads and returns the backend.
func NewCanvas(cfg config.RenderConfig) (*Canvas, error) {
	for _, set := range domain.FontSets {
		if _, err := loadFamily(set); err != nil {
			return nil, err
		}
	}
	return &Canvas{
		jpegQuality:     cfg.JPEGQuality,
		defaultWidthIn:  cfg.DefaultWidthIn,
		defaultHeightIn: cfg.DefaultHeightIn,
	}, nil
}

func loadFamily(set domain.FontSet) (*canvas.FontFamily, error) {
	data, err := fonts.Load(set)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily(string(set))
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("load font set %s: %w", set, err)
	}
	return family, nil
}

// SurfaceSize returns the picture size in inches: the request's explicit size
// when both dimensions are set, the defaults otherwise.
func SurfaceSize(req domain.RenderRequest, defaultWidthIn, defaultHeightIn float64) (float64, float64) {
	if req.HasExplicitSize() {
		return req.Width, req.Height
	}
	return defaultWidthIn, defaultHeightIn
}

// Draw renders req into an encoded picture. It gives up between math spans
// once ctx is done.
func (c *Canvas) Draw(ctx context.Context, req domain.RenderRequest) ([]byte, error) {
	family, err := loadFamily(req.Font)
	if err != nil {
		return nil, err
	}

	line, err := typeset(ctx, Split(req.Markup), family, float64(req.Size))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	wIn, hIn := SurfaceSize(req, c.defaultWidthIn, c.defaultHeightIn)
	w, h := wIn*mmPerInch, hIn*mmPerInch

	cv := canvas.New(w, h)
	cctx := canvas.NewContext(cv)
	cctx.SetFillColor(canvas.White)
	cctx.DrawPath(0, 0, canvas.Rectangle(w, h))
	line.drawCentered(cctx, w, h)

	img := rasterizer.Draw(cv, canvas.DPI(req.DPI), canvas.DefaultColorSpace)
	return encode(img, req.Format, c.jpegQuality)
}

// run is one horizontally placed piece of the line, measured in millimetres.
type run struct {
	text *canvas.Text
	path *canvas.Path
	// dx shifts the path so its left edge sits on the pen position.
	dx      float64
	width   float64
	ascent  float64
	descent float64
}

type line struct {
	runs    []run
	width   float64
	ascent  float64
	descent float64
}

var errUnterminatedMath = errors.New("math span is missing its closing $")

func typeset(ctx context.Context, segs []Segment, family *canvas.FontFamily, sizePt float64) (*line, error) {
	l := &line{}
	face := family.Face(sizePt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
	metrics := face.Metrics()

	for _, seg := range segs {
		var r run
		if seg.Math {
			if !seg.Closed {
				return nil, domain.NewRenderError(errUnterminatedMath)
			}
			// every span runs a fresh TeX engine
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			p, err := canvas.ParseLaTeX(seg.TeX())
			if err != nil {
				return nil, domain.NewRenderError(err)
			}
			k := sizePt / texBaseSizePt
			p = p.Transform(canvas.Identity.Scale(k, k))
			b := p.Bounds()
			r = run{
				path:    p,
				dx:      -math.Min(b.X0, 0),
				ascent:  math.Max(b.Y1, 0),
				descent: math.Max(-b.Y0, 0),
			}
			r.width = b.X1 + r.dx
		} else {
			s := strings.ReplaceAll(seg.Text, "\n", " ")
			r = run{
				text:    canvas.NewTextLine(face, s, canvas.Left),
				width:   face.TextWidth(s),
				ascent:  metrics.Ascent,
				descent: math.Abs(metrics.Descent),
			}
		}
		l.runs = append(l.runs, r)
		l.width += r.width
		l.ascent = math.Max(l.ascent, r.ascent)
		l.descent = math.Max(l.descent, r.descent)
	}
	return l, nil
}

// drawCentered centers the line's ink box on a w x h surface.
func (l *line) drawCentered(ctx *canvas.Context, w, h float64) {
	x := (w - l.width) / 2
	baseline := h/2 - (l.ascent-l.descent)/2
	ctx.SetFillColor(canvas.Black)
	for _, r := range l.runs {
		if r.text != nil {
			ctx.DrawText(x, baseline, r.text)
		} else {
			ctx.DrawPath(x+r.dx, baseline, r.path)
		}
		x += r.width
	}
}

func encode(img image.Image, format domain.Format, jpegQuality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error
	switch format {
	case domain.FormatPNG:
		err = imaging.Encode(&buf, img, imaging.PNG)
	case domain.FormatJPEG:
		err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(jpegQuality))
	default:
		return nil, fmt.Errorf("unsupported picture format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", format, err)
	}
	return buf.Bytes(), nil
}
