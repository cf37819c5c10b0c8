// Package domain holds the request and result types of the render service.
// It stays free of HTTP and backend concerns.
package domain

import (
	"fmt"
	"strings"
)

// FontSet names the collection of glyphs used to set the markup.
type FontSet string

const (
	FontDejaVuSans  FontSet = "dejavusans"
	FontDejaVuSerif FontSet = "dejavuserif"
	FontCM          FontSet = "cm"
	FontSTIX        FontSet = "stix"
	FontSTIXSans    FontSet = "stixsans"
)

// FontSets lists every accepted font set.
var FontSets = []FontSet{FontDejaVuSans, FontDejaVuSerif, FontCM, FontSTIX, FontSTIXSans}

// ParseFontSet accepts one of FontSets.
func ParseFontSet(s string) (FontSet, error) {
	for _, f := range FontSets {
		if string(f) == s {
			return f, nil
		}
	}
	return "", &ValidationError{Field: "font", Reason: fmt.Sprintf("unexpected value %q; permitted: %s", s, joinFonts())}
}

func joinFonts() string {
	names := make([]string, len(FontSets))
	for i, f := range FontSets {
		names[i] = string(f)
	}
	return strings.Join(names, ", ")
}

// Format is the output picture format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpeg"
)

// ParseFormat accepts png or jpeg.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPNG, FormatJPEG:
		return Format(s), nil
	}
	return "", &ValidationError{Field: "pic_format", Reason: fmt.Sprintf("unexpected value %q; permitted: png, jpeg", s)}
}

// MIMEType returns image/<format>.
func (f Format) MIMEType() string { return "image/" + string(f) }

// Defaults applied when a request omits a parameter.
const (
	DefaultFont   = FontCM
	DefaultSize   = 16
	DefaultDPI    = 100.0
	DefaultFormat = FormatPNG
)

// RenderRequest is one render call. Width and Height are in inches and only
// take effect when both are positive.
type RenderRequest struct {
	Markup string
	Font   FontSet
	Size   int
	DPI    float64
	Format Format
	Width  float64
	Height float64
}

// NewRenderRequest returns a request for markup with every default applied.
func NewRenderRequest(markup string) RenderRequest {
	return RenderRequest{
		Markup: markup,
		Font:   DefaultFont,
		Size:   DefaultSize,
		DPI:    DefaultDPI,
		Format: DefaultFormat,
	}
}

// HasExplicitSize reports whether both dimensions were supplied.
func (r RenderRequest) HasExplicitSize() bool {
	return r.Width > 0 && r.Height > 0
}

// Validate checks the structural precondition on the markup. It does not
// guarantee the markup will typeset.
func (r RenderRequest) Validate() error {
	if !strings.Contains(r.Markup, "$") {
		return ErrNoMathDelimiter
	}
	return nil
}

// Image is an encoded picture.
type Image struct {
	Data   []byte
	Format Format
}

// MIMEType returns the Content-Type of the picture.
func (i Image) MIMEType() string { return i.Format.MIMEType() }
