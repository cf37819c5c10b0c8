// Package fonts maps font sets to bundled font files.
package fonts

import (
	"fmt"

	"github.com/go-fonts/dejavu/dejavusans"
	"github.com/go-fonts/dejavu/dejavuserif"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10regular"
	"github.com/go-fonts/stix/stix2textregular"

	"latex2png/internal/domain"
)

// STIX ships no sans text face; stixsans uses Latin Modern Sans, which shares
// the Computer Modern metrics of the math spans.
var blobs = map[domain.FontSet][]byte{
	domain.FontDejaVuSans:  dejavusans.TTF,
	domain.FontDejaVuSerif: dejavuserif.TTF,
	domain.FontCM:          lmroman10regular.TTF,
	domain.FontSTIX:        stix2textregular.TTF,
	domain.FontSTIXSans:    lmsans10regular.TTF,
}

// Load returns the regular text face of a font set.
func Load(set domain.FontSet) ([]byte, error) {
	data, ok := blobs[set]
	if !ok || len(data) == 0 {
		return nil, fmt.Errorf("font set %q is not bundled", set)
	}
	return data, nil
}
