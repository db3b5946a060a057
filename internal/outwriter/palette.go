package outwriter

import (
	"fmt"

	"github.com/documetrics/docudash/internal/contract"
	"github.com/documetrics/docudash/schema"
	"github.com/fatih/color"
)

// Palette maps metric bands to terminal colors for one theme.
type Palette struct {
	High   *color.Color
	Medium *color.Color
	Low    *color.Color
	Accent *color.Color
}

var (
	aquaticPalette = Palette{
		High:   color.New(color.FgGreen),
		Medium: color.New(color.FgYellow),
		Low:    color.New(color.FgRed),
		Accent: color.New(color.FgBlue, color.Bold),
	}
	neonPalette = Palette{
		High:   color.New(color.FgHiGreen),
		Medium: color.New(color.FgHiYellow),
		Low:    color.New(color.FgHiRed),
		Accent: color.New(color.FgHiMagenta, color.Bold),
	}
)

// PaletteFor returns the palette of a theme. Unknown themes get aquatic.
func PaletteFor(theme schema.Theme) Palette {
	if theme == schema.NeonTheme {
		return neonPalette
	}
	return aquaticPalette
}

// band renders the band label of a metric, colored when enabled.
func (p Palette) band(v float64, ok, useColors bool) string {
	text := contract.GetPlainBandOf(v, ok)
	if !useColors {
		return text
	}
	switch text {
	case contract.HighBand:
		return p.High.Sprint(text)
	case contract.MediumBand:
		return p.Medium.Sprint(text)
	case contract.LowBand:
		return p.Low.Sprint(text)
	default:
		return text
	}
}

// title renders a section heading in the accent color when enabled.
func (p Palette) title(useColors bool, format string, args ...any) string {
	text := fmt.Sprintf(format, args...)
	if !useColors {
		return text
	}
	return p.Accent.Sprint(text)
}
