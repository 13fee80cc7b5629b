// Package charts renders the exploratory chart set for hourly station data:
// full-series lines, monthly facet grids, histograms with density overlays,
// a Spearman correlation heatmap, and scatter plots against sr_avg.
package charts

import "image/color"

// neonPalette is rotated across the full-series line charts.
var neonPalette = []color.Color{
	color.RGBA{R: 0x39, G: 0xFF, B: 0x14, A: 0xFF}, // neon green
	color.RGBA{R: 0xFF, G: 0x00, B: 0x7F, A: 0xFF}, // bright pink
	color.RGBA{R: 0x00, G: 0xFF, B: 0xFF, A: 0xFF}, // cyan
	color.RGBA{R: 0xFF, G: 0xDD, B: 0x00, A: 0xFF}, // yellow
	color.RGBA{R: 0x7C, G: 0xFC, B: 0x00, A: 0xFF}, // lawn green
	color.RGBA{R: 0xFF, G: 0x6E, B: 0xC7, A: 0xFF}, // light pink
}

// tabPalette is the ten-colour categorical palette used by the facet grids.
var tabPalette = []color.Color{
	color.RGBA{R: 0x1F, G: 0x77, B: 0xB4, A: 0xFF},
	color.RGBA{R: 0xFF, G: 0x7F, B: 0x0E, A: 0xFF},
	color.RGBA{R: 0x2C, G: 0xA0, B: 0x2C, A: 0xFF},
	color.RGBA{R: 0xD6, G: 0x27, B: 0x28, A: 0xFF},
	color.RGBA{R: 0x94, G: 0x67, B: 0xBD, A: 0xFF},
	color.RGBA{R: 0x8C, G: 0x56, B: 0x4B, A: 0xFF},
	color.RGBA{R: 0xE3, G: 0x77, B: 0xC2, A: 0xFF},
	color.RGBA{R: 0x7F, G: 0x7F, B: 0x7F, A: 0xFF},
	color.RGBA{R: 0xBC, G: 0xBD, B: 0x22, A: 0xFF},
	color.RGBA{R: 0x17, G: 0xBE, B: 0xCF, A: 0xFF},
}

var (
	scatterPointColor = color.RGBA{R: 0x00, G: 0xCE, B: 0xD1, A: 0xFF} // dark turquoise
	fitLineColor      = color.RGBA{A: 0xFF}                            // black
	histFillColor     = color.RGBA{R: 0x4C, G: 0x72, B: 0xB0, A: 0xB4}
	histCurveColor    = color.RGBA{R: 0x4C, G: 0x72, B: 0xB0, A: 0xFF}
)

func neonColor(i int) color.Color {
	return neonPalette[i%len(neonPalette)]
}

func tabColor(i int) color.Color {
	return tabPalette[i%len(tabPalette)]
}
