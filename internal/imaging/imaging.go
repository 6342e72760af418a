// Package imaging decodes downloaded artwork and renders it for the terminal.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mmcdole/broadsheet/internal/domain"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// halfBlock paints the top pixel as foreground and the bottom as background
const halfBlock = "▀"

// Decode turns raw bytes into an image. PNG, JPEG, GIF and WebP are supported.
func Decode(data []byte) (image.Image, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty image", domain.ErrDecode)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}
	return img, nil
}

// Scale resizes img to width pixels, preserving aspect ratio. The height is
// rounded up to an even number so it maps onto whole half-block cells.
func Scale(img image.Image, width int) *image.RGBA {
	b := img.Bounds()
	height := width * b.Dy() / b.Dx()
	if height < 2 {
		height = 2
	}
	if height%2 == 1 {
		height++
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// Thumbnail renders img width cells wide, two pixels per cell.
func Thumbnail(img image.Image, width int) string {
	if img == nil || width <= 0 {
		return ""
	}
	if b := img.Bounds(); b.Dx() == 0 || b.Dy() == 0 {
		return ""
	}

	px := Scale(img, width)
	rows := px.Bounds().Dy() / 2

	var sb strings.Builder
	for row := 0; row < rows; row++ {
		y := row * 2
		for x := 0; x < width; x++ {
			cell := lipgloss.NewStyle().
				Foreground(hexColor(px.RGBAAt(x, y))).
				Background(hexColor(px.RGBAAt(x, y+1)))
			sb.WriteString(cell.Render(halfBlock))
		}
		if row < rows-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func hexColor(c color.RGBA) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B))
}
