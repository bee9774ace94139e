package npng

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
)

// imageToRGBA copies any image.Image into an *image.RGBA with bounds
// starting at (0,0).
func imageToRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// FromImage flattens src into the sparse pixel set, with the canvas set to
// the image bounds. CreatedIn and Extra are taken from meta; its
// Width/Height are overwritten. Fully transparent pixels are kept here and
// elided later by Encode when alpha is enabled, so the canvas never
// shrinks below the image bounds.
func FromImage(src image.Image, meta Metadata) (Img, error) {
	b := src.Bounds()
	if b.Dx() > 0xFFFF || b.Dy() > 0xFFFF {
		return Img{}, fmt.Errorf("npng: image %dx%d exceeds the 65535 pixel canvas bound", b.Dx(), b.Dy())
	}
	rgba := imageToRGBA(src)
	w, h := rgba.Rect.Dx(), rgba.Rect.Dy()

	pixels := make([]Pixel, 0, w*h)
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+w*4]
		for x := 0; x < w; x++ {
			pixels = append(pixels, NewPixel(uint16(x), uint16(y), row[x*4], row[x*4+1], row[x*4+2], row[x*4+3]))
		}
	}
	meta.Width, meta.Height = uint16(w), uint16(h)
	return Img{Pixels: pixels, Meta: meta, Version: EncoderVersion{Major: VersionMajor, Minor: VersionMinor}}, nil
}

// ToRGBA rasterizes the sparse pixel set onto its canvas. Absent
// coordinates stay zero, i.e. fully transparent.
func (img *Img) ToRGBA() *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, int(img.Meta.Width), int(img.Meta.Height)))
	for _, p := range img.Pixels {
		r, g, b, a := p.RGBA()
		dst.SetRGBA(int(p.X), int(p.Y), color.RGBA{R: r, G: g, B: b, A: a})
	}
	return dst
}
