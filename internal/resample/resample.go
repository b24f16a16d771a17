// Package resample scales a canonical RGBA image to a caller-chosen
// size, selecting a resampling filter by how aggressive the scale
// factor is. All three filters are expressed as golang.org/x/image/draw
// scalers, including the Lanczos-3 filter that package does not ship
// directly: draw.Kernel is generic enough to build it from its window
// function without a new dependency.
package resample

import (
	"math"

	"golang.org/x/image/draw"
	stdimage "image"

	"github.com/dkasak/wlcap/internal/pixel"
)

// Lanczos3 is a Lanczos windowed-sinc filter with support radius 3,
// used for aggressive downscaling where BiLinear and CatmullRom show
// visible aliasing.
var Lanczos3 = draw.Kernel{Support: 3, At: lanczos3}

func lanczos3(t float64) float64 {
	if t == 0 {
		return 1
	}
	if t < -3 || t > 3 {
		return 0
	}
	return sinc(t) * sinc(t/3)
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	px := math.Pi * x
	return math.Sin(px) / px
}

// ScalerFor picks the filter for a linear scale factor s = output/input.
// Every upscale (s > 1) falls in the BiLinear band; the lower
// thresholds only distinguish degrees of downscaling.
func ScalerFor(s float64) draw.Scaler {
	switch {
	case s >= 0.75:
		return draw.BiLinear
	case s >= 0.5:
		return draw.CatmullRom
	default:
		return &Lanczos3
	}
}

// toStd wraps a pixel.Image as a *stdimage.RGBA without copying: the
// two types share the same packed, top-down layout.
func toStd(img *pixel.Image) *stdimage.RGBA {
	return &stdimage.RGBA{
		Pix:    img.Pix,
		Stride: img.Stride(),
		Rect:   stdimage.Rect(0, 0, img.Width, img.Height),
	}
}

// Resize scales img to width x height, choosing the filter from the
// tighter of the two axis scale factors so a highly anisotropic
// resize doesn't alias on the axis being shrunk hardest.
func Resize(img *pixel.Image, width, height int) *pixel.Image {
	if width == img.Width && height == img.Height {
		return img
	}
	sx := float64(width) / float64(img.Width)
	sy := float64(height) / float64(img.Height)
	s := math.Min(sx, sy)

	dst := pixel.NewImage(width, height)
	dstImg := toStd(dst)
	srcImg := toStd(img)
	scaler := ScalerFor(s)
	scaler.Scale(dstImg, dstImg.Bounds(), srcImg, srcImg.Bounds(), draw.Src, nil)
	return dst
}

// ResizeByFactor scales img uniformly by factor.
func ResizeByFactor(img *pixel.Image, factor float64) *pixel.Image {
	width := int(math.Round(float64(img.Width) * factor))
	height := int(math.Round(float64(img.Height) * factor))
	if width < 1 {
		width = 1
	}
	if height < 1 {
		height = 1
	}
	return Resize(img, width, height)
}
