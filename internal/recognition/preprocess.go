package recognition

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"sort"

	"golang.org/x/image/draw"

	_ "image/jpeg"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// maxDimension bounds the preprocessed image so an engine never chews on an
// arbitrarily large raster.
const maxDimension = 2500

// PreprocessImage prepares an image for recognition: grayscale conversion,
// contrast stretch, median denoise, binarizing threshold, bounded resize.
// It returns the path of a temporary PNG and a cleanup func that removes it.
func PreprocessImage(path string) (string, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return "", nil, fmt.Errorf("decode image: %w", err)
	}

	gray := toGray(img)
	gray = stretchContrast(gray)
	gray = medianFilter(gray)
	gray = binarize(gray)
	gray = boundResize(gray, maxDimension)

	out, err := os.CreateTemp("", "docforge-ocr-*.png")
	if err != nil {
		return "", nil, fmt.Errorf("create temp image: %w", err)
	}
	if err := png.Encode(out, gray); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", nil, fmt.Errorf("encode preprocessed image: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", nil, fmt.Errorf("close temp image: %w", err)
	}

	name := out.Name()
	return name, func() { os.Remove(name) }, nil
}

func toGray(img image.Image) *image.Gray {
	if gray, ok := img.(*image.Gray); ok {
		return gray
	}
	bounds := img.Bounds()
	gray := image.NewGray(bounds)
	draw.Draw(gray, bounds, img, bounds.Min, draw.Src)
	return gray
}

// stretchContrast maps the observed intensity range onto the full [0,255]
// interval.
func stretchContrast(img *image.Gray) *image.Gray {
	minV, maxV := uint8(255), uint8(0)
	for _, p := range img.Pix {
		if p < minV {
			minV = p
		}
		if p > maxV {
			maxV = p
		}
	}
	if maxV <= minV {
		return img
	}
	scale := 255.0 / float64(maxV-minV)
	out := image.NewGray(img.Bounds())
	for i, p := range img.Pix {
		out.Pix[i] = uint8(float64(p-minV) * scale)
	}
	return out
}

// medianFilter applies a 3x3 median to suppress salt-and-pepper noise.
func medianFilter(img *image.Gray) *image.Gray {
	bounds := img.Bounds()
	out := image.NewGray(bounds)
	var window [9]int
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			n := 0
			for dy := -1; dy <= 1; dy++ {
				for dx := -1; dx <= 1; dx++ {
					nx, ny := x+dx, y+dy
					if nx < bounds.Min.X || nx >= bounds.Max.X || ny < bounds.Min.Y || ny >= bounds.Max.Y {
						continue
					}
					window[n] = int(img.GrayAt(nx, ny).Y)
					n++
				}
			}
			values := window[:n]
			sort.Ints(values)
			out.SetGray(x, y, color.Gray{Y: uint8(values[n/2])})
		}
	}
	return out
}

// binarize thresholds at the mean intensity.
func binarize(img *image.Gray) *image.Gray {
	if len(img.Pix) == 0 {
		return img
	}
	var sum int64
	for _, p := range img.Pix {
		sum += int64(p)
	}
	threshold := uint8(sum / int64(len(img.Pix)))

	out := image.NewGray(img.Bounds())
	for i, p := range img.Pix {
		if p > threshold {
			out.Pix[i] = 255
		} else {
			out.Pix[i] = 0
		}
	}
	return out
}

// boundResize scales the image down so neither side exceeds maxSide.
// Images already within bounds are returned untouched.
func boundResize(img *image.Gray, maxSide int) *image.Gray {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= maxSide && h <= maxSide {
		return img
	}
	scale := float64(maxSide) / float64(w)
	if h > w {
		scale = float64(maxSide) / float64(h)
	}
	dst := image.NewGray(image.Rect(0, 0, int(float64(w)*scale), int(float64(h)*scale)))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, bounds, draw.Src, nil)
	return dst
}
