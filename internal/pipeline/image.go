package pipeline

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"os"

	"github.com/nfnt/resize"
)

const (
	ImageSize     = 224
	ImageChannels = 3

	pixelMean = 0.5
	pixelStd  = 0.5
)

// ImageTensor is a planar CHW float32 buffer normalized to mean 0.5/std 0.5
// per channel, ready for direct model consumption.
type ImageTensor struct {
	Data   []float32
	Width  int
	Height int
}

// PreprocessImage decodes an image, resizes it to 224x224 with bilinear
// interpolation and normalizes every channel with (p/255 - 0.5)/0.5.
func PreprocessImage(r io.Reader) (*ImageTensor, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, &PreprocessError{Err: fmt.Errorf("decode image: %w", err)}
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, &PreprocessError{Err: fmt.Errorf("image has zero dimension %dx%d", bounds.Dx(), bounds.Dy())}
	}

	resized := resize.Resize(ImageSize, ImageSize, img, resize.Bilinear)

	width := resized.Bounds().Dx()
	height := resized.Bounds().Dy()
	data := make([]float32, ImageChannels*width*height)

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r16, g16, b16, _ := resized.At(x, y).RGBA()

			// RGBA returns 16-bit values; /65535 matches pixel/255 for 8-bit sources.
			rNorm := (float32(r16)/65535.0 - pixelMean) / pixelStd
			gNorm := (float32(g16)/65535.0 - pixelMean) / pixelStd
			bNorm := (float32(b16)/65535.0 - pixelMean) / pixelStd

			pixelIndex := y*width + x
			data[pixelIndex] = rNorm
			data[width*height+pixelIndex] = gNorm
			data[2*width*height+pixelIndex] = bNorm
		}
	}

	return &ImageTensor{Data: data, Width: width, Height: height}, nil
}

// PreprocessImageFile resolves an opaque image reference as a file path.
// An unreadable reference fails with PreprocessError before any model work.
func PreprocessImageFile(imageRef string) (*ImageTensor, error) {
	f, err := os.Open(imageRef)
	if err != nil {
		return nil, &PreprocessError{Err: fmt.Errorf("open image %q: %w", imageRef, err)}
	}
	defer f.Close()

	return PreprocessImage(f)
}
