package preview

import (
	"bytes"
	"context"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/babarot/tana/internal/core/errs"
	"github.com/babarot/tana/internal/entry"
	"github.com/disintegration/imaging"
	"github.com/eliukblau/pixterm/pkg/ansimage"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var decodableImages = []string{
	"image/jpeg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/tiff",
	"image/webp",
}

func isDecodableImage(m *mimetype.MIME) bool {
	return mimetype.EqualsAny(m.String(), decodableImages...)
}

func (g *Generator) image(ctx context.Context, e entry.Entry, mime string) *Artifact {
	fp := e.Fingerprint()
	data, err := os.ReadFile(e.Path)
	if err != nil {
		return newError(fp, mime, errs.Wrap("read", e.Path, err))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return newError(fp, mime, errs.New(errs.DecodeError, "decode", e.Path, err))
	}
	// decode work is not interruptible, only skip the resize
	if err := ctx.Err(); err != nil {
		return newError(fp, mime, errs.Wrap("decode", e.Path, err))
	}

	img = applyOrientation(img, orientation(data))
	thumb := imaging.Fit(img, g.opts.ImageWidth, g.opts.ImageHeight, imaging.Lanczos)
	return newImage(fp, mime, thumb)
}

// orientation reads the EXIF orientation tag, defaulting to 1
func orientation(data []byte) int {
	x, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	if v, err := tag.Int(0); err == nil && v >= 1 && v <= 8 {
		return v
	}
	return 1
}

// applyOrientation transforms an image according to EXIF orientation value.
func applyOrientation(img image.Image, orientation int) image.Image {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	}
	return img
}

// RenderImage draws img as ANSI blocks filling at most cols x rows cells
func RenderImage(img image.Image, cols, rows int, dither bool) (string, error) {
	if cols < 1 || rows < 1 {
		return "", nil
	}
	dm := ansimage.NoDithering
	// one cell is 1x2 pixels, or 2x4 with block dithering
	y, x := rows*2, cols
	if dither {
		dm = ansimage.DitheringWithBlocks
		y, x = rows*4, cols*2
	}
	ai, err := ansimage.NewScaledFromImage(img, y, x, color.Black, ansimage.ScaleModeFit, dm)
	if err != nil {
		return "", err
	}
	return ai.Render(), nil
}
