package render

import (
	"bytes"
	"image"
	"image/jpeg"
	"image/png"
	"log/slog"

	"golang.org/x/image/draw"

	"github.com/tsawler/notula/session"
)

// Image draws an embedded raster image into the page window. An image whose
// vertical extent does not fit entirely inside the window is skipped, as is
// one flagged missing. Unreadable or undecodable assets are logged and
// omitted; a broken image never fails the page.
func (r *Renderer) Image(obj *session.Image) error {
	if obj.Missing {
		r.log.Debug("image flagged missing, skipping",
			slog.String("path", obj.Path))
		return nil
	}
	if !r.window.ContainsExtent(obj.Y, obj.Height) {
		return nil
	}
	if r.assets == nil {
		r.log.Warn("no asset loader configured, skipping image",
			slog.String("path", obj.Path))
		return nil
	}

	raw, err := r.assets.ReadMember(obj.Path)
	if err != nil {
		r.log.Warn("image member unreadable, omitting",
			slog.String("path", obj.Path), slog.Any("err", err))
		return nil
	}

	var decoded image.Image
	if obj.JPEG {
		decoded, err = jpeg.Decode(bytes.NewReader(raw))
	} else {
		decoded, err = png.Decode(bytes.NewReader(raw))
	}
	if err != nil {
		r.log.Warn("image member undecodable, omitting",
			slog.String("path", obj.Path), slog.Any("err", err))
		return nil
	}

	scaled := scaleImage(decoded, obj.Width, obj.Height)
	return r.backend.DrawImage(scaled, obj.X, obj.Y-r.window.Start)
}

// scaleImage resamples a decoded raster to the object's stored unscaled
// size using a Catmull-Rom filter.
func scaleImage(src image.Image, width, height float64) image.Image {
	w, h := int(width+0.5), int(height+0.5)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if b := src.Bounds(); b.Dx() == w && b.Dy() == h {
		return src
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
	return dst
}
