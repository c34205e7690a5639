package utilities

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"strings"
)

// EncodeGrayImage encodes a tightly-packed or strided 8-bit luma plane as
// PNG or JPEG. step is the stride in bytes per row; 0 means rows are packed
// (step == width).
func EncodeGrayImage(
	width, height, step int,
	data []byte,
	format string,
	quality int,
) ([]byte, error) {
	fmtFmt := strings.ToLower(strings.TrimSpace(format))
	if fmtFmt == "jpg" {
		fmtFmt = "jpeg"
	}
	if fmtFmt != "png" && fmtFmt != "jpeg" {
		return nil, fmt.Errorf("unsupported output format %q (want png or jpeg)", format)
	}
	if quality < 1 || quality > 100 {
		quality = 90
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", width, height)
	}
	if step <= 0 {
		step = width
	}
	if len(data) < (height-1)*step+width {
		return nil, fmt.Errorf("luma plane too short: have %d bytes, need %d", len(data), (height-1)*step+width)
	}

	dst := image.NewGray(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+width], data[y*step:y*step+width])
	}

	var buf bytes.Buffer
	if fmtFmt == "png" {
		if err := png.Encode(&buf, dst); err != nil {
			return nil, err
		}
	} else {
		if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: quality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}
