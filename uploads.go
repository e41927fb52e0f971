package mdxpress

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"

	"github.com/eringen/mdxpress/slug"
)

const (
	maxImageWidth = 1200
	jpegQuality   = 82
	maxUploadSize = 10 << 20 // 10MB
)

// Upload describes a stored editor image.
type Upload struct {
	URL      string `json:"url"`
	Markdown string `json:"markdown"`
	Filename string `json:"filename"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Size     int    `json:"size"`
}

// processImage decodes an image from src, downscales it to maxImageWidth
// and encodes it as JPEG.
func processImage(src io.Reader) ([]byte, int, int, error) {
	img, _, err := image.Decode(src)
	if err != nil {
		return nil, 0, 0, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxImageWidth {
		newH := h * maxImageWidth / w
		dst := image.NewRGBA(image.Rect(0, 0, maxImageWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w, h = maxImageWidth, newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, 0, 0, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), w, h, nil
}

// uploadBaseName turns an original filename into a slug, "image" when
// nothing usable is left.
func uploadBaseName(name string) string {
	base := slug.Normalize(strings.TrimSuffix(name, filepath.Ext(name)))
	if base == "" {
		return "image"
	}
	return base
}

// uniqueFilename appends a counter until the name is free in dir.
func uniqueFilename(dir, base string) string {
	candidate := base + ".jpg"
	for n := 2; ; n++ {
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, n)
	}
}

func (a *App) handleUpload(c echo.Context) error {
	if err := a.requireWriter(c); err != nil {
		return err
	}

	file, err := c.FormFile("image")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "No image file provided.")
	}
	if file.Size > maxUploadSize {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "File too large (max 10MB).")
	}

	src, err := file.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	data, w, h, err := processImage(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid image: "+err.Error())
	}

	dir := a.Config.UploadDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create uploads dir: %w", err)
	}
	base := uploadBaseName(file.Filename)
	name := uniqueFilename(dir, base)
	if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
		return fmt.Errorf("write image: %w", err)
	}

	url := "/uploads/" + name
	return c.JSON(http.StatusCreated, Upload{
		URL:      url,
		Markdown: fmt.Sprintf("![%s](%s)", base, url),
		Filename: name,
		Width:    w,
		Height:   h,
		Size:     len(data),
	})
}
