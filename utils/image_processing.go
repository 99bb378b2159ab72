package utils

import (
	"fmt"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const jpegQuality = 95

// ImageSpec describes the resize target for one resource kind.
type ImageSpec struct {
	Prefix string // filename prefix and uploads/<Prefix in plural> subdir
	Width  int
	Height int
}

var (
	CategoryImageSpec = ImageSpec{Prefix: "category", Width: 300, Height: 300}
	BrandImageSpec    = ImageSpec{Prefix: "brand", Width: 1920, Height: 600}
	ProfileImageSpec  = ImageSpec{Prefix: "profile", Width: 1920, Height: 600}
	ProductImageSpec  = ImageSpec{Prefix: "product", Width: 2000, Height: 1333}
)

func uploadsDir() string {
	dir := os.Getenv("UPLOADS_DIR")
	if dir == "" {
		dir = "uploads"
	}
	return dir
}

// ResizeImage decodes an uploaded file, resizes it to the spec and
// writes a uniquely named JPEG under the resource's uploads directory.
// It returns the generated filename (not the full path).
func ResizeImage(fh *multipart.FileHeader, spec ImageSpec, suffix string) (string, error) {
	file, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("open upload: %w", err)
	}
	defer file.Close()

	img, err := imaging.Decode(file, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("decode image: %w", err)
	}

	resized := imaging.Resize(img, spec.Width, spec.Height, imaging.Lanczos)

	name := fmt.Sprintf("%s-%s-%d", spec.Prefix, uuid.New().String(), time.Now().UnixMilli())
	if suffix != "" {
		name += "-" + suffix
	}
	filename := name + ".jpeg"

	dir := filepath.Join(uploadsDir(), pluralDir(spec.Prefix))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}

	dst := filepath.Join(dir, filename)
	if err := imaging.Save(resized, dst, imaging.JPEGQuality(jpegQuality)); err != nil {
		return "", fmt.Errorf("save image: %w", err)
	}

	return filename, nil
}

// ResizeProductImages processes the cover plus the gallery. Gallery
// images are resized concurrently with a wait-for-all join; the first
// failure aborts the batch.
func ResizeProductImages(cover *multipart.FileHeader, images []*multipart.FileHeader) (string, []string, error) {
	var coverName string
	if cover != nil {
		name, err := ResizeImage(cover, ProductImageSpec, "cover")
		if err != nil {
			return "", nil, err
		}
		coverName = name
	}

	names := make([]string, len(images))
	var g errgroup.Group
	for i, fh := range images {
		i, fh := i, fh
		g.Go(func() error {
			name, err := ResizeImage(fh, ProductImageSpec, fmt.Sprintf("%d", i+1))
			if err != nil {
				return err
			}
			names[i] = name
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", nil, err
	}
	return coverName, names, nil
}

// IsImageUpload checks the declared content type before any decode work.
func IsImageUpload(fh *multipart.FileHeader) bool {
	return strings.HasPrefix(fh.Header.Get("Content-Type"), "image")
}

func pluralDir(prefix string) string {
	if strings.HasSuffix(prefix, "y") {
		return prefix[:len(prefix)-1] + "ies"
	}
	return prefix + "s"
}
