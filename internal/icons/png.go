package icons

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/urraka/volumeicon/internal/logging"
)

var log = logging.L("icons")

// FileName returns the PNG file name used for table index i.
func FileName(i int) string {
	if i == MutedIndex {
		return "muted.png"
	}
	return fmt.Sprintf("level-%03d.png", i)
}

// WritePNGs renders the full table into dir as PNG files and returns the
// number of files written.
func WritePNGs(dir string, fg color.NRGBA) (int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("icons: create %s: %w", dir, err)
	}
	for i := 0; i < Count; i++ {
		img, err := Render(i, fg)
		if err != nil {
			return i, err
		}
		path := filepath.Join(dir, FileName(i))
		if err := writePNG(path, img); err != nil {
			return i, err
		}
	}
	log.Info("icons exported", "dir", dir, "count", Count)
	return Count, nil
}

func writePNG(path string, img *image.NRGBA) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("icons: create %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("icons: close %s: %w", path, cerr)
		}
	}()
	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("icons: encode %s: %w", path, err)
	}
	return nil
}
