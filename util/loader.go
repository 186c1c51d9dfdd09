package util

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ImageFile represents one captcha image from a labeled corpus.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Label is the ground-truth captcha text, taken from the file's base
	// name, e.g. "hxkqz.png" is expected to read "hxkqz".
	Label string
}

// LoadDirectoryImageFiles reads all captcha image files from a directory.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile sorted by path, each holding the raw
//   bytes of one image and its filename-derived label.
// - error: Error if loading fails.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var images []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		ext := filepath.Ext(file.Name())
		switch ext {
		case ".jpg", ".jpeg", ".png", ".bmp", ".gif":
			imgPath := filepath.Join(dir, file.Name())
			data, readErr := os.ReadFile(imgPath)
			if readErr != nil {
				return nil, readErr
			}
			images = append(images, ImageFile{
				Path:  imgPath,
				Data:  data,
				Label: strings.TrimSuffix(file.Name(), ext),
			})
		}
	}

	sort.Slice(images, func(i, j int) bool {
		return images[i].Path < images[j].Path
	})

	return images, nil
}
