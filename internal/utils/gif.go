package utils

import (
	"math/rand"
	"os"
	"path/filepath"
	"strings"
)

var gifExtensions = map[string]bool{".gif": true, ".png": true, ".jpg": true, ".jpeg": true}

// RandomGif random image file from dir; "" when the folder is missing or empty
func RandomGif(dir string, rnd *rand.Rand) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if gifExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return ""
	}
	return filepath.Join(dir, files[rnd.Intn(len(files))])
}
