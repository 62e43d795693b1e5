package imagesource

import (
	"image"
	"sync"

	"github.com/corona10/goimagehash"
)

// dedupThreshold is the maximum Hamming distance between two dHash values
// below which two thumbnails are considered the same image.
const dedupThreshold = 10

// dedupFilter rejects perceptually duplicate candidates within one
// discovery call. Safe for concurrent use.
type dedupFilter struct {
	mu     sync.Mutex
	hashes []*goimagehash.ImageHash
}

// isDuplicate reports whether img matches a previously accepted image.
// Hashing failures accept the image (graceful degradation); accepted images
// have their hash recorded for later comparisons.
func (d *dedupFilter) isDuplicate(img image.Image) bool {
	hash, err := goimagehash.DifferenceHash(img)
	if err != nil {
		return false
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, h := range d.hashes {
		dist, err := hash.Distance(h)
		if err == nil && dist < dedupThreshold {
			return true
		}
	}

	d.hashes = append(d.hashes, hash)
	return false
}
