package screen

import (
	"image"

	"github.com/corona10/goimagehash"
)

// Fingerprint returns the average hash of img in goimagehash string form ("a:...").
func Fingerprint(img image.Image) (string, error) {
	hash, err := goimagehash.AverageHash(img)
	if err != nil {
		return "", err
	}
	return hash.ToString(), nil
}

// FingerprintDistance is the Hamming distance between two fingerprints.
func FingerprintDistance(a, b string) (int, error) {
	ha, err := goimagehash.ImageHashFromString(a)
	if err != nil {
		return 0, err
	}
	hb, err := goimagehash.ImageHashFromString(b)
	if err != nil {
		return 0, err
	}
	return ha.Distance(hb)
}
