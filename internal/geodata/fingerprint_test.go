package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFingerprint_Deterministic(t *testing.T) {
	data := []byte("geoip database content")
	assert.Equal(t, Fingerprint(data), Fingerprint(data))
}

func TestFingerprint_DiffersForDifferentContent(t *testing.T) {
	assert.NotEqual(t, Fingerprint([]byte("v1")), Fingerprint([]byte("v2")))
}

func TestFingerprint_EmptyInput(t *testing.T) {
	fp := Fingerprint(nil)
	assert.Len(t, fp, 32, "hex MD5 digest")
	assert.Equal(t, fp, Fingerprint([]byte{}))
	// Empty content still fingerprints to something, distinct from the
	// empty string that stands for "not deployed".
	assert.NotEmpty(t, fp)
}
