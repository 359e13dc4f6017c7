package audio

import (
	_ "embed"
)

// bellWAV is the bundled meditation bell.
//
//go:embed sounds/bell.wav
var bellWAV []byte

// BellWAV returns the bundled bell recording as WAV bytes.
func BellWAV() []byte {
	return bellWAV
}
