// Package audio provides bell playback for meditation sessions.
// It plays WAV, OGG and MP3 files through the beep library, or through an
// external command, and ships a bundled bell used when no sound is configured.
package audio
