// Package audio plays a sound cue when a toast is added. Sounds are chosen
// per level from the configuration and decoded with beep (WAV, OGG, MP3).
package audio
