/*
Package wavebank defines the data of a wavetable bank: a fixed size grid of
single-cycle waveforms (Wave), each with raw samples, raw harmonics, a vector
of effect amounts and the post-processed result of applying those effects.

The editing state, undo history and audio playback of a bank live in the
editor package.
*/
package wavebank
