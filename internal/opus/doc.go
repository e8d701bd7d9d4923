// Package opus decodes the Opus frames carried by demo voice packets and
// archives them unchanged as Ogg/Opus files.
//
// Decoder wraps libopus for a single mono speaker at 24 kHz and implements
// voice.Decoder. WriteArchive writes one clip's frames as an Ogg stream whose
// granule positions follow the frame indices, so frames lost in the recording
// show up as gaps rather than being closed up.
package opus
