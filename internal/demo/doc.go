// Package demo reads Source engine demo recordings.
//
// A demo is a fixed 1072-byte header followed by frames, each tagged with a
// command byte and a tick. Signon and Packet frames carry bit-packed network
// messages; Reader decodes the ones the rest of the module needs (NetTick,
// VoiceData, VoiceInit, ServerInfo and text messages) and skips everything
// else by its declared length. StringTables frames can be decoded with
// ParseStringTables to recover the player list.
package demo
