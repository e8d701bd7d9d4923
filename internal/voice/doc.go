// Package voice reconstructs per-speaker audio tracks from the voice packets
// of a demo recording.
//
// Each VoiceData payload is validated and split into Opus chunks by
// ParsePacket. Chunks are fed to the speaker's Session, which decodes them,
// conceals lost frames and groups frames into clips. After the stream ends,
// Synthesize lays a speaker's clips out on a single sample timeline, or
// SplitClips keeps them apart, and Writer hands the result to a sink as WAV.
//
// The tick clock runs at TickRate and the sample clock at SampleRate; every
// frame is FrameSize samples.
package voice
