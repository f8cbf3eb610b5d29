// Package media wraps ffmpeg and the pure-Go audio path used for
// recognition input and audio clips.
package media

import (
	"path/filepath"
	"strings"
)

// Kind tells video sources from audio sources.
type Kind string

const (
	KindVideo Kind = "video"
	KindAudio Kind = "audio"
)

var audioExts = map[string]bool{
	".wav": true, ".mp3": true, ".flac": true, ".m4a": true,
	".aac": true, ".ogg": true, ".opus": true, ".wma": true,
}

// KindOf guesses the media kind from the file extension. Unknown
// extensions are treated as video.
func KindOf(path string) Kind {
	if audioExts[strings.ToLower(filepath.Ext(path))] {
		return KindAudio
	}
	return KindVideo
}

// SampleRate is the rate every recognition WAV is converted to.
const SampleRate = 16000
