package services

import (
	"regexp"
	"strings"
)

// SourceKind classifies user input.
type SourceKind int

const (
	SourceUnsupported SourceKind = iota
	SourceVideo
	SourcePlaylist
)

func (k SourceKind) String() string {
	switch k {
	case SourceVideo:
		return "video"
	case SourcePlaylist:
		return "playlist"
	default:
		return "unsupported"
	}
}

const watchURL = "https://www.youtube.com/watch?v="
const playlistURL = "https://www.youtube.com/playlist?list="

var (
	videoPattern    = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?(?:youtube\.com/(?:watch\?(?:[^#]*&)?v=|shorts/|embed/)|youtu\.be/)([A-Za-z0-9_-]{11})(?:[?&#/]|$)`)
	playlistPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.|m\.|music\.)?youtube\.com/playlist\?(?:[^#]*&)?list=([A-Za-z0-9_-]+)`)
)

// Source is the result of [DetectSource].
type Source struct {
	Kind SourceKind
	ID   string // video or playlist ID
	URL  string // canonical URL
}

// DetectSource recognizes YouTube video and playlist URLs.
//
// A watch URL that also carries a list parameter is a video. Non-URL text and other sites
// yield [SourceUnsupported].
func DetectSource(input string) Source {
	s := strings.TrimSpace(input)

	if m := videoPattern.FindStringSubmatch(s); m != nil {
		return Source{Kind: SourceVideo, ID: m[1], URL: watchURL + m[1]}
	}
	if m := playlistPattern.FindStringSubmatch(s); m != nil {
		return Source{Kind: SourcePlaylist, ID: m[1], URL: playlistURL + m[1]}
	}
	return Source{Kind: SourceUnsupported}
}

// LooksLikeURL reports whether input should be treated as a URL rather than a search query.
func LooksLikeURL(input string) bool {
	s := strings.ToLower(strings.TrimSpace(input))
	if strings.ContainsAny(s, " \t") {
		return false
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") || strings.HasPrefix(s, "www.") {
		return true
	}
	host, _, _ := strings.Cut(s, "/")
	return strings.Contains(host, ".") && strings.Contains(s, "/")
}
