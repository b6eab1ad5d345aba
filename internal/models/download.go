package models

// DownloadKind enumerates the possible results of a download attempt.
type DownloadKind int

const (
	DownloadFetched DownloadKind = iota
	DownloadAlreadyPresent
	DownloadToolOutdated
	DownloadFailed
	DownloadUnsupported
)

func (k DownloadKind) String() string {
	switch k {
	case DownloadFetched:
		return "Fetched"
	case DownloadAlreadyPresent:
		return "AlreadyPresent"
	case DownloadToolOutdated:
		return "ToolOutdated"
	case DownloadFailed:
		return "Failed"
	case DownloadUnsupported:
		return "Unsupported"
	default:
		return "Unknown"
	}
}

// FetchedMedia describes a file the download tool just produced.
type FetchedMedia struct {
	VideoID   string
	SourceURL string // canonical watch URL
	Title     string
	Artist    string
	Path      string
	Duration  int
}

// Fields converts the media description into track metadata.
func (m *FetchedMedia) Fields() TrackFields {
	return TrackFields{Title: m.Title, Artist: m.Artist, Path: m.Path, Duration: m.Duration}
}

// DownloadOutcome is a closed union: exactly the field matching Kind is meaningful.
type DownloadOutcome struct {
	Kind      DownloadKind
	Media     *FetchedMedia // DownloadFetched
	Existing  *Track        // DownloadAlreadyPresent
	Reason    string        // DownloadFailed, DownloadToolOutdated
	Retryable bool          // DownloadFailed
}

func Fetched(m *FetchedMedia) DownloadOutcome {
	return DownloadOutcome{Kind: DownloadFetched, Media: m}
}

func AlreadyPresent(t *Track) DownloadOutcome {
	return DownloadOutcome{Kind: DownloadAlreadyPresent, Existing: t}
}

func ToolOutdated(reason string) DownloadOutcome {
	return DownloadOutcome{Kind: DownloadToolOutdated, Reason: reason}
}

func Failed(reason string, retryable bool) DownloadOutcome {
	return DownloadOutcome{Kind: DownloadFailed, Reason: reason, Retryable: retryable}
}

func Unsupported() DownloadOutcome {
	return DownloadOutcome{Kind: DownloadUnsupported, Reason: "not a supported source"}
}
