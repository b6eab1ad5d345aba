// Package services adapts the external download tool (yt-dlp) to the typed [models.DownloadOutcome].
//
// # Downloader Interface
//
// [Downloader] is what the sync engine talks to. [YTDLP] implements it by running the tool
// through an [Executor], so tests substitute a fake and never spawn processes.
//
// # Source Detection
//
// [DetectSource] recognizes YouTube video and playlist URLs and rewrites video URLs to the
// canonical watch form. Anything else is reported as unsupported before the tool is invoked.
//
// # Failure Classes
//
// Tool output is classified into exactly one of:
//   - transient (rate limits, 5xx, timeouts, DNS, resets) : [models.DownloadFailed], retryable
//   - tool outdated (signature/nsig extraction, "update yt-dlp") : [models.DownloadToolOutdated]
//   - anything else, including a missing binary : [models.DownloadFailed], not retryable
//
// Raw tool output never leaves this package except as the reason string.
//
// # Files
//
// Audio is written to the library directory as "<slug(title)>-<videoID>.<ext>". When that name
// is taken a numeric suffix is added; existing files are never overwritten.
//
// The adapter never touches the stores.
package services
