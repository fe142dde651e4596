package model

import "time"

// OriginTag classifies where a track's media comes from and therefore
// which adapter renders it.
type OriginTag string

const (
	OriginLocal         OriginTag = "local"
	OriginEmbeddedVideo OriginTag = "embedded-video"
	OriginRemoteSession OriginTag = "remote-session"
)

// Track represents a playable item in the library. IDs are source-prefixed
// so the same song reachable through two origins stays two distinct tracks.
type Track struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Artist      string    `json:"artist"`
	Duration    float64   `json:"duration"` // seconds, authoritative until an adapter reports one
	Origin      OriginTag `json:"source"`
	PlaybackURI string    `json:"url"`
	Thumbnail   string    `json:"thumbnail"`
	AddedAt     time.Time `json:"addedAt"`
	PreviewURL  string    `json:"previewUrl,omitempty"` // short preview clip, remote-session origin only
	RemoteID    string    `json:"remoteId,omitempty"`   // catalog identifier on the remote platform
}

// RepeatMode is the queue repeat policy.
type RepeatMode string

const (
	RepeatOff RepeatMode = "off"
	RepeatOne RepeatMode = "one"
	RepeatAll RepeatMode = "all"
)

// PlayerState is the playback controller's public state snapshot.
type PlayerState struct {
	CurrentTrack *Track     `json:"currentTrack"`
	IsPlaying    bool       `json:"isPlaying"`
	Position     float64    `json:"position"` // seconds
	Duration     float64    `json:"duration"` // seconds
	Volume       float64    `json:"volume"`   // 0.0 - 1.0
	Shuffle      bool       `json:"shuffle"`
	Repeat       RepeatMode `json:"repeat"`
	Queue        []Track    `json:"queue"`
	CurrentIndex int        `json:"currentIndex"`
}
