package types

import "time"

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: source not active: cam1
	Error string `json:"error" example:"source not active: cam1"`
	// HTTP status code.
	// example: 404
	Code int `json:"code" example:"404"`
}

// StreamInfo describes a live source for GET /streams.
type StreamInfo struct {
	// Ingest application the source publishes to.
	// example: live
	App string `json:"app" example:"live"`
	// Stream id of the source.
	// example: s
	Stream string `json:"stream" example:"s"`
	// Number of players currently pulling the source.
	// example: 2
	Viewers int `json:"viewers" example:"2"`
	// When the source was first seen.
	PublishedAt time.Time `json:"publishedAt"`
}

// StopResponse reports how many variants a stop request signalled.
type StopResponse struct {
	// example: 2
	Stopped int `json:"stopped" example:"2"`
}

// VariantStatus is one running variant for GET /variants.
type VariantStatus struct {
	// Variant key, also the output stream id.
	// example: s_480p_low
	Key string `json:"key" example:"s_480p_low"`
	// example: s
	SourceID string `json:"sourceId" example:"s"`
	// example: 480p
	Resolution string `json:"resolution" example:"480p"`
	// example: low
	Tier string `json:"tier" example:"low"`
	// Lifecycle state (starting, running, stopping).
	// example: running
	State string `json:"state" example:"running"`
	// example: 12345
	PID       int       `json:"pid" example:"12345"`
	StartedAt time.Time `json:"startedAt"`
	// RTMP locator the variant publishes to.
	// example: rtmp://127.0.0.1:1935/live/s_480p_low
	OutputURL string `json:"outputUrl" example:"rtmp://127.0.0.1:1935/live/s_480p_low"`
	// Latest resource sample, absent until the sampler has run.
	Stats *ProcessStats `json:"stats,omitempty"`
}

// ProcessStats is a resource sample of a transcoder process.
type ProcessStats struct {
	// example: 37.5
	CPUPercent float64 `json:"cpuPercent" example:"37.5"`
	// example: 52428800
	RSSBytes  uint64    `json:"rssBytes" example:"52428800"`
	SampledAt time.Time `json:"sampledAt"`
}

// ServerInfo tells publishers and viewers where to connect.
type ServerInfo struct {
	// RTMP root publishers push to.
	// example: rtmp://192.168.1.10:1935/live
	RTMPURL string `json:"rtmpUrl" example:"rtmp://192.168.1.10:1935/live"`
	// example: live
	App string `json:"app" example:"live"`
	// Publish locator template; replace STREAM_KEY with the source id.
	// example: rtmp://192.168.1.10:1935/live/STREAM_KEY
	PublishURL string `json:"publishUrl" example:"rtmp://192.168.1.10:1935/live/STREAM_KEY"`
	// HTTP-FLV root variants play from, empty when not configured.
	// example: http://192.168.1.10:8000/live
	PlaybackBaseURL string `json:"playbackBaseUrl,omitempty" example:"http://192.168.1.10:8000/live"`
	// Build version of the server.
	// example: 1.0.0
	Version string `json:"version,omitempty" example:"1.0.0"`
}

// HookPayload is the union of the ingest engines' webhook bodies. nginx-rtmp
// posts form fields app and name; SRS posts JSON with action, app, stream
// and param. Path may carry the full ingest path directly.
type HookPayload struct {
	// example: on_publish
	Action string `json:"action,omitempty" example:"on_publish"`
	// example: live
	App string `json:"app,omitempty" example:"live"`
	// example: s
	Stream string `json:"stream,omitempty" example:"s"`
	// nginx-rtmp stream name.
	// example: s
	Name string `json:"name,omitempty" example:"s"`
	// Query string the publisher connected with.
	// example: ?token=abc
	Param string `json:"param,omitempty" example:"?token=abc"`
	// example: /live/s
	Path string `json:"path,omitempty" example:"/live/s"`
}

// HookResponse acknowledges a webhook; SRS requires code 0 to accept.
type HookResponse struct {
	// example: 0
	Code int `json:"code" example:"0"`
}
