package httpapi

import (
	"encoding/json"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"variantd/pkg/types"
)

// hook godoc
// @Summary  Ingest engine webhook
// @Description Accepts nginx-rtmp form posts (app, name), SRS JSON hooks (app, stream, param) or {"path": "/live/id"}.
// @Tags     hooks
// @Accept   json
// @Accept   x-www-form-urlencoded
// @Produce  json
// @Param    kind path string true "publish, unpublish, play or play_done"
// @Success  200 {object} types.HookResponse
// @Failure  400 {object} types.ErrorResponse
// @Router   /hooks/{kind} [post]
func (h *handlers) hook(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")
	var fire func(string) error
	switch kind {
	case "publish":
		fire = h.opts.Hooks.PublishStarted
	case "unpublish":
		fire = h.opts.Hooks.PublishEnded
	case "play":
		fire = h.opts.Hooks.PlayStarted
	case "play_done":
		fire = h.opts.Hooks.PlayEnded
	default:
		writeJSONError(w, http.StatusNotFound, "unknown hook "+kind)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	p, err := decodeHook(r)
	if err != nil {
		countHook(kind, "malformed")
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := fire(hookPath(p)); err != nil {
		countHook(kind, "rejected")
		// Only a rejected publish should make the ingest engine drop the client.
		if kind == "publish" {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
	} else {
		countHook(kind, "accepted")
	}
	writeJSON(w, http.StatusOK, types.HookResponse{Code: 0})
}

type hookDecodeError string

func (e hookDecodeError) Error() string { return string(e) }

func decodeHook(r *http.Request) (types.HookPayload, error) {
	var p types.HookPayload
	mt, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mt {
	case "application/json":
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			return p, hookDecodeError("invalid JSON body")
		}
	default:
		if err := r.ParseForm(); err != nil {
			return p, hookDecodeError("invalid form body")
		}
		p = types.HookPayload{
			Action: r.Form.Get("call"),
			App:    r.Form.Get("app"),
			Stream: r.Form.Get("stream"),
			Name:   r.Form.Get("name"),
			Param:  r.Form.Get("param"),
			Path:   r.Form.Get("path"),
		}
	}
	if p.Path == "" && (p.App == "" || (p.Stream == "" && p.Name == "")) {
		return p, hookDecodeError("stream path is required")
	}
	return p, nil
}

// hookPath builds the raw ingest path from a payload.
func hookPath(p types.HookPayload) string {
	if p.Path != "" {
		return p.Path
	}
	stream := p.Stream
	if stream == "" {
		stream = p.Name
	}
	path := "/" + p.App + "/" + stream
	if p.Param != "" && !strings.Contains(stream, "?") {
		path += "?" + strings.TrimPrefix(p.Param, "?")
	}
	return path
}
