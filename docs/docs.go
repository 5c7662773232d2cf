// Package docs registers the variantd OpenAPI document with swag. It mirrors
// the annotations in internal/httpapi and cmd/variantd/docs.go.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "variantd maintainers"},
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/streams": {
            "get": {
                "produces": ["application/json"],
                "tags": ["streams"],
                "summary": "List live sources",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.StreamInfo"}}}
                }
            }
        },
        "/stream/variant/{sourceId}/{resolution}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["variants"],
                "summary": "Start a transcoded variant of a live source",
                "parameters": [
                    {"type": "string", "description": "Source stream id", "name": "sourceId", "in": "path", "required": true},
                    {"type": "string", "description": "Resolution, e.g. 480p", "name": "resolution", "in": "path", "required": true},
                    {"type": "string", "description": "standard (default), low, ultra or extreme", "name": "tier", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/orchestrator.StartResult"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stream/variant/stop/{sourceId}": {
            "post": {
                "produces": ["application/json"],
                "tags": ["variants"],
                "summary": "Stop the variants of a source",
                "parameters": [
                    {"type": "string", "description": "Source stream id", "name": "sourceId", "in": "path", "required": true},
                    {"type": "string", "description": "Only this tier", "name": "tier", "in": "query"},
                    {"type": "string", "description": "Only this resolution", "name": "resolution", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StopResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/stream/stop-all": {
            "post": {
                "produces": ["application/json"],
                "tags": ["variants"],
                "summary": "Stop every running variant",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StopResponse"}}
                }
            }
        },
        "/variants": {
            "get": {
                "produces": ["application/json"],
                "tags": ["variants"],
                "summary": "List tracked variants",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/types.VariantStatus"}}}
                }
            }
        },
        "/resolutions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["variants"],
                "summary": "List resolutions per tier",
                "parameters": [
                    {"type": "string", "description": "Restrict to one tier", "name": "tier", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/server-info": {
            "get": {
                "produces": ["application/json"],
                "tags": ["server"],
                "summary": "Where to publish and play",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ServerInfo"}}
                }
            }
        },
        "/logs": {
            "get": {
                "produces": ["application/json"],
                "tags": ["logs"],
                "summary": "Read the activity log",
                "parameters": [
                    {"type": "string", "description": "RFC3339Nano timestamp; only newer records are returned", "name": "since", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/logsink.Record"}}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/hooks/{kind}": {
            "post": {
                "consumes": ["application/json", "application/x-www-form-urlencoded"],
                "produces": ["application/json"],
                "tags": ["hooks"],
                "summary": "Ingest engine webhook",
                "parameters": [
                    {"type": "string", "description": "publish, unpublish, play or play_done", "name": "kind", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HookResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "source not active: cam1"},
                "code": {"type": "integer", "example": 404}
            }
        },
        "types.StreamInfo": {
            "type": "object",
            "properties": {
                "app": {"type": "string", "example": "live"},
                "stream": {"type": "string", "example": "s"},
                "viewers": {"type": "integer", "example": 2},
                "publishedAt": {"type": "string"}
            }
        },
        "types.StopResponse": {
            "type": "object",
            "properties": {
                "stopped": {"type": "integer", "example": 2}
            }
        },
        "types.ProcessStats": {
            "type": "object",
            "properties": {
                "cpuPercent": {"type": "number", "example": 37.5},
                "rssBytes": {"type": "integer", "example": 52428800},
                "sampledAt": {"type": "string"}
            }
        },
        "types.VariantStatus": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "example": "s_480p_low"},
                "sourceId": {"type": "string", "example": "s"},
                "resolution": {"type": "string", "example": "480p"},
                "tier": {"type": "string", "example": "low"},
                "state": {"type": "string", "example": "running"},
                "pid": {"type": "integer", "example": 12345},
                "startedAt": {"type": "string"},
                "outputUrl": {"type": "string", "example": "rtmp://127.0.0.1:1935/live/s_480p_low"},
                "stats": {"$ref": "#/definitions/types.ProcessStats"}
            }
        },
        "types.ServerInfo": {
            "type": "object",
            "properties": {
                "rtmpUrl": {"type": "string", "example": "rtmp://192.168.1.10:1935/live"},
                "app": {"type": "string", "example": "live"},
                "publishUrl": {"type": "string", "example": "rtmp://192.168.1.10:1935/live/STREAM_KEY"},
                "playbackBaseUrl": {"type": "string", "example": "http://192.168.1.10:8000/live"},
                "version": {"type": "string", "example": "1.0.0"}
            }
        },
        "types.HookResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "integer", "example": 0}
            }
        },
        "logsink.Record": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "timestamp": {"type": "string"},
                "type": {"type": "string", "enum": ["info", "success", "warning", "error"]},
                "message": {"type": "string"}
            }
        },
        "variant.PresetSpec": {
            "type": "object",
            "properties": {
                "width": {"type": "integer"},
                "height": {"type": "integer"},
                "bitrateKbps": {"type": "integer"},
                "fps": {"type": "integer"},
                "speedPreset": {"type": "string"},
                "crf": {"type": "integer"},
                "bufSizeKbit": {"type": "integer"},
                "gop": {"type": "integer"},
                "dropThresholdMs": {"type": "integer"},
                "audioBitrateKbps": {"type": "integer"}
            }
        },
        "orchestrator.StartResult": {
            "type": "object",
            "properties": {
                "key": {"type": "string", "example": "s_480p_low"},
                "outputStreamId": {"type": "string", "example": "s_480p_low"},
                "outputUrl": {"type": "string"},
                "playbackUrl": {"type": "string"},
                "tier": {"type": "string", "example": "low"},
                "resolution": {"type": "string", "example": "480p"},
                "alreadyRunning": {"type": "boolean"},
                "preset": {"$ref": "#/definitions/variant.PresetSpec"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "variantd API",
	Description:      "Control API for live stream variant transcoding.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
