// Package docs registers the QEI API OpenAPI document with swag.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Service health",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/players": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "List loaded quarterbacks",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/players/{id}/score": {
            "get": {
                "produces": ["application/json"],
                "tags": ["players"],
                "summary": "Score one quarterback against the population",
                "parameters": [
                    {"type": "string", "description": "Player ID", "name": "id", "in": "path", "required": true},
                    {"type": "integer", "description": "Season (0 blends all supported seasons)", "name": "year", "in": "query"},
                    {"type": "boolean", "description": "Include playoffs", "name": "playoffs", "in": "query"},
                    {"type": "boolean", "description": "Normalize category variance", "name": "normalize", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/scoring.Ranking"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/rankings": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["rankings"],
                "summary": "Rank quarterbacks by QEI",
                "parameters": [
                    {"description": "Weights and ranking flags", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/leaderboard.RankingRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/leaderboard.RankingResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/snapshots": {
            "get": {
                "produces": ["application/json"],
                "tags": ["snapshots"],
                "summary": "List saved ranking snapshots",
                "parameters": [
                    {"type": "integer", "description": "Maximum results", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/database.SnapshotSummary"}}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["snapshots"],
                "summary": "Rank and persist a snapshot",
                "parameters": [
                    {"description": "Snapshot label and ranking request", "name": "request", "in": "body", "schema": {"$ref": "#/definitions/main.snapshotRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/database.Snapshot"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/snapshots/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["snapshots"],
                "summary": "Fetch a snapshot",
                "parameters": [
                    {"type": "string", "description": "Snapshot ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/database.Snapshot"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/errors.ErrorResponse"}}
                }
            }
        },
        "/reference/year-weights": {
            "get": {
                "produces": ["application/json"],
                "tags": ["reference"],
                "summary": "Recency weights per season",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        },
        "/cache/invalidate": {
            "post": {
                "produces": ["application/json"],
                "tags": ["system"],
                "summary": "Drop cached rankings and reload players",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": true}}
                }
            }
        }
    },
    "definitions": {
        "errors.ErrorResponse": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "category": {"type": "string"},
                "message": {"type": "string"},
                "details": {"type": "object", "additionalProperties": {"type": "string"}},
                "timestamp": {"type": "string"},
                "request_id": {"type": "string"}
            }
        },
        "scoring.Weights": {
            "type": "object",
            "properties": {
                "team": {"type": "number"},
                "stats": {"type": "number"},
                "clutch": {"type": "number"},
                "durability": {"type": "number"},
                "support": {"type": "number"},
                "team_sub": {"type": "object", "additionalProperties": {"type": "number"}},
                "stats_sub": {"type": "object", "additionalProperties": {"type": "number"}},
                "support_sub": {"type": "object", "additionalProperties": {"type": "number"}}
            }
        },
        "scoring.Context": {
            "type": "object",
            "properties": {
                "include_playoffs": {"type": "boolean"},
                "year": {"type": "integer"},
                "normalize_variance": {"type": "boolean"},
                "verbose": {"type": "boolean"}
            }
        },
        "scoring.Ranking": {
            "type": "object",
            "properties": {
                "rank": {"type": "integer"},
                "player_id": {"type": "string"},
                "name": {"type": "string"},
                "raw": {"type": "object", "additionalProperties": {"type": "number"}},
                "scores": {"type": "object", "additionalProperties": {"type": "number"}},
                "penalty": {"type": "number"},
                "experience": {"type": "number"},
                "composite_z": {"type": "number"},
                "qei": {"type": "number"},
                "rejected": {"type": "boolean"},
                "reason": {"type": "string"}
            }
        },
        "leaderboard.RankingRequest": {
            "type": "object",
            "properties": {
                "weights": {"$ref": "#/definitions/scoring.Weights"},
                "context": {"$ref": "#/definitions/scoring.Context"}
            }
        },
        "leaderboard.RankingResponse": {
            "type": "object",
            "properties": {
                "weights": {"$ref": "#/definitions/scoring.Weights"},
                "context": {"$ref": "#/definitions/scoring.Context"},
                "rankings": {"type": "array", "items": {"$ref": "#/definitions/scoring.Ranking"}},
                "player_count": {"type": "integer"},
                "rejected": {"type": "integer"},
                "source": {"type": "string"},
                "generated_at": {"type": "string"},
                "cached": {"type": "boolean"}
            }
        },
        "main.snapshotRequest": {
            "type": "object",
            "properties": {
                "label": {"type": "string"},
                "weights": {"$ref": "#/definitions/scoring.Weights"},
                "context": {"$ref": "#/definitions/scoring.Context"}
            }
        },
        "database.SnapshotSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "context": {"$ref": "#/definitions/scoring.Context"},
                "player_count": {"type": "integer"},
                "top_player": {"type": "string"},
                "created_at": {"type": "string"}
            }
        },
        "database.Snapshot": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "label": {"type": "string"},
                "weights": {"$ref": "#/definitions/scoring.Weights"},
                "context": {"$ref": "#/definitions/scoring.Context"},
                "rankings": {"type": "array", "items": {"$ref": "#/definitions/scoring.Ranking"}},
                "player_count": {"type": "integer"},
                "top_player": {"type": "string"},
                "created_at": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "QB Excellence Index API",
	Description:      "Ranks NFL quarterbacks by the QB Excellence Index under user supplied category weights.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
