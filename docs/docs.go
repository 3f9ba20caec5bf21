// Package docs registers the OpenAPI document served at /docs.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {"name": "FootIQ"},
        "license": {"name": "MIT"},
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/metrics/definitions": {
            "get": {
                "tags": ["metrics"],
                "summary": "List metric definitions",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/players/{athleteID}/games": {
            "get": {
                "tags": ["players"],
                "summary": "Get recent games",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "athleteID", "in": "path", "required": true},
                    {"type": "integer", "name": "last_n", "in": "query"},
                    {"enum": ["live", "replay"], "type": "string", "name": "mode", "in": "query"},
                    {"type": "boolean", "name": "allow_live_fetch", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/players/{athleteID}/games/{gameID}/lineup": {
            "get": {
                "tags": ["players"],
                "summary": "Get game lineup",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "athleteID", "in": "path", "required": true},
                    {"type": "integer", "name": "gameID", "in": "path", "required": true},
                    {"enum": ["live", "replay"], "type": "string", "name": "mode", "in": "query"},
                    {"type": "boolean", "name": "allow_live_fetch", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/players/{athleteID}/analysis": {
            "get": {
                "tags": ["players"],
                "summary": "Analyze a metric",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "integer", "name": "athleteID", "in": "path", "required": true},
                    {"type": "string", "name": "metric", "in": "query", "required": true},
                    {"type": "integer", "name": "last_n", "in": "query"},
                    {"type": "integer", "name": "window", "in": "query"},
                    {"type": "string", "name": "league", "in": "query"},
                    {"type": "string", "name": "season", "in": "query"},
                    {"type": "string", "name": "position", "in": "query"},
                    {"enum": ["live", "replay"], "type": "string", "name": "mode", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        },
        "/compute/{operation}": {
            "post": {
                "tags": ["compute"],
                "summary": "Run an analytics operation",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"enum": ["per90", "derived", "form", "zscore"], "type": "string", "name": "operation", "in": "path", "required": true},
                    {"name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.ComputeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/respond.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "handler.ComputeRequest": {
            "type": "object",
            "properties": {
                "metric": {"type": "string"},
                "games": {"type": "array", "items": {"type": "object"}},
                "window": {"type": "integer"},
                "per90": {"type": "number"},
                "league": {"type": "string"},
                "season": {"type": "string"},
                "position": {"type": "string"}
            }
        },
        "respond.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "object",
                    "properties": {
                        "code": {"type": "string"},
                        "message": {"type": "string"},
                        "detail": {"type": "string"}
                    }
                },
                "warnings": {"type": "array", "items": {"type": "object"}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0.0",
	Host:             "localhost:8000",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "FootIQ Data API",
	Description:      "Football player metrics: normalized game records, per-90 rates, derived statistics, league z-scores and form series.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
