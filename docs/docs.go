// Package docs registers the OpenAPI description served by the Swagger UI.
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
                "tags": ["health"],
                "summary": "Health check",
                "responses": {"200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}}
            }
        },
        "/devices": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Snapshot of every discovered device and its update state",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "List devices",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/view.BoardDTO"}},
                    "401": {"description": "Unauthorized", "schema": {"type": "string"}}
                }
            }
        },
        "/devices/{id}/confirmation": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Details of the update awaiting confirmation for a device",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Pending confirmation",
                "parameters": [{"type": "string", "description": "Device ID", "name": "id", "in": "path", "required": true}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/view.ConfirmationDTO"}},
                    "404": {"description": "No confirmation pending", "schema": {"type": "string"}}
                }
            }
        },
        "/devices/{id}/{action}": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "reveal toggles the changelog, update schedules the pending update, confirm/cancel answer a pending confirmation, hide/show report row visibility",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Act on a device",
                "parameters": [
                    {"type": "string", "description": "Device ID", "name": "id", "in": "path", "required": true},
                    {"type": "string", "description": "reveal, update, confirm, cancel, hide or show", "name": "action", "in": "path", "required": true}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "400": {"description": "Unknown action", "schema": {"type": "string"}},
                    "409": {"description": "No confirmation pending", "schema": {"type": "string"}},
                    "503": {"description": "State loop unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/scan": {
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Clears the device list and asks the worker for a fresh scan",
                "produces": ["application/json"],
                "tags": ["devices"],
                "summary": "Rescan devices",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}},
                    "503": {"description": "State loop unavailable", "schema": {"type": "string"}}
                }
            }
        },
        "/history": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Journaled firmware updates and worker failures, newest first",
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Update history",
                "parameters": [
                    {"type": "string", "description": "Filter by device name", "name": "device", "in": "query"},
                    {"type": "integer", "description": "Maximum number of entries", "name": "limit", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/journal.Entry"}}},
                    "500": {"description": "Database error", "schema": {"type": "string"}}
                }
            }
        },
        "/webhooks": {
            "get": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Get all registered webhooks",
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "List webhooks",
                "responses": {"200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/webhook.WebhookDTO"}}}}
            },
            "post": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "description": "Subscribe an endpoint to firmware.updated and/or firmware.failed",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Create webhook",
                "parameters": [{"description": "Webhook configuration", "name": "webhook", "in": "body", "required": true, "schema": {"$ref": "#/definitions/webhook.WebhookDTO"}}],
                "responses": {"200": {"description": "Created webhook ID", "schema": {"type": "object", "additionalProperties": {"type": "integer"}}}}
            }
        },
        "/webhooks/{id}": {
            "put": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Update webhook",
                "parameters": [
                    {"type": "integer", "description": "Webhook ID", "name": "id", "in": "path", "required": true},
                    {"description": "Updated webhook configuration", "name": "webhook", "in": "body", "required": true, "schema": {"$ref": "#/definitions/webhook.WebhookDTO"}}
                ],
                "responses": {"200": {"description": "Update confirmation", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}}
            },
            "delete": {
                "security": [{"ApiKeyAuth": []}, {"BearerAuth": []}],
                "produces": ["application/json"],
                "tags": ["webhooks"],
                "summary": "Delete webhook",
                "parameters": [{"type": "integer", "description": "Webhook ID", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Deletion confirmation", "schema": {"type": "object", "additionalProperties": {"type": "boolean"}}}}
            }
        }
    },
    "definitions": {
        "firmware.Entry": {
            "type": "object",
            "properties": {"version": {"type": "string"}, "description": {"type": "string"}}
        },
        "firmware.Device": {
            "type": "object",
            "properties": {
                "id": {"type": "string"}, "name": {"type": "string"}, "vendor": {"type": "string"},
                "summary": {"type": "string"}, "needs_reboot": {"type": "boolean"}
            }
        },
        "firmware.Release": {
            "type": "object",
            "properties": {
                "version": {"type": "string"}, "description": {"type": "string"}, "uri": {"type": "string"},
                "checksum": {"type": "string"}, "size": {"type": "integer"}
            }
        },
        "view.RowDTO": {
            "type": "object",
            "properties": {
                "entity": {"type": "string", "example": "3"},
                "name": {"type": "string", "example": "Thelio Io"},
                "system": {"type": "boolean"},
                "version": {"type": "string", "example": "1.4"},
                "latest": {"type": "string", "example": "1.5"},
                "upgradeable": {"type": "boolean"},
                "waiting": {"type": "boolean"},
                "progress": {"type": "number", "example": 0.5},
                "hidden": {"type": "boolean"},
                "revealed": {"type": "boolean"},
                "changelog": {"type": "array", "items": {"$ref": "#/definitions/firmware.Entry"}},
                "noChangelog": {"type": "boolean"},
                "confirming": {"type": "boolean"}
            }
        },
        "view.BoardDTO": {
            "type": "object",
            "properties": {
                "scanning": {"type": "boolean"},
                "empty": {"type": "boolean"},
                "lastError": {"type": "string"},
                "devices": {"type": "array", "items": {"$ref": "#/definitions/view.RowDTO"}}
            }
        },
        "view.ConfirmationDTO": {
            "type": "object",
            "properties": {
                "entity": {"type": "string"},
                "backend": {"type": "string", "example": "fwupd"},
                "latest": {"type": "string"},
                "onBattery": {"type": "boolean"},
                "needsReboot": {"type": "boolean"},
                "device": {"$ref": "#/definitions/firmware.Device"},
                "releases": {"type": "array", "items": {"$ref": "#/definitions/firmware.Release"}},
                "digest": {"type": "string"},
                "changelog": {"type": "array", "items": {"$ref": "#/definitions/firmware.Entry"}}
            }
        },
        "journal.Entry": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "device": {"type": "string"},
                "backend": {"type": "string"},
                "from": {"type": "string"},
                "to": {"type": "string"},
                "system": {"type": "boolean"},
                "outcome": {"type": "string", "example": "updated"},
                "message": {"type": "string"},
                "createdAt": {"type": "string"}
            }
        },
        "webhook.WebhookDTO": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1},
                "url": {"type": "string", "example": "https://example.com/webhook"},
                "events": {"type": "array", "items": {"type": "string"}, "example": ["firmware.updated", "firmware.failed"]},
                "enabled": {"type": "boolean", "example": true}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {"type": "apiKey", "name": "X-Api-Key", "in": "header"},
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Firmware Manager API",
	Description:      "Tracks firmware devices and drives their update lifecycle.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
