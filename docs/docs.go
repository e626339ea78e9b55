// Package docs registers the OpenAPI document served under /swagger. Keep it
// in step with the godoc annotations on the handlers (swag init regenerates
// it).
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
        "/sessions": {
            "post": {
                "tags": ["Sessions"], "summary": "Start or resume a wizard session", "operationId": "createSession",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "body", "schema": {"$ref": "#/definitions/handlers.CreateSessionRequest"}}],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/services.Snapshot"}},
                    "400": {"description": "Bad request", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}": {
            "get": {
                "tags": ["Sessions"], "summary": "Session snapshot", "operationId": "getSession",
                "produces": ["application/json"],
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Snapshot"}},
                    "404": {"description": "Session not found", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            },
            "delete": {
                "tags": ["Sessions"], "summary": "Close a session", "operationId": "closeSession",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"204": {"description": "No Content"}}
            }
        },
        "/sessions/{id}/fields": {
            "patch": {
                "tags": ["Sessions"], "summary": "Update field values", "operationId": "updateFields",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.UpdateFieldsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Snapshot"}},
                    "400": {"description": "Unknown field or invalid value", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/validate": {
            "post": {
                "tags": ["Navigation"], "summary": "Validate the active step", "operationId": "validateStep",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ValidateResponse"}}}
            }
        },
        "/sessions/{id}/next": {
            "post": {
                "tags": ["Navigation"], "summary": "Advance one step", "operationId": "nextStep",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StepResponse"}}}
            }
        },
        "/sessions/{id}/previous": {
            "post": {
                "tags": ["Navigation"], "summary": "Go back one step", "operationId": "previousStep",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StepResponse"}}}
            }
        },
        "/sessions/{id}/step/{step}": {
            "put": {
                "tags": ["Navigation"], "summary": "Jump to a step", "operationId": "goToStep",
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "path", "name": "step", "required": true, "type": "integer", "minimum": 1, "maximum": 3}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.StepResponse"}},
                    "400": {"description": "Invalid step", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/reset": {
            "post": {
                "tags": ["Sessions"], "summary": "Start another application", "operationId": "resetSession",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Snapshot"}}}
            }
        },
        "/sessions/{id}/language": {
            "put": {
                "tags": ["Sessions"], "summary": "Set the preferred language", "operationId": "setLanguage",
                "consumes": ["application/json"], "produces": ["application/json"],
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.LanguageRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.LanguageResponse"}},
                    "400": {"description": "Unsupported language", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/suggestions/{field}": {
            "post": {
                "tags": ["Suggestions"], "summary": "Ask for a suggestion", "operationId": "generateSuggestion",
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "path", "name": "field", "required": true, "type": "string", "enum": ["financialSituation", "employmentCircumstances", "reasonForApplying"]},
                    {"in": "query", "name": "wait", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "Settled modal state", "schema": {"$ref": "#/definitions/suggest.State"}},
                    "202": {"description": "Request in progress", "schema": {"$ref": "#/definitions/suggest.State"}},
                    "400": {"description": "Unsupported field", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/suggestion": {
            "get": {
                "tags": ["Suggestions"], "summary": "Suggestion modal state", "operationId": "getSuggestion",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/suggest.State"}}}
            }
        },
        "/sessions/{id}/suggestion/accept": {
            "post": {
                "tags": ["Suggestions"], "summary": "Accept the suggestion", "operationId": "acceptSuggestion",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Snapshot"}},
                    "409": {"description": "No suggestion to accept", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/suggestion/edit": {
            "post": {
                "tags": ["Suggestions"], "summary": "Accept an edited suggestion", "operationId": "editSuggestion",
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/handlers.EditSuggestionRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/services.Snapshot"}},
                    "409": {"description": "Modal not open", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/suggestion/discard": {
            "post": {
                "tags": ["Suggestions"], "summary": "Discard the suggestion", "operationId": "discardSuggestion",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/suggest.State"}}}
            }
        },
        "/sessions/{id}/suggestion/retry": {
            "post": {
                "tags": ["Suggestions"], "summary": "Retry the suggestion", "operationId": "retrySuggestion",
                "parameters": [{"$ref": "#/parameters/sessionId"}, {"in": "query", "name": "wait", "type": "boolean"}],
                "responses": {
                    "200": {"description": "Settled modal state", "schema": {"$ref": "#/definitions/suggest.State"}},
                    "202": {"description": "Request in progress", "schema": {"$ref": "#/definitions/suggest.State"}}
                }
            }
        },
        "/sessions/{id}/suggestion/close": {
            "post": {
                "tags": ["Suggestions"], "summary": "Close the modal", "operationId": "closeSuggestion",
                "parameters": [{"$ref": "#/parameters/sessionId"}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/suggest.State"}}}
            }
        },
        "/sessions/{id}/submit": {
            "post": {
                "tags": ["Submission"], "summary": "Submit the application", "operationId": "submitApplication",
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "header", "name": "Idempotency-Key", "type": "string"},
                    {"in": "header", "name": "X-User-ID", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/submission.Response"}},
                    "409": {"description": "Submission already in progress", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "422": {"description": "Record incomplete", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}},
                    "502": {"description": "Backend rejected the application", "schema": {"$ref": "#/definitions/handlers.ErrorResponse"}}
                }
            }
        },
        "/sessions/{id}/submissions": {
            "get": {
                "tags": ["Submission"], "summary": "Archived applications of a session", "operationId": "listSubmissions",
                "parameters": [
                    {"$ref": "#/parameters/sessionId"},
                    {"in": "query", "name": "page", "type": "integer", "minimum": 1, "default": 1},
                    {"in": "query", "name": "page_size", "type": "integer", "minimum": 1, "maximum": 100, "default": 20},
                    {"in": "header", "name": "X-User-ID", "type": "string", "description": "Caller identity owning the archive"},
                    {"in": "header", "name": "If-None-Match", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.ListSubmissionsResponse"}, "headers": {"ETag": {"type": "string"}}},
                    "304": {"description": "Not modified"}
                }
            }
        }
    },
    "parameters": {
        "sessionId": {"in": "path", "name": "id", "required": true, "type": "string"}
    },
    "definitions": {
        "handlers.ErrorResponse": {
            "type": "object",
            "properties": {"request_id": {"type": "string"}, "code": {"type": "string"}, "message": {"type": "string"}}
        },
        "handlers.CreateSessionRequest": {"type": "object", "properties": {"sessionId": {"type": "string"}}},
        "handlers.UpdateFieldsRequest": {
            "type": "object", "required": ["fields"],
            "properties": {"fields": {"type": "object", "additionalProperties": {}}}
        },
        "handlers.StepResponse": {
            "type": "object",
            "properties": {"moved": {"type": "boolean"}, "session": {"$ref": "#/definitions/services.Snapshot"}}
        },
        "handlers.ValidateResponse": {
            "type": "object",
            "properties": {"valid": {"type": "boolean"}, "session": {"$ref": "#/definitions/services.Snapshot"}}
        },
        "handlers.LanguageRequest": {"type": "object", "required": ["language"], "properties": {"language": {"type": "string"}}},
        "handlers.LanguageResponse": {"type": "object", "properties": {"language": {"type": "string"}}},
        "handlers.EditSuggestionRequest": {"type": "object", "properties": {"text": {"type": "string"}}},
        "handlers.ListSubmissionsResponse": {
            "type": "object",
            "properties": {
                "submissions": {"type": "array", "items": {"type": "object"}},
                "pagination": {
                    "type": "object",
                    "properties": {
                        "page": {"type": "integer"}, "page_size": {"type": "integer"}, "total": {"type": "integer"},
                        "total_pages": {"type": "integer"}, "has_next": {"type": "boolean"}
                    }
                }
            }
        },
        "services.Snapshot": {
            "type": "object",
            "properties": {
                "sessionId": {"type": "string"},
                "formData": {"type": "object"},
                "currentStep": {"type": "integer"},
                "stepLabel": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "string"}},
                "canGoNext": {"type": "boolean"},
                "canGoPrevious": {"type": "boolean"},
                "scrollSeq": {"type": "integer"},
                "language": {"type": "string"},
                "submitting": {"type": "boolean"},
                "lastSubmission": {"$ref": "#/definitions/submission.Response"},
                "suggestion": {"$ref": "#/definitions/suggest.State"}
            }
        },
        "suggest.State": {
            "type": "object",
            "properties": {
                "open": {"type": "boolean"},
                "field": {"type": "string"},
                "loading": {"type": "boolean"},
                "suggestion": {"type": "string"},
                "fromCache": {"type": "boolean"},
                "errorCategory": {"type": "string", "enum": ["network", "timeout", "rateLimit", "generic"]},
                "error": {"type": "string"}
            }
        },
        "submission.Response": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"type": "object", "properties": {"applicationId": {"type": "string"}, "timestamp": {"type": "string"}}}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{},
	Title:            "Social Support Intake API",
	Description:      "Multi-step application wizard with drafts, AI writing help and submission.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
