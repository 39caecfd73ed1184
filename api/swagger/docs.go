// Package swagger registers the OpenAPI document served at /swagger.
package swagger

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
        "/login": {
            "post": {"tags": ["auth"], "summary": "Login user", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/refresh": {
            "post": {"tags": ["auth"], "summary": "Refresh token", "responses": {"200": {"description": "OK"}, "401": {"description": "Unauthorized"}}}
        },
        "/me": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["auth"], "summary": "Get current user", "responses": {"200": {"description": "OK"}}}
        },
        "/api/panjar": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "List panjar requests", "responses": {"200": {"description": "OK"}}},
            "post": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Create panjar request", "responses": {"201": {"description": "Created"}, "400": {"description": "Bad Request"}}}
        },
        "/api/panjar/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Get panjar request", "responses": {"200": {"description": "OK"}, "404": {"description": "Not Found"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Update panjar request", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Delete panjar request", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/panjar/{id}/items": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Add item to panjar request", "responses": {"201": {"description": "Created"}}}
        },
        "/api/panjar/{id}/verify": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Verify panjar request", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/panjar/{id}/approve": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Approve panjar request", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/panjar/{id}/reject": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["panjar"], "summary": "Reject panjar request", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/panjar-items/bulk-status": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Bulk update item status", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}}}
        },
        "/api/panjar-items/{id}": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Get panjar item", "responses": {"200": {"description": "OK"}}},
            "put": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Update panjar item", "responses": {"200": {"description": "OK"}}},
            "delete": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Delete panjar item", "responses": {"200": {"description": "OK"}}}
        },
        "/api/panjar-items/{id}/status": {
            "patch": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Update item status", "responses": {"200": {"description": "OK"}, "403": {"description": "Forbidden"}, "409": {"description": "Conflict"}}}
        },
        "/api/panjar-items/{id}/histories": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Item status history", "responses": {"200": {"description": "OK"}}}
        },
        "/api/panjar-items/{id}/transitions": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Allowed item transitions", "responses": {"200": {"description": "OK"}}}
        },
        "/api/panjar-items/{id}/timeline": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["panjar-items"], "summary": "Item history in chronological order", "responses": {"200": {"description": "OK"}}}
        },
        "/api/statistics": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["statistics"], "summary": "Panjar statistics", "responses": {"200": {"description": "OK"}, "400": {"description": "Bad Request"}}}
        },
        "/logout": {
            "post": {"tags": ["auth"], "summary": "Clear auth cookies", "responses": {"200": {"description": "OK"}}}
        },
        "/api/audit-logs": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["audit"], "summary": "Get audit logs", "responses": {"200": {"description": "OK"}}}
        },
        "/api/roles": {
            "get": {"security": [{"BearerAuth": []}], "tags": ["roles"], "summary": "List roles", "responses": {"200": {"description": "OK"}}}
        },
        "/api/users": {
            "post": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Create user", "responses": {"201": {"description": "Created"}}}
        },
        "/api/users/{id}/roles": {
            "put": {"security": [{"BearerAuth": []}], "tags": ["users"], "summary": "Assign roles", "responses": {"200": {"description": "OK"}}}
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Panjar API",
	Description:      "Cash advance requests with item level review for school administration.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
