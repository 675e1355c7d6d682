// Package docs registers the OpenAPI description served under /swagger.
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
        "/api/health": {
            "get": {
                "description": "Reports PostgreSQL and Redis reachability",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/utils.HealthStatus"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/utils.HealthStatus"}}
                }
            }
        },
        "/api/threads": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Admins see every live thread, users only those they participate in. Most recent activity first.",
                "produces": ["application/json"],
                "tags": ["Thread"],
                "summary": "List threads",
                "parameters": [
                    {"type": "integer", "description": "Page number (1-based)", "name": "page", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.ThreadPageResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Creates a thread with its participants and first message in one transaction",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Thread"],
                "summary": "Create thread",
                "parameters": [
                    {"description": "Thread", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/conversation.CreateThreadRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/conversation.ThreadDetailResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/api/threads/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Returns the thread with its messages and participants and marks it read for participants",
                "produces": ["application/json"],
                "tags": ["Thread"],
                "summary": "View thread",
                "parameters": [
                    {"type": "integer", "description": "Thread ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.ThreadDetailResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "description": "Soft-deletes a thread. Admins may delete any thread, users only their own.",
                "produces": ["application/json"],
                "tags": ["Thread"],
                "summary": "Delete thread",
                "parameters": [
                    {"type": "integer", "description": "Thread ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/conversation.StatusResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/api/threads/{id}/messages": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Appends a message and bumps the thread's activity time",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Message"],
                "summary": "Post message",
                "parameters": [
                    {"type": "integer", "description": "Thread ID", "name": "id", "in": "path", "required": true},
                    {"description": "Message", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/conversation.PostMessageRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/conversation.MessageResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/conversation.ErrorResponse"}}
                }
            }
        },
        "/api/users": {
            "get": {
                "security": [{"BearerAuth": []}],
                "description": "Users available as thread participants, ordered by name",
                "produces": ["application/json"],
                "tags": ["User"],
                "summary": "List users",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/user.UserListResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/user.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "conversation.CreateThreadRequest": {
            "type": "object",
            "properties": {
                "subject": {"type": "string", "example": "Planning"},
                "body": {"type": "string", "example": "kickoff"},
                "participants": {"type": "array", "items": {"type": "integer"}}
            }
        },
        "conversation.PostMessageRequest": {
            "type": "object",
            "properties": {
                "body": {"type": "string", "example": "ack"}
            }
        },
        "conversation.ParticipantView": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string"},
                "last_read_at": {"type": "string"}
            }
        },
        "conversation.ThreadSummary": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "subject": {"type": "string"},
                "created_by": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "creator": {"$ref": "#/definitions/user.User"},
                "messages_count": {"type": "integer"},
                "latest_message": {"$ref": "#/definitions/message.Message"},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/conversation.ParticipantView"}},
                "unread": {"type": "boolean"}
            }
        },
        "conversation.ThreadPage": {
            "type": "object",
            "properties": {
                "current_page": {"type": "integer"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/conversation.ThreadSummary"}},
                "last_page": {"type": "integer"},
                "per_page": {"type": "integer"},
                "total": {"type": "integer"}
            }
        },
        "conversation.ThreadDetail": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "subject": {"type": "string"},
                "created_by": {"type": "integer"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "creator": {"$ref": "#/definitions/user.User"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/message.Message"}},
                "participants": {"type": "array", "items": {"$ref": "#/definitions/conversation.ParticipantView"}}
            }
        },
        "conversation.ThreadPageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"$ref": "#/definitions/conversation.ThreadPage"}
            }
        },
        "conversation.ThreadDetailResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/conversation.ThreadDetail"}
            }
        },
        "conversation.MessageResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "data": {"$ref": "#/definitions/message.Message"}
            }
        },
        "conversation.StatusResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "conversation.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"},
                "errors": {"type": "object", "additionalProperties": {"type": "array", "items": {"type": "string"}}}
            }
        },
        "message.Message": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "thread_id": {"type": "integer"},
                "user_id": {"type": "integer"},
                "body": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"},
                "user": {"$ref": "#/definitions/user.User"}
            }
        },
        "user.User": {
            "type": "object",
            "properties": {
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "role": {"type": "string", "enum": ["user", "admin"]},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "user.UserListResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {"type": "array", "items": {"$ref": "#/definitions/user.User"}}
            }
        },
        "user.ErrorResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "message": {"type": "string"}
            }
        },
        "utils.HealthStatus": {
            "type": "object",
            "properties": {
                "status": {"type": "string"},
                "timestamp": {"type": "string"},
                "services": {"type": "array", "items": {"$ref": "#/definitions/utils.Service"}}
            }
        },
        "utils.Service": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "status": {"type": "string"},
                "message": {"type": "string"}
            }
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
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "threadbox API",
	Description:      "Multi-participant threads with per-participant read markers.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
