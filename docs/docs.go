// Package docs provides swagger documentation for the pagekit sandbox API.
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
                "description": "Returns ok when the server is up and the database answers",
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Health check",
                "responses": {
                    "200": {
                        "description": "Healthy",
                        "schema": {"$ref": "#/definitions/models.HealthResponse"}
                    },
                    "503": {
                        "description": "Database unreachable",
                        "schema": {"$ref": "#/definitions/models.HealthResponse"}
                    }
                }
            }
        },
        "/api/users": {
            "post": {
                "security": [{"ApiKeyAuth": []}],
                "description": "Create a login for browser tests. The password is stored as a bcrypt hash.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Users"],
                "summary": "Create a user",
                "parameters": [
                    {
                        "description": "User to create",
                        "name": "user",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/models.CreateUserRequest"}
                    }
                ],
                "responses": {
                    "201": {
                        "description": "Created user",
                        "schema": {"$ref": "#/definitions/models.UserResponse"}
                    },
                    "400": {
                        "description": "Invalid request body",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "401": {
                        "description": "Unauthorized",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "409": {
                        "description": "Email already registered",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {"type": "object", "additionalProperties": {"type": "string"}}
                    }
                }
            }
        }
    },
    "definitions": {
        "models.CreateUserRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "example": "new@example.com"},
                "password": {"type": "string", "minLength": 8, "example": "longenough1"}
            }
        },
        "models.HealthResponse": {
            "type": "object",
            "properties": {
                "database": {"type": "string", "example": "ok"},
                "status": {"type": "string", "example": "ok"}
            }
        },
        "models.UserResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "string"}
            }
        }
    },
    "securityDefinitions": {
        "ApiKeyAuth": {
            "description": "API Key for protected endpoints",
            "type": "apiKey",
            "name": "x-api-key",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:3000",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Pagekit Sandbox API",
	Description:      "Login sandbox used as the target of the browser end-to-end suite",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
