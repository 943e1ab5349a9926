// Package docs holds the OpenAPI description served at /swagger/*.
// Regenerate with: swag init -g cmd/api/main.go -o internal/docs
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
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {"description": "Email and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Login",
                "parameters": [
                    {"description": "Email and password", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.credentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.authResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Logout",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}}
                }
            }
        },
        "/api/auth/me": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current user",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.meResponse"}}
                }
            }
        },
        "/api/history": {
            "get": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "List analysis history",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/handler.historyRecordResponse"}}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            },
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Save an analysis report",
                "parameters": [
                    {"description": "Analysis report", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.reportRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.idResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/history/{id}": {
            "delete": {
                "security": [{"SessionCookie": []}],
                "produces": ["application/json"],
                "tags": ["history"],
                "summary": "Delete an analysis report",
                "parameters": [
                    {"type": "integer", "description": "Record id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.successResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/analyze": {
            "post": {
                "security": [{"SessionCookie": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["analysis"],
                "summary": "Analyze a crop photo",
                "parameters": [
                    {"description": "Image and save flag", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.analyzeRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.analyzeResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/handler.errorBody"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "object", "additionalProperties": {"type": "string"}}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.readinessResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handler.readinessResponse"}}
                }
            }
        }
    },
    "definitions": {
        "domain.Report": {
            "type": "object",
            "properties": {
                "confidence": {"type": "string"},
                "diseaseName": {"type": "string"},
                "fertilizerRecommendation": {"type": "string"},
                "preventionTips": {"type": "array", "items": {"type": "string"}},
                "symptoms": {"type": "array", "items": {"type": "string"}},
                "treatment": {"type": "string"}
            }
        },
        "handler.analyzeRequest": {
            "type": "object",
            "required": ["image"],
            "properties": {
                "image": {"description": "Image is raw base64 or a data URL such as \"data:image/png;base64,...\".", "type": "string"},
                "save": {"type": "boolean"}
            }
        },
        "handler.analyzeResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 12},
                "report": {"$ref": "#/definitions/domain.Report"}
            }
        },
        "handler.authResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true},
                "user": {"$ref": "#/definitions/handler.userResponse"}
            }
        },
        "handler.credentialsRequest": {
            "type": "object",
            "required": ["email", "password"],
            "properties": {
                "email": {"type": "string", "maxLength": 254, "example": "farmer@example.com"},
                "password": {"type": "string", "maxLength": 72, "example": "pw123"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "Unauthorized"}
            }
        },
        "handler.historyRecordResponse": {
            "type": "object",
            "properties": {
                "confidence": {"type": "string"},
                "diseaseName": {"type": "string"},
                "fertilizerRecommendation": {"type": "string"},
                "id": {"type": "integer", "example": 1},
                "preventionTips": {"type": "array", "items": {"type": "string"}},
                "symptoms": {"type": "array", "items": {"type": "string"}},
                "timestamp": {"type": "string", "example": "2026-05-01T08:00:00Z"},
                "treatment": {"type": "string"},
                "userId": {"type": "integer", "example": 1}
            }
        },
        "handler.idResponse": {
            "type": "object",
            "properties": {
                "id": {"type": "integer", "example": 1}
            }
        },
        "handler.meResponse": {
            "type": "object",
            "properties": {
                "user": {"$ref": "#/definitions/handler.userResponse"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}},
                "status": {"type": "string"}
            }
        },
        "handler.reportRequest": {
            "type": "object",
            "required": ["confidence", "diseaseName"],
            "properties": {
                "confidence": {"type": "string", "example": "High"},
                "diseaseName": {"type": "string", "example": "Leaf Blight"},
                "fertilizerRecommendation": {"type": "string", "example": "Balanced NPK"},
                "preventionTips": {"type": "array", "items": {"type": "string"}, "example": ["Rotate crops"]},
                "symptoms": {"type": "array", "items": {"type": "string"}, "example": ["brown lesions"]},
                "treatment": {"type": "string", "example": "Apply copper fungicide"}
            }
        },
        "handler.successResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean", "example": true}
            }
        },
        "handler.userResponse": {
            "type": "object",
            "properties": {
                "email": {"type": "string", "example": "farmer@example.com"},
                "id": {"type": "integer", "example": 1}
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "description": "Browsers send the cropsure_session cookie; other clients send \"Bearer <token>\".",
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
	Title:            "CropSure API",
	Description:      "Crop disease analysis with per-user history.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
