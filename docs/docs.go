// Package docs registers the OpenAPI description served under /swagger.
// Regenerate with: swag init -g cmd/api/main.go -o docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {},
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/auth/login": {
            "post": {
                "tags": ["auth"],
                "summary": "Log in",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.LoginRequest"}}],
                "responses": {"200": {"description": "Logged in"}, "401": {"description": "Invalid credentials"}}
            }
        },
        "/auth/logout": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["auth"],
                "summary": "Log out",
                "responses": {"200": {"description": "Logged out"}, "401": {"description": "Unauthorized"}}
            }
        },
        "/students": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["students"],
                "summary": "List students",
                "parameters": [
                    {"type": "integer", "default": 1, "name": "page", "in": "query"},
                    {"type": "integer", "default": 10, "maximum": 100, "minimum": 1, "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "Page retrieved"}, "400": {"description": "Invalid pagination parameters"}, "404": {"description": "No data"}}
            },
            "post": {
                "tags": ["students"],
                "summary": "Register a student",
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.RegisterStudentRequest"}}],
                "responses": {"201": {"description": "Student registered"}, "409": {"description": "Roll number or username already exists"}}
            }
        },
        "/students/search": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["students"],
                "summary": "Search students",
                "parameters": [
                    {"type": "string", "name": "name", "in": "query"},
                    {"type": "string", "name": "sort", "in": "query"}
                ],
                "responses": {"200": {"description": "Matches"}, "404": {"description": "No data"}}
            }
        },
        "/students/export": {
            "get": {
                "security": [{"BearerAuth": []}],
                "produces": ["application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "tags": ["students"],
                "summary": "Export the roster",
                "responses": {"200": {"description": "roster.xlsx", "schema": {"type": "file"}}}
            }
        },
        "/students/{id}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["students"],
                "summary": "Get a student",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Student retrieved"}, "400": {"description": "Invalid student ID"}, "404": {"description": "Student not found"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["students"],
                "summary": "Update a student",
                "parameters": [
                    {"type": "string", "name": "id", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.UpdateStudentRequest"}}
                ],
                "responses": {"200": {"description": "Student updated"}, "400": {"description": "Invalid request"}, "404": {"description": "Student not found"}}
            },
            "delete": {
                "security": [{"BearerAuth": []}],
                "tags": ["students"],
                "summary": "Delete a student",
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "Student deleted"}, "404": {"description": "Student not found"}}
            }
        },
        "/academic-history/{rollNumber}": {
            "get": {
                "security": [{"BearerAuth": []}],
                "tags": ["academic-history"],
                "summary": "Get academic history",
                "parameters": [{"type": "string", "name": "rollNumber", "in": "path", "required": true}],
                "responses": {"200": {"description": "History retrieved"}, "404": {"description": "Academic history not found"}}
            },
            "put": {
                "security": [{"BearerAuth": []}],
                "tags": ["academic-history"],
                "summary": "Submit academic history",
                "parameters": [
                    {"type": "string", "name": "rollNumber", "in": "path", "required": true},
                    {"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/dto.SubmitAcademicHistoryRequest"}}
                ],
                "responses": {"200": {"description": "History replaced"}, "201": {"description": "History created"}, "400": {"description": "Invalid grades or average"}, "404": {"description": "Student not found"}}
            }
        }
    },
    "definitions": {
        "dto.LoginRequest": {
            "type": "object",
            "required": ["username", "password"],
            "properties": {"username": {"type": "string"}, "password": {"type": "string"}}
        },
        "dto.RegisterStudentRequest": {
            "type": "object",
            "required": ["rollNumber", "name", "username", "password"],
            "properties": {
                "rollNumber": {"type": "string"}, "name": {"type": "string"}, "phone": {"type": "string"},
                "email": {"type": "string"}, "dob": {"type": "string"}, "fathersName": {"type": "string"},
                "mothersName": {"type": "string"}, "parentsPhone": {"type": "string"}, "gender": {"type": "string"},
                "course": {"type": "string"}, "branch": {"type": "string"}, "section": {"type": "string"},
                "year": {"type": "string"}, "residenceStatus": {"type": "string"},
                "username": {"type": "string"}, "password": {"type": "string"}
            }
        },
        "dto.UpdateStudentRequest": {
            "type": "object",
            "properties": {
                "name": {"type": "string"}, "phone": {"type": "string"}, "email": {"type": "string"},
                "dob": {"type": "string"}, "fathersName": {"type": "string"}, "mothersName": {"type": "string"},
                "parentsPhone": {"type": "string"}, "gender": {"type": "string"}, "course": {"type": "string"},
                "branch": {"type": "string"}, "section": {"type": "string"}, "year": {"type": "string"},
                "residenceStatus": {"type": "string"}, "username": {"type": "string"}, "password": {"type": "string"}
            }
        },
        "dto.SubmitAcademicHistoryRequest": {
            "type": "object",
            "required": ["semesterGrades"],
            "properties": {
                "semesterGrades": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "required": ["semester", "gpa"],
                        "properties": {"semester": {"type": "string"}, "gpa": {"type": "number"}}
                    }
                },
                "overallAverage": {"type": "number"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "Session token from /auth/login, as 'Bearer <token>'",
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
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "RosterHub API",
	Description:      "Student roster and academic history service",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
