package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "Student Console",
        "description": "Server-rendered management console for the student records service",
        "version": "1.0.0"
    },
    "basePath": "/",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Students", "description": "Read-only student listing and form validation"},
        {"name": "Exports", "description": "Student list and score report downloads"},
        {"name": "Audit", "description": "Recent console mutations"},
        {"name": "Observability", "description": "Health and activity counters"}
    ],
    "paths": {
        "/health": {
            "get": {
                "tags": ["Observability"],
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "tags": ["Observability"],
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Every dependency answered"},
                    "503": {"description": "At least one dependency failed"}
                }
            }
        },
        "/api/v1/students": {
            "get": {
                "tags": ["Students"],
                "summary": "List students as shown in the console",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Formatted rows",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "500": {
                        "description": "Backend failure",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/students/{id}": {
            "get": {
                "tags": ["Students"],
                "summary": "Get a student record",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "integer"}
                ],
                "responses": {
                    "200": {
                        "description": "Student",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "400": {"description": "Invalid id"},
                    "404": {"description": "Student not found"}
                }
            }
        },
        "/api/v1/students/analytics": {
            "get": {
                "tags": ["Students"],
                "summary": "Score statistics per subject, subject comparisons and hometown averages",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Score report; absent scores are skipped",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "500": {
                        "description": "Backend failure",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/students/validate": {
            "post": {
                "tags": ["Students"],
                "summary": "Validate student form values without saving",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FormValues"}}
                ],
                "responses": {
                    "200": {
                        "description": "Validation result",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    },
                    "400": {"description": "Malformed JSON"}
                }
            }
        },
        "/api/v1/stats": {
            "get": {
                "tags": ["Observability"],
                "summary": "Console activity counters",
                "produces": ["application/json"],
                "responses": {
                    "200": {
                        "description": "Counters",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/api/v1/audit": {
            "get": {
                "tags": ["Audit"],
                "summary": "Recent audit entries",
                "produces": ["application/json"],
                "parameters": [
                    {"name": "limit", "in": "query", "required": false, "type": "integer"}
                ],
                "responses": {
                    "200": {
                        "description": "Entries, newest first",
                        "schema": {"$ref": "#/definitions/ResponseEnvelope"}
                    }
                }
            }
        },
        "/exports/{file}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download the student list or score report",
                "produces": ["text/csv", "application/pdf", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"],
                "parameters": [
                    {"name": "file", "in": "path", "required": true, "type": "string", "enum": ["students.csv", "students.xlsx", "students.pdf", "report.csv", "report.xlsx", "report.pdf"]}
                ],
                "responses": {
                    "200": {"description": "File attachment"},
                    "400": {"description": "Unsupported format"},
                    "404": {"description": "Unknown export"}
                }
            }
        }
    },
    "definitions": {
        "FormValues": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "first_name": {"type": "string"},
                "last_name": {"type": "string"},
                "email": {"type": "string"},
                "birth_date": {"type": "string", "example": "2005-01-15"},
                "hometown": {"type": "string"},
                "math": {"type": "string"},
                "literature": {"type": "string"},
                "english": {"type": "string"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"},
                "fields": {"type": "object", "additionalProperties": {"type": "string"}}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "meta": {"type": "object"}
            }
        }
    }
}`

type swaggerDoc struct{}

// ReadDoc returns the Swagger document.
func (s *swaggerDoc) ReadDoc() string {
	return docTemplate
}

func init() {
	swag.Register(swag.Name, &swaggerDoc{})
}
