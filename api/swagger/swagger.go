package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "UCAES Academic Lifecycle API",
        "description": "Transcripts, course registration and level progression for the student portal",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Transcripts", "description": "Transcript composition, search and export"},
        {"name": "Registrations", "description": "Course registration and eligibility"},
        {"name": "Progression", "description": "Semester and academic-year progression scheduler"}
    ],
    "paths": {
        "/health": {
            "get": {
                "summary": "Health check",
                "responses": {
                    "200": {"description": "OK"}
                }
            }
        },
        "/ready": {
            "get": {
                "summary": "Readiness check",
                "responses": {
                    "200": {"description": "Ready"},
                    "503": {"description": "Not ready"}
                }
            }
        },
        "/transcripts": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Get a student transcript",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Missing or invalid reference", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Transcripts"],
                "summary": "Search students",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SearchRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/transcripts/export": {
            "get": {
                "tags": ["Transcripts"],
                "summary": "Export a transcript as PDF or CSV",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "format", "in": "query", "type": "string", "enum": ["pdf", "csv"]}
                ],
                "responses": {
                    "200": {"description": "File download"},
                    "404": {"description": "Student not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations": {
            "get": {
                "tags": ["Registrations"],
                "summary": "List a student's registrations",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Registrations"],
                "summary": "Register a student for courses",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/RegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Registration already exists for this period", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/registrations/eligibility": {
            "get": {
                "tags": ["Registrations"],
                "summary": "Check registration eligibility",
                "parameters": [
                    {"name": "studentId", "in": "query", "required": true, "type": "string"},
                    {"name": "academicYear", "in": "query", "type": "string"},
                    {"name": "semester", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/scheduler": {
            "get": {
                "tags": ["Progression"],
                "summary": "Manually trigger a progression transition",
                "parameters": [
                    {"name": "type", "in": "query", "type": "string", "enum": ["semester", "academic-year", "both"]},
                    {"name": "schedule", "in": "query", "type": "string", "enum": ["Regular", "Weekend"]},
                    {"name": "force", "in": "query", "type": "boolean"},
                    {"name": "dryRun", "in": "query", "type": "boolean"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scheduler halted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Progression"],
                "summary": "Run the progression scheduler",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchedulerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Scheduler halted", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/audit": {
            "get": {
                "tags": ["Progression"],
                "summary": "Get the progression audit trail",
                "parameters": [
                    {"name": "scheduleType", "in": "query", "type": "string", "enum": ["Regular", "Weekend"]}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/progression/halt": {
            "post": {
                "tags": ["Progression"],
                "summary": "Halt the progression scheduler",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["Progression"],
                "summary": "Resume the progression scheduler",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "SearchRequest": {
            "type": "object",
            "properties": {
                "searchTerm": {"type": "string"}
            },
            "required": ["searchTerm"]
        },
        "RegisterRequest": {
            "type": "object",
            "properties": {
                "student_reference": {"type": "string"},
                "academic_year": {"type": "string"},
                "semester": {"type": "string"},
                "course_codes": {"type": "array", "items": {"type": "string"}}
            },
            "required": ["student_reference", "course_codes"]
        },
        "SchedulerRequest": {
            "type": "object",
            "properties": {
                "scheduleType": {"type": "string", "enum": ["Regular", "Weekend"]},
                "isDryRun": {"type": "boolean"}
            }
        },
        "Pagination": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"},
                "page_size": {"type": "integer"},
                "total_count": {"type": "integer"}
            }
        },
        "APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "status": {"type": "integer"}
            }
        },
        "ResponseEnvelope": {
            "type": "object",
            "properties": {
                "data": {"type": "object"},
                "error": {"$ref": "#/definitions/APIError"},
                "pagination": {"$ref": "#/definitions/Pagination"},
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
