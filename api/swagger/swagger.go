package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Report Cards API",
        "description": "Report card generation, grading, publication and export",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "securityDefinitions": {
        "BearerAuth": {"type": "apiKey", "name": "Authorization", "in": "header"}
    },
    "tags": [
        {"name": "ReportCards", "description": "Generation, lifecycle and reads of student report cards"},
        {"name": "Exports", "description": "Asynchronous CSV and PDF exports"}
    ],
    "paths": {
        "/report-cards/generate": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Generate or regenerate one student's report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateReportCardRequest"}}
                ],
                "responses": {
                    "201": {"description": "Report card", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Caller not authorized for school", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Student, class or exam not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No marks found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/generate/class": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Generate report cards for every active student of a class",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/GenerateClassReportCardsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Batch result", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "No report card could be generated", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "List report cards of a school",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"},
                    {"name": "classId", "in": "query", "type": "string"},
                    {"name": "termId", "in": "query", "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report cards", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{id}": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "Get a report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Report card", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "delete": {
                "tags": ["ReportCards"],
                "summary": "Delete a report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "204": {"description": "Deleted"},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{id}/versions": {
            "get": {
                "tags": ["ReportCards"],
                "summary": "List stored snapshots of a report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Versions", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{id}/publish": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Publish a draft report card",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/SchoolScope"}}
                ],
                "responses": {
                    "200": {"description": "Published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/{id}/unpublish": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Return a published report card to draft",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/UnpublishReportCardRequest"}}
                ],
                "responses": {
                    "200": {"description": "Back to draft", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Not published", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/bulk-delete": {
            "post": {
                "tags": ["ReportCards"],
                "summary": "Delete several report cards of one school",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/BulkDeleteReportCardsRequest"}}
                ],
                "responses": {
                    "200": {"description": "Deleted count", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/exports": {
            "post": {
                "tags": ["Exports"],
                "summary": "Queue a CSV or PDF export of a class's report cards",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/ReportCardExportRequest"}}
                ],
                "responses": {
                    "202": {"description": "Queued", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Queue unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/report-cards/exports/{id}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Export job progress",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "schoolId", "in": "query", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "Status", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/export/{token}": {
            "get": {
                "tags": ["Exports"],
                "summary": "Download a finished export through its signed link",
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"name": "token", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "File"},
                    "403": {"description": "Invalid or expired token", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Narrative": {
            "type": "object",
            "properties": {
                "teacherComment": {"type": "string"},
                "headTeacherComment": {"type": "string"},
                "attendancePresent": {"type": "integer"},
                "attendanceTotal": {"type": "integer"},
                "conduct": {"type": "string"},
                "interest": {"type": "string"},
                "nextTermBegins": {"type": "string"}
            }
        },
        "GenerateReportCardRequest": {
            "type": "object",
            "required": ["schoolId", "studentId", "classId", "examId"],
            "properties": {
                "schoolId": {"type": "string"},
                "studentId": {"type": "string", "description": "Student business code"},
                "classId": {"type": "string", "description": "Class code"},
                "examId": {"type": "string"},
                "academicYearId": {"type": "string"},
                "termId": {"type": "string"}
            }
        },
        "GenerateClassReportCardsRequest": {
            "type": "object",
            "required": ["examId", "classId"],
            "properties": {
                "examId": {"type": "string"},
                "classId": {"type": "string", "description": "Class code"}
            }
        },
        "SchoolScope": {
            "type": "object",
            "required": ["schoolId"],
            "properties": {
                "schoolId": {"type": "string"}
            }
        },
        "UnpublishReportCardRequest": {
            "type": "object",
            "required": ["schoolId", "reason"],
            "properties": {
                "schoolId": {"type": "string"},
                "reason": {"type": "string", "maxLength": 500}
            }
        },
        "BulkDeleteReportCardsRequest": {
            "type": "object",
            "required": ["schoolId", "reportIds"],
            "properties": {
                "schoolId": {"type": "string"},
                "reportIds": {"type": "array", "items": {"type": "string"}, "maxItems": 500}
            }
        },
        "ReportCardExportRequest": {
            "type": "object",
            "required": ["schoolId", "classId", "format"],
            "properties": {
                "schoolId": {"type": "string"},
                "classId": {"type": "string"},
                "examId": {"type": "string"},
                "termId": {"type": "string"},
                "format": {"type": "string", "enum": ["csv", "pdf"]}
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
