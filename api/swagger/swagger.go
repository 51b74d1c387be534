package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "SMA Timetable API",
        "description": "Weekly class timetable generation with teacher, room and class constraints.",
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
        {"name": "Timetables", "description": "Timetable generation, comparison and run history"}
    ],
    "paths": {
        "/timetables/generate": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Generate a weekly timetable",
                "description": "Places every class session into the Monday-Friday grid. Unplaceable input returns 422 with the unscheduled sessions.",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/GenerateTimetableRequest"}}
                ],
                "responses": {
                    "200": {"description": "Complete timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Malformed payload", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "422": {"description": "Some sessions could not be placed", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "503": {"description": "Scheduler unavailable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/compare": {
            "post": {
                "tags": ["Timetables"],
                "summary": "Compare timetable scenarios",
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [
                    {"in": "body", "name": "payload", "required": true, "schema": {"$ref": "#/definitions/CompareTimetablesRequest"}}
                ],
                "responses": {
                    "200": {"description": "Scenario results in request order", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/runs": {
            "get": {
                "tags": ["Timetables"],
                "summary": "List timetable runs",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "query", "name": "status", "type": "string", "enum": ["SUCCEEDED", "FAILED"]},
                    {"in": "query", "name": "page", "type": "integer"},
                    {"in": "query", "name": "pageSize", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/runs/{id}": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Get a timetable run",
                "security": [{"BearerAuth": []}],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "Not found", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/timetables/runs/{id}/export": {
            "get": {
                "tags": ["Timetables"],
                "summary": "Export a timetable run",
                "security": [{"BearerAuth": []}],
                "produces": ["text/csv", "application/pdf"],
                "parameters": [
                    {"in": "path", "name": "id", "type": "string", "required": true},
                    {"in": "query", "name": "format", "type": "string", "enum": ["csv", "pdf"]}
                ],
                "responses": {
                    "200": {"description": "Rendered file", "schema": {"type": "file"}},
                    "409": {"description": "Run has no timetable", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        }
    },
    "definitions": {
        "Teacher": {
            "type": "object",
            "required": ["name"],
            "properties": {
                "name": {"type": "string"},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "availableDays": {"type": "array", "items": {"type": "string"}}
            }
        },
        "Subject": {
            "type": "object",
            "required": ["name", "hoursPerWeek"],
            "properties": {
                "name": {"type": "string"},
                "hoursPerWeek": {"type": "integer", "minimum": 1}
            }
        },
        "ClassInfo": {
            "type": "object",
            "required": ["name", "studentCount"],
            "properties": {
                "name": {"type": "string"},
                "subjects": {"type": "array", "items": {"type": "string"}},
                "studentCount": {"type": "integer", "minimum": 1}
            }
        },
        "Room": {
            "type": "object",
            "required": ["name", "capacity"],
            "properties": {
                "id": {"type": "string"},
                "name": {"type": "string"},
                "capacity": {"type": "integer", "minimum": 1}
            }
        },
        "TimetableEntry": {
            "type": "object",
            "properties": {
                "day": {"type": "string"},
                "timeSlot": {"type": "string"},
                "className": {"type": "string"},
                "subjectName": {"type": "string"},
                "teacherName": {"type": "string"},
                "roomName": {"type": "string"}
            }
        },
        "Unscheduled": {
            "type": "object",
            "properties": {
                "className": {"type": "string"},
                "subjectName": {"type": "string"},
                "reason": {"type": "string", "enum": ["no teacher", "no room", "exhausted"]}
            }
        },
        "GenerateTimetableRequest": {
            "type": "object",
            "properties": {
                "teachers": {"type": "array", "items": {"$ref": "#/definitions/Teacher"}},
                "subjects": {"type": "array", "items": {"$ref": "#/definitions/Subject"}},
                "classes": {"type": "array", "items": {"$ref": "#/definitions/ClassInfo"}},
                "rooms": {"type": "array", "items": {"$ref": "#/definitions/Room"}},
                "reserved": {"type": "array", "items": {"$ref": "#/definitions/TimetableEntry"}},
                "strict": {"type": "boolean"}
            }
        },
        "TimetableResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "schedule": {"type": "array", "items": {"$ref": "#/definitions/TimetableEntry"}},
                "error": {"type": "string"},
                "unscheduled": {"type": "array", "items": {"$ref": "#/definitions/Unscheduled"}},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "runId": {"type": "string"},
                "cached": {"type": "boolean"}
            }
        },
        "CompareTimetablesRequest": {
            "type": "object",
            "required": ["scenarios"],
            "properties": {
                "scenarios": {
                    "type": "array",
                    "items": {
                        "type": "object",
                        "properties": {
                            "name": {"type": "string"},
                            "request": {"$ref": "#/definitions/GenerateTimetableRequest"}
                        }
                    }
                }
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
