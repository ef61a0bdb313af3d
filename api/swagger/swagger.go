package swagger

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "OJT Portal API",
        "description": "On-the-job training hours portal: attendance, placements, face verification",
        "version": "1.0.0"
    },
    "basePath": "/api/v1",
    "schemes": [
        "http"
    ],
    "tags": [
        {"name": "Auth", "description": "Authentication and sessions"},
        {"name": "Attendance", "description": "Daily time-record cycle"},
        {"name": "Placements", "description": "Placement submission and review"},
        {"name": "Faces", "description": "Face descriptor registration and comparison"}
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
                    "200": {"description": "Ready"}
                }
            }
        },
        "/auth/login": {
            "post": {
                "tags": ["Auth"],
                "summary": "Login",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/LoginRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "401": {"description": "Invalid credentials"}
                }
            }
        },
        "/attendance/time-in": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record time-in",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "descriptor", "in": "formData", "type": "string", "description": "JSON array of descriptor values"},
                    {"name": "image", "in": "formData", "type": "file"},
                    {"name": "remarks", "in": "formData", "type": "string"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Face mismatch"},
                    "409": {"description": "Already timed in"},
                    "412": {"description": "Placement not approved"}
                }
            }
        },
        "/attendance/time-out": {
            "post": {
                "tags": ["Attendance"],
                "summary": "Record time-out",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "descriptor", "in": "formData", "type": "string", "description": "JSON array of descriptor values"},
                    {"name": "image", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already timed out"},
                    "412": {"description": "No prior time-in"}
                }
            }
        },
        "/attendance/today": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Today's attendance state",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/records": {
            "get": {
                "tags": ["Attendance"],
                "summary": "List time records",
                "parameters": [
                    {"name": "student_id", "in": "query", "type": "string"},
                    {"name": "date_from", "in": "query", "type": "string"},
                    {"name": "date_to", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/attendance/progress": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Caller's hour progress",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/students/{id}/progress": {
            "get": {
                "tags": ["Attendance"],
                "summary": "Student hour progress",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/placements": {
            "get": {
                "tags": ["Placements"],
                "summary": "List placements",
                "parameters": [
                    {"name": "status", "in": "query", "type": "string"},
                    {"name": "search", "in": "query", "type": "string"},
                    {"name": "page", "in": "query", "type": "integer"},
                    {"name": "page_size", "in": "query", "type": "integer"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            },
            "post": {
                "tags": ["Placements"],
                "summary": "Submit placement",
                "consumes": ["multipart/form-data"],
                "parameters": [
                    {"name": "company_name", "in": "formData", "required": true, "type": "string"},
                    {"name": "company_address", "in": "formData", "required": true, "type": "string"},
                    {"name": "supervisor_name", "in": "formData", "required": true, "type": "string"},
                    {"name": "supervisor_contact", "in": "formData", "required": true, "type": "string"},
                    {"name": "document", "in": "formData", "type": "file"}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Already submitted"}
                }
            },
            "put": {
                "tags": ["Placements"],
                "summary": "Edit placement",
                "consumes": ["multipart/form-data"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "409": {"description": "Placement finalized"}
                }
            }
        },
        "/placements/me": {
            "get": {
                "tags": ["Placements"],
                "summary": "Caller's placement",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "404": {"description": "No submission yet"}
                }
            }
        },
        "/placements/{id}/review": {
            "post": {
                "tags": ["Placements"],
                "summary": "Review placement",
                "parameters": [
                    {"name": "id", "in": "path", "required": true, "type": "string"},
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/PlacementReviewRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "403": {"description": "Outside reviewer's program"},
                    "409": {"description": "Already reviewed"}
                }
            }
        },
        "/faces/register": {
            "post": {
                "tags": ["Faces"],
                "summary": "Register face descriptor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FaceRegisterRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/ResponseEnvelope"}}
                }
            }
        },
        "/faces/compare": {
            "post": {
                "tags": ["Faces"],
                "summary": "Compare face descriptor",
                "parameters": [
                    {"name": "payload", "in": "body", "required": true, "schema": {"$ref": "#/definitions/FaceCompareRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/ResponseEnvelope"}},
                    "400": {"description": "Descriptor length mismatch"}
                }
            }
        }
    },
    "definitions": {
        "LoginRequest": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            },
            "required": ["email", "password"]
        },
        "TimeRecord": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "record_date": {"type": "string"},
                "time_in": {"type": "string"},
                "time_out": {"type": "string"},
                "rendered_hours": {"type": "number"},
                "remarks": {"type": "string"},
                "created_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "DayStatus": {
            "type": "object",
            "properties": {
                "state": {"type": "string", "enum": ["NO_RECORD", "TIMED_IN", "COMPLETED"]},
                "record": {"$ref": "#/definitions/TimeRecord"}
            }
        },
        "ProgressSummary": {
            "type": "object",
            "properties": {
                "student_id": {"type": "string"},
                "completed_hours": {"type": "number"},
                "required_hours": {"type": "number"},
                "percent": {"type": "integer"}
            }
        },
        "PlacementSubmission": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "student_id": {"type": "string"},
                "company_name": {"type": "string"},
                "company_address": {"type": "string"},
                "supervisor_name": {"type": "string"},
                "supervisor_contact": {"type": "string"},
                "document_ref": {"type": "string"},
                "status": {"type": "string", "enum": ["PENDING", "APPROVED", "REJECTED"]},
                "submitted_at": {"type": "string"},
                "approved_at": {"type": "string"},
                "rejected_at": {"type": "string"},
                "reviewed_by": {"type": "string"}
            }
        },
        "PlacementReviewRequest": {
            "type": "object",
            "properties": {
                "decision": {"type": "string", "enum": ["approve", "reject"]}
            },
            "required": ["decision"]
        },
        "FaceRegisterRequest": {
            "type": "object",
            "properties": {
                "descriptor": {"type": "array", "items": {"type": "number"}},
                "bounding_box": {"$ref": "#/definitions/BoundingBox"}
            },
            "required": ["descriptor"]
        },
        "FaceCompareRequest": {
            "type": "object",
            "properties": {
                "descriptor": {"type": "array", "items": {"type": "number"}}
            },
            "required": ["descriptor"]
        },
        "FaceCompareResult": {
            "type": "object",
            "properties": {
                "registered": {"type": "boolean"},
                "is_match": {"type": "boolean"},
                "distance": {"type": "number"},
                "threshold": {"type": "number"}
            }
        },
        "BoundingBox": {
            "type": "object",
            "properties": {
                "x": {"type": "number"},
                "y": {"type": "number"},
                "width": {"type": "number"},
                "height": {"type": "number"}
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
