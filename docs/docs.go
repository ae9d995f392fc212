// Package docs holds the OpenAPI description served at /swagger.
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
        "/healthz": {
            "get": {
                "tags": ["System"],
                "summary": "Health check",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespOK"}}}
            }
        },
        "/readyz": {
            "get": {
                "tags": ["System"],
                "summary": "Readiness check",
                "produces": ["application/json"],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespOK"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/handlers.RespOK"}}
                }
            }
        },
        "/api/members": {
            "get": {
                "tags": ["Members"],
                "summary": "List Members (Admin)",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "filters", "in": "query", "description": "JSON encoded filters"},
                    {"type": "integer", "name": "from", "in": "query"},
                    {"type": "integer", "name": "size", "in": "query"},
                    {"type": "string", "name": "sort_by", "in": "query"},
                    {"type": "boolean", "name": "sort_desc", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMemberList"}}}
            },
            "post": {
                "tags": ["Members"],
                "summary": "Register Member (Cash)",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/membership.CashRegistration"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMember"}}}
            }
        },
        "/api/members/renew": {
            "post": {
                "tags": ["Members"],
                "summary": "Renew Membership",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/membership.RenewalRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMember"}}}
            }
        },
        "/api/members/verify": {
            "get": {
                "tags": ["Members"],
                "summary": "Verify Membership",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "email", "in": "query", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespVerify"}}}
            }
        },
        "/api/members/checkin": {
            "post": {
                "tags": ["Members"],
                "summary": "Check In",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/membership.CheckInRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespCheckIn"}}}
            }
        },
        "/api/members/search": {
            "get": {
                "tags": ["Members"],
                "summary": "Search Members",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "query", "in": "query", "required": true},
                    {"type": "integer", "name": "limit", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMembers"}}}
            }
        },
        "/api/members/statistics": {
            "get": {
                "tags": ["Members"],
                "summary": "Membership Statistics (Admin)",
                "produces": ["application/json"],
                "parameters": [
                    {"type": "string", "name": "items", "in": "query"},
                    {"type": "string", "name": "filters", "in": "query"}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespOK"}}}
            }
        },
        "/api/members/{id}": {
            "get": {
                "tags": ["Members"],
                "summary": "Get Member",
                "produces": ["application/json"],
                "parameters": [{"type": "string", "name": "id", "in": "path", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespMember"}}}
            }
        },
        "/api/checkout/create-checkout-session": {
            "post": {
                "tags": ["Checkout"],
                "summary": "Create Checkout Session",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/checkout.CreateSessionRequest"}}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handlers.RespCheckoutSession"}}}
            }
        },
        "/api/stripe/webhook": {
            "post": {
                "tags": ["Webhook"],
                "summary": "Stripe Webhook",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "payload", "required": true, "schema": {"type": "string"}}],
                "responses": {
                    "200": {"description": "OK"},
                    "400": {"description": "Invalid signature"},
                    "500": {"description": "Handling failed"}
                }
            }
        }
    },
    "definitions": {
        "handlers.RespOK": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {}}
        },
        "handlers.RespMember": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {"$ref": "#/definitions/models.Member"}}
        },
        "handlers.RespMembers": {
            "type": "object",
            "properties": {"code": {"type": "integer"}, "message": {"type": "string"}, "data": {"type": "array", "items": {"$ref": "#/definitions/models.Member"}}}
        },
        "handlers.RespMemberList": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {"type": "object", "properties": {"items": {"type": "array", "items": {"$ref": "#/definitions/models.Member"}}, "total": {"type": "integer"}}}
            }
        },
        "handlers.RespVerify": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {"type": "object", "properties": {"found": {"type": "boolean"}, "active": {"type": "boolean"}}}
            }
        },
        "handlers.RespCheckIn": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {
                    "type": "object",
                    "properties": {
                        "memberId": {"type": "string"},
                        "memberName": {"type": "string"},
                        "totalAttendance": {"type": "integer"},
                        "checkedInAt": {"type": "string"},
                        "active": {"type": "boolean"}
                    }
                }
            }
        },
        "handlers.RespCheckoutSession": {
            "type": "object",
            "properties": {
                "code": {"type": "integer"},
                "message": {"type": "string"},
                "data": {
                    "type": "object",
                    "properties": {
                        "url": {"type": "string"},
                        "sessionId": {"type": "string"},
                        "membershipKey": {"type": "string"},
                        "amount": {"type": "number"}
                    }
                }
            }
        },
        "membership.CashRegistration": {
            "type": "object",
            "required": ["name", "email", "emergencyContactName", "emergencyContactPhone", "emergencyContactRelation", "membershipType", "cashReceiver"],
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "studentNumber": {"type": "string"},
                "emergencyContactName": {"type": "string"},
                "emergencyContactPhone": {"type": "string"},
                "emergencyContactRelation": {"type": "string"},
                "waiverSigned": {"type": "boolean"},
                "membershipType": {"type": "string", "enum": ["term", "year", "nonstudent"]},
                "cashReceiver": {"type": "string"}
            }
        },
        "membership.RenewalRequest": {
            "type": "object",
            "required": ["email", "membershipType", "paymentMethod"],
            "properties": {
                "email": {"type": "string"},
                "membershipType": {"type": "string", "enum": ["term", "year", "nonstudent"]},
                "paymentMethod": {"type": "string", "enum": ["cash", "online"]},
                "cashReceiver": {"type": "string"},
                "paymentAmount": {"type": "number"},
                "newExpiryDate": {"type": "string"}
            }
        },
        "membership.CheckInRequest": {
            "type": "object",
            "required": ["identifier"],
            "properties": {"identifier": {"type": "string"}}
        },
        "checkout.CreateSessionRequest": {
            "type": "object",
            "required": ["type", "plan"],
            "properties": {
                "type": {"type": "string", "enum": ["register", "renew", "dropin"]},
                "plan": {"type": "string", "enum": ["term", "year", "nonstudent", "dropin"]},
                "successUrl": {"type": "string"},
                "cancelUrl": {"type": "string"},
                "label": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "studentNumber": {"type": "string"},
                "emergencyContactName": {"type": "string"},
                "emergencyContactPhone": {"type": "string"},
                "emergencyContactRelation": {"type": "string"},
                "waiverSigned": {"type": "boolean"}
            }
        },
        "models.Member": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "membershipKey": {"type": "string"},
                "name": {"type": "string"},
                "email": {"type": "string"},
                "studentNumber": {"type": "string"},
                "emergencyContactName": {"type": "string"},
                "emergencyContactPhone": {"type": "string"},
                "emergencyContactRelation": {"type": "string"},
                "waiverSigned": {"type": "boolean"},
                "membershipType": {"type": "string"},
                "paymentMethod": {"type": "string"},
                "cashReceiver": {"type": "string"},
                "paymentAmount": {"type": "number"},
                "paymentDate": {"type": "string"},
                "startDate": {"type": "string"},
                "expiryDate": {"type": "string"},
                "status": {"type": "string", "enum": ["active", "expired", "suspended", "trial"]},
                "attendance": {"type": "array", "items": {"type": "string"}},
                "createdAt": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8888",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Clubhouse Membership API",
	Description:      "Club membership registration, renewal, check-in and Stripe payment reconciliation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
