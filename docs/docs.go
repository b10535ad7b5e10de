// Package docs holds the OpenAPI document served under /swagger. It mirrors
// the swag annotations on the handlers and is maintained alongside them.
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
        "/api/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Sign in",
                "parameters": [
                    {
                        "description": "Credentials",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.loginRequest"}
                    }
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.loginResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Register a new user",
                "parameters": [
                    {
                        "description": "User registration details",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.registerRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.registerResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/handler.registerResponse"}}
                }
            }
        },
        "/api/auth/logout": {
            "post": {
                "tags": ["auth"],
                "summary": "Sign out",
                "responses": {"303": {"description": "See Other"}}
            }
        },
        "/api/auth/session": {
            "get": {
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Current session",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.sessionView"}}}
            }
        },
        "/api/customers": {
            "get": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Customer list",
                "parameters": [
                    {"type": "boolean", "description": "Reload with the current filters", "name": "refresh", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            },
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Create customer",
                "parameters": [
                    {
                        "description": "Customer",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {"$ref": "#/definitions/handler.createCustomerRequest"}
                    }
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/handler.actionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.actionResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.actionResponse"}}
                }
            }
        },
        "/api/customers/filters": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Replace filters",
                "parameters": [
                    {"description": "Filters", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.filterRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}}}
            },
            "patch": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Debounced filter edit",
                "parameters": [
                    {"description": "Filters", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.filterRequest"}}
                ],
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/handler.errorBody"}}
                }
            }
        },
        "/api/customers/search": {
            "post": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Search",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}}}
            }
        },
        "/api/customers/reset": {
            "post": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Reset filters",
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}}}
            }
        },
        "/api/customers/page": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Change page",
                "parameters": [
                    {"description": "Page", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.pageRequest"}}
                ],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/service.QuerySnapshot"}}}
            }
        },
        "/api/customers/{id}": {
            "put": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Update customer",
                "parameters": [
                    {"type": "integer", "description": "Customer id", "name": "id", "in": "path", "required": true},
                    {"description": "Customer", "name": "body", "in": "body", "required": true, "schema": {"$ref": "#/definitions/handler.updateCustomerRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.actionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.actionResponse"}},
                    "422": {"description": "Unprocessable Entity", "schema": {"$ref": "#/definitions/handler.actionResponse"}}
                }
            },
            "delete": {
                "produces": ["application/json"],
                "tags": ["customers"],
                "summary": "Delete customer",
                "parameters": [
                    {"type": "integer", "description": "Customer id", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/handler.actionResponse"}},
                    "403": {"description": "Forbidden", "schema": {"$ref": "#/definitions/handler.actionResponse"}}
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
        "handler.loginRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "callbackUrl": {"type": "string"},
                "password": {"type": "string"},
                "username": {"type": "string"}
            }
        },
        "handler.loginResponse": {
            "type": "object",
            "properties": {
                "redirect": {"type": "string"},
                "session": {"$ref": "#/definitions/handler.sessionView"},
                "token": {"type": "string"}
            }
        },
        "handler.registerRequest": {
            "type": "object",
            "required": ["password", "roles", "username"],
            "properties": {
                "password": {"type": "string", "minLength": 6},
                "roles": {"type": "array", "minItems": 1, "items": {"type": "string", "enum": ["CUSTOMER_READ", "CUSTOMER_WRITE"]}},
                "username": {"type": "string"}
            }
        },
        "handler.registerResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "fieldErrors": {"type": "object", "additionalProperties": {"type": "string"}},
                "redirect": {"type": "string"},
                "success": {"type": "boolean"}
            }
        },
        "handler.errorBody": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "redirect": {"type": "string"}
            }
        },
        "handler.userView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "roles": {"type": "array", "items": {"type": "string"}},
                "username": {"type": "string"}
            }
        },
        "handler.sessionView": {
            "type": "object",
            "properties": {
                "authenticated": {"type": "boolean"},
                "canWrite": {"type": "boolean"},
                "expiresAt": {"type": "string"},
                "user": {"$ref": "#/definitions/handler.userView"}
            }
        },
        "handler.filterRequest": {
            "type": "object",
            "properties": {
                "customerSort": {"type": "string", "enum": ["ASC", "DESC"]},
                "page": {"type": "integer", "minimum": 0},
                "search": {"type": "string"},
                "size": {"type": "integer", "minimum": 0, "maximum": 100},
                "status": {"type": "string", "enum": ["ACTIVE", "INACTIVE"]},
                "type": {"type": "string", "enum": ["INDIVIDUAL", "CORPORATE"]}
            }
        },
        "handler.pageRequest": {
            "type": "object",
            "properties": {
                "page": {"type": "integer"}
            }
        },
        "handler.createCustomerRequest": {
            "type": "object",
            "required": ["email", "name", "phone", "type"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "type": {"type": "string", "enum": ["INDIVIDUAL", "CORPORATE"]}
            }
        },
        "handler.updateCustomerRequest": {
            "type": "object",
            "required": ["email", "name", "phone", "status", "type"],
            "properties": {
                "email": {"type": "string"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "status": {"type": "string", "enum": ["ACTIVE", "INACTIVE"]},
                "type": {"type": "string", "enum": ["INDIVIDUAL", "CORPORATE"]}
            }
        },
        "handler.actionResponse": {
            "type": "object",
            "properties": {
                "customers": {"$ref": "#/definitions/service.QuerySnapshot"},
                "error": {"type": "string"},
                "fieldErrors": {"type": "object", "additionalProperties": {"type": "string"}},
                "success": {"type": "boolean"}
            }
        },
        "handler.dependencyStatus": {
            "type": "object",
            "properties": {
                "error": {"type": "string"},
                "status": {"type": "string"}
            }
        },
        "handler.readinessResponse": {
            "type": "object",
            "properties": {
                "dependencies": {"type": "object", "additionalProperties": {"$ref": "#/definitions/handler.dependencyStatus"}},
                "status": {"type": "string"}
            }
        },
        "domain.Customer": {
            "type": "object",
            "properties": {
                "createdAt": {"type": "string"},
                "email": {"type": "string"},
                "id": {"type": "integer"},
                "name": {"type": "string"},
                "phone": {"type": "string"},
                "status": {"type": "string"},
                "type": {"type": "string"},
                "updatedAt": {"type": "string"}
            }
        },
        "domain.CustomerFilter": {
            "type": "object",
            "properties": {
                "customerSort": {"type": "string"},
                "page": {"type": "integer"},
                "search": {"type": "string"},
                "size": {"type": "integer"},
                "status": {"type": "string"},
                "type": {"type": "string"}
            }
        },
        "domain.ListResult": {
            "type": "object",
            "properties": {
                "items": {"type": "array", "items": {"$ref": "#/definitions/domain.Customer"}},
                "totalItems": {"type": "integer"},
                "totalPages": {"type": "integer"}
            }
        },
        "service.QuerySnapshot": {
            "type": "object",
            "properties": {
                "canWrite": {"type": "boolean"},
                "error": {"type": "string"},
                "filter": {"$ref": "#/definitions/domain.CustomerFilter"},
                "result": {"$ref": "#/definitions/domain.ListResult"},
                "showPagination": {"type": "boolean"},
                "state": {"type": "string", "enum": ["idle", "loading", "loaded", "errored"]}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{},
	Title:            "Customer Portal API",
	Description:      "Session, authorization and customer list surfaces of the customer portal.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
