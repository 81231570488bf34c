// Package docs contains the Swagger API documentation
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "API Support",
            "email": "support@autoapply.example.com"
        },
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/pipeline/run": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Trigger a pipeline run",
                "description": "Start a full (or single-stage) pipeline run in the background",
                "responses": {
                    "202": {"description": "Accepted"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/pipeline/status": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Pipeline status",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/pipeline/report": {
            "get": {
                "produces": ["application/json"],
                "tags": ["pipeline"],
                "summary": "Last execution report",
                "responses": {
                    "200": {"description": "OK"},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/ErrorResponse"}}
                }
            }
        },
        "/analytics/overview": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get analytics overview",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/analytics/funnel": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get funnel analytics",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/analytics/scores": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get score distribution",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/analytics/submissions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get daily submissions",
                "responses": {"200": {"description": "OK"}}
            }
        },
        "/analytics/sites": {
            "get": {
                "produces": ["application/json"],
                "tags": ["analytics"],
                "summary": "Get site analytics",
                "responses": {"200": {"description": "OK"}}
            }
        }
    },
    "definitions": {
        "ErrorResponse": {
            "type": "object",
            "properties": {
                "error_code": {"type": "string"},
                "error_message": {"type": "string"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http"},
	Title:            "Autoapply Pipeline API",
	Description:      "Job-application pipeline controller: triggers runs and exposes read-side reports and analytics over the pipeline store.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
