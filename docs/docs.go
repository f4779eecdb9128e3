// Package docs holds the OpenAPI description served by gin-swagger.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "license": {
            "name": "MIT",
            "url": "https://opensource.org/licenses/MIT"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health": {
            "get": {
                "produces": ["application/json"],
                "tags": ["health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.StatusResponse"}}
                }
            }
        },
        "/users/{username}/sync": {
            "post": {
                "description": "Fetch the profile and repositories of a GitHub user and replace the cached repositories",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "Sync a user",
                "parameters": [
                    {"type": "string", "description": "GitHub username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.SyncResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/users/{username}/repos": {
            "get": {
                "description": "Get the repositories stored by the last successful sync of a user",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List cached repositories",
                "parameters": [
                    {"type": "string", "description": "GitHub username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.RepositoryListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/users/{username}/repos/{repo}/commits": {
            "get": {
                "description": "Get the latest commits of a repository straight from GitHub",
                "produces": ["application/json"],
                "tags": ["users"],
                "summary": "List recent commits",
                "parameters": [
                    {"type": "string", "description": "GitHub username", "name": "username", "in": "path", "required": true},
                    {"type": "string", "description": "Repository name", "name": "repo", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.CommitListResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "502": {"description": "Bad Gateway", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/users/{username}/sync-status": {
            "get": {
                "description": "Get the last known sync status of a user",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Get sync status",
                "parameters": [
                    {"type": "string", "description": "GitHub username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/models.SyncStatus"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            },
            "delete": {
                "description": "Delete the sync status of a user so batch syncs skip it. Cached repositories are kept.",
                "tags": ["sync"],
                "summary": "Stop tracking a user",
                "parameters": [
                    {"type": "string", "description": "GitHub username", "name": "username", "in": "path", "required": true}
                ],
                "responses": {
                    "204": {"description": "No Content"},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/sync-status": {
            "get": {
                "description": "Get the sync status of every tracked user",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "List sync statuses",
                "responses": {
                    "200": {"description": "OK", "schema": {"type": "array", "items": {"$ref": "#/definitions/models.SyncStatus"}}},
                    "500": {"description": "Internal Server Error", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/sync-all": {
            "post": {
                "description": "Trigger a background re-sync of every tracked user",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Sync all users",
                "responses": {
                    "202": {"description": "Accepted", "schema": {"$ref": "#/definitions/api.StatusResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/sync-all/progress": {
            "get": {
                "description": "Get the progress of the running or last batch sync",
                "produces": ["application/json"],
                "tags": ["sync"],
                "summary": "Batch sync progress",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.BatchProgressResponse"}}
                }
            }
        },
        "/accounts/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Register an account",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CredentialsRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"$ref": "#/definitions/api.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        },
        "/accounts/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["accounts"],
                "summary": "Check account credentials",
                "parameters": [
                    {"description": "Credentials", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CredentialsRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.AccountResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.ErrorResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.ErrorResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.AccountResponse": {
            "type": "object",
            "properties": {
                "created_at": {"type": "string", "example": "2024-03-20T00:00:00Z"},
                "username": {"type": "string", "example": "alice"}
            }
        },
        "api.BatchProgressResponse": {
            "type": "object",
            "properties": {
                "progress": {"$ref": "#/definitions/models.BatchProgress"},
                "running": {"type": "boolean"}
            }
        },
        "api.CommitListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 10},
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.Commit"}},
                "repository": {"type": "string", "example": "octocat/Hello-World"}
            }
        },
        "api.CredentialsRequest": {
            "type": "object",
            "required": ["password", "username"],
            "properties": {
                "password": {"type": "string", "example": "correct horse"},
                "username": {"type": "string", "example": "alice"}
            }
        },
        "api.ErrorBody": {
            "type": "object",
            "properties": {
                "message": {"type": "string", "example": "GitHub resource not found: /users/nobody"},
                "type": {
                    "type": "string",
                    "enum": ["INVALID_INPUT", "NOT_FOUND", "RATE_LIMIT", "UNAUTHORIZED", "TRANSPORT", "UNEXPECTED_STATUS", "MALFORMED_RESPONSE", "STORE", "CONFLICT", "INTERNAL"],
                    "example": "NOT_FOUND"
                }
            }
        },
        "api.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"$ref": "#/definitions/api.ErrorBody"}
            }
        },
        "api.RepositoryListResponse": {
            "type": "object",
            "properties": {
                "count": {"type": "integer", "example": 8},
                "data": {"type": "array", "items": {"$ref": "#/definitions/models.Repository"}},
                "fetched_at": {"type": "string", "example": "2024-03-20T10:30:00Z"},
                "fingerprint": {"type": "string"},
                "username": {"type": "string", "example": "octocat"}
            }
        },
        "api.StatusResponse": {
            "type": "object",
            "properties": {
                "status": {"type": "string", "example": "ok"}
            }
        },
        "api.SyncResponse": {
            "type": "object",
            "properties": {
                "changed": {"type": "boolean"},
                "profile": {"$ref": "#/definitions/models.UserProfile"},
                "repositories": {"$ref": "#/definitions/api.RepositoryListResponse"},
                "run_id": {"type": "string", "example": "cnq2o1c2r7n8r5l0qgkg"}
            }
        },
        "models.BatchProgress": {
            "type": "object",
            "properties": {
                "failed_items": {"type": "integer"},
                "last_processed_item": {"type": "string"},
                "last_update_time": {"type": "string"},
                "processed_items": {"type": "integer"},
                "start_time": {"type": "string"},
                "total_items": {"type": "integer"}
            }
        },
        "models.Commit": {
            "type": "object",
            "properties": {
                "author_date": {"type": "string"},
                "author_name": {"type": "string"},
                "html_url": {"type": "string"},
                "message": {"type": "string"},
                "sha": {"type": "string"}
            }
        },
        "models.Repository": {
            "type": "object",
            "properties": {
                "description": {"type": "string"},
                "forks_count": {"type": "integer"},
                "html_url": {"type": "string"},
                "id": {"type": "integer"},
                "language": {"type": "string"},
                "name": {"type": "string"},
                "private": {"type": "boolean"},
                "stargazers_count": {"type": "integer"},
                "updated_at": {"type": "string"}
            }
        },
        "models.SyncStatus": {
            "type": "object",
            "properties": {
                "content_fingerprint": {"type": "string"},
                "fingerprint": {"type": "string"},
                "is_syncing": {"type": "boolean"},
                "last_error": {"type": "string"},
                "last_sync_at": {"type": "string"},
                "repository_count": {"type": "integer"},
                "run_id": {"type": "string"},
                "start_time": {"type": "string"},
                "status": {"type": "string", "enum": ["in_progress", "completed", "failed"]},
                "sync_duration": {"type": "integer"},
                "username": {"type": "string"}
            }
        },
        "models.UserProfile": {
            "type": "object",
            "properties": {
                "avatar_url": {"type": "string"},
                "bio": {"type": "string"},
                "followers": {"type": "integer"},
                "following": {"type": "integer"},
                "login": {"type": "string"},
                "name": {"type": "string"},
                "public_repos": {"type": "integer"}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "localhost:8080",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Repo Tracker API",
	Description:      "Syncs and caches the public repositories of GitHub users",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
