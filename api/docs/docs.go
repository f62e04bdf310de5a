// Package docs holds the OpenAPI description served at /swagger/.
// Regenerate with: swag init -g internal/auth/http/router.go -o api/docs
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "AussieBroadWAN Team",
            "url": "https://github.com/aussiebroadwan/botdash"
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
        "/livez": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Health Check Endpoint",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status, uptime, version",
                        "schema": {
                            "$ref": "#/definitions/authsdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/readyz": {
            "get": {
                "tags": [
                    "Health"
                ],
                "summary": "Readiness Check Endpoint",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "status, uptime, version, checks",
                        "schema": {
                            "$ref": "#/definitions/authsdk.HealthResponse"
                        }
                    },
                    "503": {
                        "description": "service not ready",
                        "schema": {
                            "$ref": "#/definitions/authsdk.HealthResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/login": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "Start login",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Relative dashboard path to land on after login",
                        "name": "redirect",
                        "in": "query"
                    }
                ],
                "responses": {
                    "302": {
                        "description": "Redirect to the provider consent page"
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/auth/callback": {
            "get": {
                "tags": [
                    "Auth"
                ],
                "summary": "OAuth2 callback",
                "parameters": [
                    {
                        "type": "string",
                        "name": "code",
                        "in": "query"
                    },
                    {
                        "type": "string",
                        "name": "state",
                        "in": "query"
                    }
                ],
                "responses": {
                    "302": {
                        "description": "Redirect into the dashboard or back to login"
                    }
                }
            }
        },
        "/v1/auth/logout": {
            "post": {
                "tags": [
                    "Auth"
                ],
                "summary": "Logout",
                "responses": {
                    "204": {
                        "description": "Logged out"
                    },
                    "500": {
                        "description": "Internal server error",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me": {
            "get": {
                "security": [
                    {
                        "SessionCookie": []
                    }
                ],
                "tags": [
                    "Me"
                ],
                "summary": "Current user",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/authsdk.UserResponse"
                        }
                    },
                    "401": {
                        "description": "session_not_found or session_expired",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me/guild": {
            "put": {
                "security": [
                    {
                        "SessionCookie": []
                    }
                ],
                "tags": [
                    "Me"
                ],
                "summary": "Select guild",
                "consumes": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "description": "Guild to select",
                        "name": "body",
                        "in": "body",
                        "required": true,
                        "schema": {
                            "$ref": "#/definitions/authsdk.SelectGuildRequest"
                        }
                    }
                ],
                "responses": {
                    "204": {
                        "description": "No Content"
                    },
                    "400": {
                        "description": "Missing guild_id",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "401": {
                        "description": "session_not_found or session_expired",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/me/guilds": {
            "get": {
                "security": [
                    {
                        "SessionCookie": []
                    }
                ],
                "tags": [
                    "Me"
                ],
                "summary": "Provider guilds",
                "produces": [
                    "application/json"
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "type": "array",
                            "items": {
                                "$ref": "#/definitions/authsdk.UserGuildResponse"
                            }
                        }
                    },
                    "401": {
                        "description": "session or provider authorization missing",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Identity provider failed",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/tenants/{tenant}/bot": {
            "get": {
                "security": [
                    {
                        "SessionCookie": []
                    }
                ],
                "tags": [
                    "Bots"
                ],
                "summary": "Tenant bot",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Tenant ID",
                        "name": "tenant",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/authsdk.BotResponse"
                        }
                    },
                    "401": {
                        "description": "session_not_found or session_expired",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "No bot for this tenant",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Provisioner failed",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/v1/guilds/{guild}": {
            "get": {
                "security": [
                    {
                        "SessionCookie": []
                    }
                ],
                "tags": [
                    "Bots"
                ],
                "summary": "Guild metadata",
                "produces": [
                    "application/json"
                ],
                "parameters": [
                    {
                        "type": "string",
                        "description": "Guild ID",
                        "name": "guild",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "200": {
                        "description": "OK",
                        "schema": {
                            "$ref": "#/definitions/authsdk.GuildResponse"
                        }
                    },
                    "401": {
                        "description": "session_not_found or session_expired",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "404": {
                        "description": "Unknown guild",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "502": {
                        "description": "Provisioner failed",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/internal/v1/tenants/{tenant}/bot/invalidate": {
            "post": {
                "security": [
                    {
                        "ServiceToken": []
                    }
                ],
                "description": "Called by the provisioner after it rotates or deletes a tenant's bot. Requires a service token with scope cache:invalidate.",
                "tags": [
                    "Internal"
                ],
                "summary": "Invalidate bot identity",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Tenant ID",
                        "name": "tenant",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Evicted"
                    },
                    "401": {
                        "description": "invalid_token",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "insufficient_scope",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        },
        "/internal/v1/guilds/{guild}/invalidate": {
            "post": {
                "security": [
                    {
                        "ServiceToken": []
                    }
                ],
                "tags": [
                    "Internal"
                ],
                "summary": "Invalidate guild metadata",
                "parameters": [
                    {
                        "type": "string",
                        "description": "Guild ID",
                        "name": "guild",
                        "in": "path",
                        "required": true
                    }
                ],
                "responses": {
                    "204": {
                        "description": "Evicted"
                    },
                    "401": {
                        "description": "invalid_token",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    },
                    "403": {
                        "description": "insufficient_scope",
                        "schema": {
                            "$ref": "#/definitions/authsdk.ErrorResponse"
                        }
                    }
                }
            }
        }
    },
    "definitions": {
        "authsdk.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {
                    "type": "string"
                },
                "error_description": {
                    "type": "string"
                }
            }
        },
        "authsdk.HealthChecks": {
            "type": "object",
            "properties": {
                "database": {
                    "type": "string"
                },
                "provisioner": {
                    "type": "string"
                }
            }
        },
        "authsdk.HealthResponse": {
            "type": "object",
            "properties": {
                "status": {
                    "type": "string"
                },
                "uptime": {
                    "type": "string"
                },
                "version": {
                    "type": "string"
                },
                "checks": {
                    "$ref": "#/definitions/authsdk.HealthChecks"
                }
            }
        },
        "authsdk.UserResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "email": {
                    "type": "string"
                },
                "avatar": {
                    "type": "string"
                },
                "in_guild": {
                    "type": "boolean"
                },
                "needs_invite": {
                    "type": "boolean"
                },
                "selected_guild_id": {
                    "type": "string"
                },
                "token_expires_at": {
                    "type": "string"
                }
            }
        },
        "authsdk.SelectGuildRequest": {
            "type": "object",
            "properties": {
                "guild_id": {
                    "type": "string"
                }
            }
        },
        "authsdk.UserGuildResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "icon": {
                    "type": "string"
                },
                "owner": {
                    "type": "boolean"
                },
                "permissions": {
                    "type": "string"
                }
            }
        },
        "authsdk.BotResponse": {
            "type": "object",
            "properties": {
                "tenant_id": {
                    "type": "string"
                },
                "application_id": {
                    "type": "string"
                },
                "username": {
                    "type": "string"
                },
                "avatar": {
                    "type": "string"
                },
                "token_hint": {
                    "type": "string"
                },
                "updated_at": {
                    "type": "string"
                }
            }
        },
        "authsdk.GuildResponse": {
            "type": "object",
            "properties": {
                "id": {
                    "type": "string"
                },
                "name": {
                    "type": "string"
                },
                "icon": {
                    "type": "string"
                },
                "member_count": {
                    "type": "integer"
                },
                "bot_present": {
                    "type": "boolean"
                }
            }
        }
    },
    "securityDefinitions": {
        "SessionCookie": {
            "description": "Opaque session token set by the login callback.",
            "type": "apiKey",
            "name": "botdash_session",
            "in": "cookie"
        },
        "ServiceToken": {
            "description": "HS256 service token signed by the provisioner, as \"Bearer \u003cjwt\u003e\".",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "0.1.0",
	Host:             "localhost:8080",
	BasePath:         "/",
	Schemes:          []string{"http", "https"},
	Title:            "botdash API",
	Description:      "Session and secret management for the bot dashboard: Discord OAuth2 login with PKCE, opaque session cookies, and cached bot and guild lookups.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
