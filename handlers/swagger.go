package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterSwagger registers minimal Swagger/OpenAPI endpoints.
// - GET /swagger/index.html  -> a small HTML page that loads the OpenAPI JSON
// - GET /swagger/doc.json    -> machine-readable OpenAPI JSON
func RegisterSwagger(rg gin.IRouter) {
	rg.GET("/swagger/index.html", func(c *gin.Context) {
		c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(swaggerHTML))
	})

	rg.GET("/swagger/doc.json", func(c *gin.Context) {
		c.Data(http.StatusOK, "application/json", []byte(swaggerJSON))
	})
}

const swaggerHTML = `<!doctype html>
<html>
  <head>
    <meta charset="utf-8" />
    <title>humanizapp API - Swagger</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@4/swagger-ui.css" />
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@4/swagger-ui-bundle.js"></script>
    <script>
      window.ui = SwaggerUIBundle({
        url: '/swagger/doc.json',
        dom_id: '#swagger-ui',
      })
    </script>
  </body>
</html>`

const swaggerJSON = `{
  "openapi": "3.0.0",
  "info": { "title": "humanizapp", "version": "v1.0.0" },
  "components": {
    "securitySchemes": { "bearer": { "type": "http", "scheme": "bearer", "bearerFormat": "JWT" } },
    "schemas": {
      "BirthPlanFields": {
        "type": "object",
        "properties": {
          "companionName": { "type": "string", "maxLength": 120 },
          "companionRelationship": { "type": "string", "maxLength": 60 },
          "painReliefMethods": { "type": "array", "uniqueItems": true, "items": { "type": "string", "enum": ["Massagem", "Banho morno/chuveiro", "Bola suíça", "Música/Aromaterapia"] } },
          "birthPosition": { "type": "string", "enum": ["", "Livre (escolhida na hora)", "Verticalizada (cócoras, em pé)", "Horizontal (deitada)"] },
          "cordClamping": { "type": "string", "enum": ["", "Imediatamente", "Clampeamento tardio (após cessar pulsação)"] },
          "skinToSkin": { "type": "string", "enum": ["", "Sim, imediato, por pelo menos 1 hora", "Sim, após procedimentos iniciais", "Não"] },
          "breastfeeding": { "type": "string", "enum": ["", "Sim, buscar iniciar na primeira hora", "Não"] },
          "additionalNotes": { "type": "string", "maxLength": 4000 }
        }
      },
      "Error": { "type": "object", "properties": { "error": { "type": "string" } } }
    }
  },
  "paths": {
    "/users/register": {
      "post": { "summary": "Register a user", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"name":{"type":"string"},"username":{"type":"string"},"password":{"type":"string"},"cpf":{"type":"string"}}}}}}, "responses": { "201": { "description": "user created" }, "400": { "description": "invalid" }, "409": { "description": "username or CPF taken" } } }
    },
    "/users/login": {
      "post": { "summary": "Login with username and password", "requestBody": { "content": { "application/json": { "schema": {"type":"object","properties":{"username":{"type":"string"},"password":{"type":"string"}}}}}}, "responses": { "200": { "description": "authenticated, token and user" }, "401": { "description": "invalid credentials" } } }
    },
    "/users/logout": {
      "post": { "summary": "Revoke the bearer token", "security": [{"bearer": []}], "responses": { "200": { "description": "logged out" } } }
    },
    "/users/me": {
      "get": { "summary": "Get the caller's own profile", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "401": { "description": "not authenticated" } } }
    },
    "/users/{username}": {
      "get": { "summary": "Get a user profile", "security": [{"bearer": []}], "responses": { "200": { "description": "user" }, "404": { "description": "not found" } } }
    },
    "/birth-plans": {
      "post": { "summary": "Create the birth plan of a user", "requestBody": { "content": { "application/json": { "schema": { "allOf": [ {"type":"object","properties":{"userId":{"type":"string"}}}, {"$ref":"#/components/schemas/BirthPlanFields"} ] } } } }, "responses": { "201": { "description": "created document" }, "400": { "description": "invalid" }, "409": { "description": "user already has a plan" } } }
    },
    "/birth-plans/user/{userId}": {
      "get": { "summary": "Get the birth plan of a user", "responses": { "200": { "description": "document" }, "404": { "description": "no plan yet" } } }
    },
    "/birth-plans/{id}": {
      "get": { "summary": "Get a birth plan", "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "put": { "summary": "Replace all fields of a birth plan", "requestBody": { "content": { "application/json": { "schema": {"$ref":"#/components/schemas/BirthPlanFields"} } } }, "responses": { "200": { "description": "document" }, "404": { "description": "not found" } } },
      "delete": { "summary": "Delete a birth plan", "responses": { "204": { "description": "deleted" }, "404": { "description": "not found" } } }
    },
    "/contents": {
      "get": { "summary": "List contents", "parameters": [ {"name":"role","in":"query","schema":{"type":"string"}}, {"name":"category","in":"query","schema":{"type":"string"}}, {"name":"trimester","in":"query","schema":{"type":"integer"}}, {"name":"week","in":"query","schema":{"type":"integer"}} ], "responses": { "200": { "description": "contents" } } },
      "post": { "summary": "Create content (ADMIN)", "security": [{"bearer": []}], "responses": { "201": { "description": "created" }, "403": { "description": "not an admin" } } }
    },
    "/contents/{id}": {
      "get": { "summary": "Get content", "responses": { "200": { "description": "content" }, "404": { "description": "not found" } } },
      "put": { "summary": "Update content (ADMIN)", "security": [{"bearer": []}], "responses": { "200": { "description": "updated" } } },
      "delete": { "summary": "Delete content (ADMIN)", "security": [{"bearer": []}], "responses": { "204": { "description": "deleted" } } }
    },
    "/health": { "get": { "summary": "Liveness check", "responses": { "200": { "description": "healthy" } } } },
    "/ready": { "get": { "summary": "Readiness check", "responses": { "200": { "description": "ready" }, "503": { "description": "not ready" } } } },
    "/metrics": { "get": { "summary": "Prometheus metrics", "responses": { "200": { "description": "metrics" } } } }
  }
}`
