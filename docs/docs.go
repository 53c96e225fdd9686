// Package docs registers the OpenAPI description served at /swagger/*.
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
        "/auth/register": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Регистрация игрока",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.RegisterInput"}}],
                "responses": {"201": {"description": "Created"}, "409": {"description": "Email или имя заняты"}, "422": {"description": "Ошибки по полям"}}
            }
        },
        "/auth/login": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["auth"],
                "summary": "Вход по паролю",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.LoginInput"}}],
                "responses": {"200": {"description": "OK"}, "401": {"description": "Неверные данные"}}
            }
        },
        "/auth/otp/request": {
            "post": {
                "tags": ["auth"],
                "summary": "Запросить одноразовый код входа",
                "responses": {"202": {"description": "Accepted"}}
            }
        },
        "/auth/otp/verify": {
            "post": {
                "tags": ["auth"],
                "summary": "Вход по одноразовому коду",
                "responses": {"200": {"description": "OK"}, "401": {"description": "Код неверный или истёк"}}
            }
        },
        "/tournaments": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Создать турнир",
                "parameters": [{"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/services.CreateTournamentInput"}}],
                "responses": {"201": {"description": "Created"}, "400": {"description": "Некорректные параметры"}, "409": {"description": "Имя турнира занято"}}
            }
        },
        "/tournaments/{name}": {
            "get": {
                "tags": ["tournaments"],
                "summary": "Турнир с сеткой",
                "parameters": [{"type": "string", "in": "path", "name": "name", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Турнир не найден"}}
            }
        },
        "/tournaments/{name}/players": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["tournaments"],
                "summary": "Добавить игрока в пул турнира",
                "parameters": [{"type": "string", "in": "path", "name": "name", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Игрок не проходит фильтры турнира"}, "409": {"description": "Уже зарегистрирован / пул заполнен"}}
            }
        },
        "/tournaments/{name}/rounds": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["brackets"],
                "summary": "Сформировать следующий раунд сетки",
                "parameters": [{"type": "string", "in": "path", "name": "name", "required": true}],
                "responses": {"201": {"description": "Created"}, "404": {"description": "Турнир не найден"}, "409": {"description": "Предыдущий раунд не завершён / нет игроков / параллельное изменение"}}
            }
        },
        "/players/{name}": {
            "get": {
                "tags": ["players"],
                "summary": "Профиль игрока",
                "parameters": [{"type": "string", "in": "path", "name": "name", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Игрок не найден"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["players"],
                "summary": "Обновить профиль игрока",
                "parameters": [{"type": "string", "in": "path", "name": "name", "required": true}],
                "responses": {"200": {"description": "OK"}, "403": {"description": "Чужой профиль"}, "404": {"description": "Игрок не найден"}}
            }
        },
        "/matches/{matchID}": {
            "get": {
                "tags": ["matches"],
                "summary": "Матч",
                "parameters": [{"type": "string", "in": "path", "name": "matchID", "required": true}],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Матч не найден"}}
            },
            "patch": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"],
                "summary": "Записать результат матча",
                "parameters": [
                    {"type": "string", "in": "path", "name": "matchID", "required": true},
                    {"in": "body", "name": "body", "required": true, "schema": {"$ref": "#/definitions/models.MatchResult"}}
                ],
                "responses": {"200": {"description": "OK"}, "404": {"description": "Матч не найден"}, "422": {"description": "Ошибки по полям"}}
            }
        },
        "/matches/{matchID}/ratings": {
            "post": {
                "security": [{"BearerAuth": []}],
                "tags": ["matches"],
                "summary": "Пересчитать рейтинги участников матча",
                "parameters": [{"type": "string", "in": "path", "name": "matchID", "required": true}],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/services.RatingUpdate"}}, "404": {"description": "Матч, турнир или игрок не найден"}, "409": {"description": "У матча нет победителя"}}
            }
        }
    },
    "definitions": {
        "models.Set": {
            "type": "object",
            "properties": {
                "score": {"type": "array", "items": {"type": "integer"}},
                "winner": {"type": "string"}
            }
        },
        "models.MatchResult": {
            "type": "object",
            "properties": {
                "start_time": {"type": "string", "format": "date-time"},
                "winner": {"type": "string"},
                "completed": {"type": "boolean"},
                "sets": {"type": "array", "items": {"$ref": "#/definitions/models.Set"}}
            }
        },
        "services.CreateTournamentInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "capacity": {"type": "integer"},
                "min_rating": {"type": "integer"},
                "max_rating": {"type": "integer"},
                "category": {"type": "string"}
            }
        },
        "services.RegisterInput": {
            "type": "object",
            "properties": {
                "name": {"type": "string"},
                "email": {"type": "string"},
                "password": {"type": "string"},
                "category": {"type": "string"}
            }
        },
        "services.LoginInput": {
            "type": "object",
            "properties": {
                "email": {"type": "string"},
                "password": {"type": "string"}
            }
        },
        "services.RatingUpdate": {
            "type": "object",
            "properties": {
                "match_id": {"type": "string"},
                "player_a": {"type": "string"},
                "player_b": {"type": "string"},
                "old_a": {"type": "integer"},
                "old_b": {"type": "integer"},
                "new_a": {"type": "integer"},
                "new_b": {"type": "integer"},
                "k": {"type": "integer"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api",
	Schemes:          []string{},
	Title:            "Tournament Ladder API",
	Description:      "Single-elimination brackets with stage-sensitive Elo ratings.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
