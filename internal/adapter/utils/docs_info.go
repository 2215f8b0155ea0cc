package utils

//run redis
//docker run -p 6379:6379 -d redis

//optional semantic answer cache
//docker run -p 6333:6333 -p 6334:6334 -v vectorDBData:/qdrant/storage qdrant/qdrant

//swagger init
//swag init -g cmd/api/main.go --parseDependency --parseInternal --dir ./ --output ./cmd/api/docs
// @title           GoRAG API
// @version         1.0
// @description     Question answering over approved documents, with background indexing.
// @termsOfService  http://swagger.io/terms/

// @contact.name    GoRAG maintainers

// @license.name    Apache 2.0
// @license.url     http://www.apache.org/licenses/LICENSE-2.0.html

// @host      localhost:3000
// @BasePath  /
// @schemes   http https

// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
