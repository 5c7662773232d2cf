package main

// General API documentation for swaggo. Run `swag init -g cmd/variantd/docs.go` to regenerate docs.
//
// @title           variantd API
// @version         1.0
// @description     Control API for live source streams and their transcoded variants.
//
// @contact.name   variantd maintainers
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
