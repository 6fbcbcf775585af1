// Package gymclient is the typed Go client for the gym membership API. The
// client is generated from the OpenAPI document the server embeds and serves at
// /openapi.yaml; run `go generate ./pkg/gymclient` after changing the routes.
package gymclient

//go:generate go run github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen -generate types,client -package gymclient -o client.gen.go ../../internal/infra/api/openapi.yaml

// SpecPath is the OpenAPI document, relative to this package.
const SpecPath = "../../internal/infra/api/openapi.yaml"
