// Package handler implements the HTTP surface of the GRISERA API.
//
// Every collection gets the same set of routes:
//
//	POST   /{collection}                     create, 422 with "errors" on invalid input
//	GET    /{collection}?depth=&<field>=     list with equality filters
//	GET    /{collection}/{id}?depth=&source= read with related entities expanded
//	PUT    /{collection}/{id}                replace intrinsic properties
//	PUT    /{collection}/{id}/relationships  replace forward relations
//	DELETE /{collection}/{id}                remove, returning the removed entity
//	GET    /{collection}/{id}/export         download as JSON or YAML
//
// Appearances, scenarios and time series replace or extend some of these
// with dedicated handlers. Ids that do not resolve produce 404 with the
// {"id", "errors"} body.
//
// The query parameters depth, source, format, signal_min_value and
// signal_max_value are never list filters. To filter on a property with one
// of those names, prefix it: /registered_data?filter.source=camera.
//
// Request bodies are JSON unless Content-Type names YAML.
package handler
