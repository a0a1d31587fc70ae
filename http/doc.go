// Package http exposes the storefront admin and product services over a
// JSON REST API.
//
// # Routes
//
// Public:
//
//	POST /admin/register        multipart name, email, password, optional picture
//	POST /admin/login           JSON {email, password}
//	GET  /products              filters, search, pagination and sorting via query
//	GET  /products/{id}
//	GET  /uploads/*             files from the local uploads root
//	GET  /health
//	GET  /metrics
//
// Bearer token required:
//
//	GET|PUT /admin/profile
//	PUT     /admin/change-password
//	PUT     /admin/upload-picture
//	POST    /products
//	PUT     /products/{id}
//	DELETE  /products/{id}
//	PATCH   /products/{id}/status
//	PATCH   /products/{id}/stock
//
// # Errors
//
// Every failure is written as {"error": code, "message": text} by HandleError,
// which maps the storefront sentinel errors to status codes.
package http
