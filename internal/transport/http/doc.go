// Package http exposes the chip history and derived signals as a read-only
// JSON API. Handlers follow chi routing conventions with render-based
// responses; they are thin consumers of the services layer and carry no
// domain logic of their own.
package http
