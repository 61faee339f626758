// Package providers contains model adapter implementations for concrete
// provider APIs. Each sub-package implements modeladapter.Completer on top
// of the shared ModelAdapter HTTP base.
package providers
