// Package engine is the composition root that assembles the canvas
// assistant from configuration: model completers with their tier fallback,
// the media generation client with its per-flow fallback, the shared canvas
// document, and per-conversation sessions. Frontends (the websocket bridge,
// the dev console, MCP) interact with Engine and Session types, observe
// activity through an EventBus, and never import lower-level packages
// directly.
package engine
