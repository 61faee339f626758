// Package chats provides a provider-agnostic data model for the assistant's
// conversation with the canvas user.
//
// It is organized into sub-packages:
//   - [github.com/germanamz/easel/pkg/chats/role]: conversation roles (system, user, assistant, tool)
//   - [github.com/germanamz/easel/pkg/chats/content]: multi-modal content parts (text, image, video, tool call/result)
//   - [github.com/germanamz/easel/pkg/chats/message]: messages composed of a role, sender, and content parts
//   - [github.com/germanamz/easel/pkg/chats/chat]: mutable conversation container
//
// No provider or API code is included; chats is a foundation layer that
// model adapters and the assistant session build on.
package chats
