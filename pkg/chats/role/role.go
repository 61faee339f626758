// Package role defines the sender roles used in assistant conversations.
package role

// Role identifies who produced a message in a conversation.
type Role string

const (
	System    Role = "system"
	User      Role = "user"
	Assistant Role = "assistant"
	Tool      Role = "tool"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case System, User, Assistant, Tool:
		return true
	}
	return false
}

// Internal reports whether messages with this role belong to the working
// model context only. Tool exchanges are internal; they never appear in the
// user-visible transcript.
func (r Role) Internal() bool {
	return r == Tool
}

// String returns the underlying string value of the role.
func (r Role) String() string {
	return string(r)
}
