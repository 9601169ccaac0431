// File: listeners/member.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package listeners

// Member names a callback slot of a listener interface. Updates issued for
// the same Member coalesce; its identity is the pointer, the name only
// shows up in logs.
type Member struct {
	name string
}

// NewMember creates a new, distinct member token.
func NewMember(name string) *Member {
	return &Member{name: name}
}

func (m *Member) String() string {
	return m.name
}
