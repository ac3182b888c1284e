package domain

type Role string

const (
	RoleHost Role = "host"
	RolePeer Role = "peer"
)

func RoleOf(isHost bool) Role {
	if isHost {
		return RoleHost
	}
	return RolePeer
}

// Member represents a connection's participation meta for a room.
// No transport or lifecycle logic here.
type Member struct {
	Room RoomID
	Name DisplayName
	Role Role
}

func NewMember(room RoomID, name DisplayName, role Role) *Member {
	return &Member{Room: room, Name: name, Role: role}
}

func (m *Member) IsHost() bool { return m.Role == RoleHost }
