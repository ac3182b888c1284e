package core

import (
	"encoding/json"

	"github.com/dkeye/Attend/internal/domain"
)

// Inbound message types.
const (
	TypeJoin        = "join"
	TypeOffer       = "offer"
	TypeAnswer      = "answer"
	TypeCandidate   = "candidate"
	TypeInattentive = "inattentive"
	TypeLeave       = "leave"
	TypePing        = "ping"
)

// Outbound message types.
const (
	TypeJoined             = "joined"
	TypePeerJoined         = "peer-joined"
	TypePeerLeft           = "peer-left"
	TypeHostLeft           = "host-left"
	TypeHostReplaced       = "host-replaced"
	TypeSetupExpired       = "setup-expired"
	TypeStudentInattentive = "student-inattentive"
	TypeMemberJoined       = "member-joined"
	TypeMemberLeft         = "member-left"
	TypeLeft               = "left"
	TypePong               = "pong"
	TypeError              = "error"
)

// SetupKind is the kind of a relayed connection-setup message.
type SetupKind string

const (
	SetupOffer     SetupKind = TypeOffer
	SetupAnswer    SetupKind = TypeAnswer
	SetupCandidate SetupKind = TypeCandidate
)

func ParseSetupKind(s string) (SetupKind, bool) {
	switch SetupKind(s) {
	case SetupOffer, SetupAnswer, SetupCandidate:
		return SetupKind(s), true
	}
	return "", false
}

// Envelope is the flat wire shape shared by every message.
// Unused fields are omitted.
type Envelope struct {
	Type    string             `json:"type"`
	Room    domain.RoomID      `json:"room,omitempty"`
	Name    domain.DisplayName `json:"name,omitempty"`
	IsHost  bool               `json:"is_host,omitempty"`
	ID      ConnID             `json:"id,omitempty"`
	Role    domain.Role        `json:"role,omitempty"`
	PeerID  ConnID             `json:"peer_id,omitempty"`
	To      ConnID             `json:"to,omitempty"`
	From    ConnID             `json:"from,omitempty"`
	Payload json.RawMessage    `json:"payload,omitempty"`
	Error   string             `json:"error,omitempty"`
}

func Encode(e Envelope) (Frame, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return Frame(b), nil
}

func Decode(f Frame) (Envelope, error) {
	var e Envelope
	err := json.Unmarshal(f, &e)
	return e, err
}
