package app

import (
	"errors"
	"fmt"

	"github.com/dkeye/Attend/internal/core"
)

var ErrHostTaken = errors.New("room already has a host")

// HostPolicy decides what happens when a room that already has a host
// receives another host claim.
type HostPolicy string

const (
	// HostReplace overwrites the host reference without telling the displaced host.
	HostReplace HostPolicy = "replace"
	// HostEvict overwrites and evicts the displaced host with a notification.
	HostEvict HostPolicy = "evict"
	// HostReject refuses the second claim.
	HostReject HostPolicy = "reject"
)

func ParseHostPolicy(s string) (HostPolicy, error) {
	switch p := HostPolicy(s); p {
	case HostReplace, HostEvict, HostReject:
		return p, nil
	case "":
		return HostEvict, nil
	}
	return "", fmt.Errorf("unknown host policy %q", s)
}

type BackpressureAction int

const (
	DropMessage BackpressureAction = iota
	KickMember
)

// Policy reacts to a destination whose send queue is full.
type Policy interface {
	OnBackPressure(id core.ConnID) BackpressureAction
}

type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.ConnID) BackpressureAction { return DropMessage }

type KickPolicy struct{}

func (KickPolicy) OnBackPressure(core.ConnID) BackpressureAction { return KickMember }

func ParseBackpressure(s string) (Policy, error) {
	switch s {
	case "", "drop":
		return DropPolicy{}, nil
	case "kick":
		return KickPolicy{}, nil
	}
	return nil, fmt.Errorf("unknown backpressure policy %q", s)
}
