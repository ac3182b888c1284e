// Package domain contains entity without logic, just meta-data
package domain

import (
	"errors"
	"strings"
)

const (
	MaxNameLen   = 36
	MaxRoomIDLen = 64
)

var (
	ErrNameTooLong   = errors.New("display name too long")
	ErrNameEmpty     = errors.New("display name empty")
	ErrRoomIDEmpty   = errors.New("room id empty")
	ErrRoomIDTooLong = errors.New("room id too long")
)

// DisplayName is trusted as given by the identity provider; only its shape is checked.
type DisplayName string

func NewDisplayName(raw string) (DisplayName, error) {
	name := strings.TrimSpace(raw)
	if len(name) == 0 {
		return "", ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return "", ErrNameTooLong
	}
	return DisplayName(name), nil
}
