package app

import (
	"errors"

	"github.com/dkeye/Chat/internal/config"
	"github.com/dkeye/Chat/internal/core"
)

type BackpressureAction int

const (
	NoAction BackpressureAction = iota
	KickMember
	DropFrame
)

// Policy decides what happens to a session that could not take a frame.
type Policy interface {
	OnBackPressure(member core.Session, err error) BackpressureAction
}

// DropPolicy swallows the failure; the session keeps its place.
type DropPolicy struct{}

func (DropPolicy) OnBackPressure(core.Session, error) BackpressureAction {
	return DropFrame
}

// KickPolicy closes sessions whose send queue is full.
type KickPolicy struct{}

func (KickPolicy) OnBackPressure(_ core.Session, err error) BackpressureAction {
	if errors.Is(err, core.ErrBackpressure) {
		return KickMember
	}
	return NoAction
}

func PolicyFromConfig(name string) Policy {
	if name == config.PolicyKick {
		return KickPolicy{}
	}
	return DropPolicy{}
}
