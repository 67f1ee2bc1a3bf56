package rower

import (
	"errors"
)

var (
	ErrInvalidCfg = errors.New("client: invalid options")
	ErrResolve    = errors.New("client: could not resolve host")
	ErrNoAddress  = errors.New("client: host has no usable address")
	ErrConnect    = errors.New("client: could not connect")
	ErrSend       = errors.New("client: could not send selector")
	ErrReceive    = errors.New("client: error receiving payload")

	ErrDownloadFile = errors.New("client: could not write downloaded file")

	ErrCacheSnapshot = errors.New("cache: invalid snapshot")

	ErrNavigationInProgress = errors.New("navigator: a navigation is already in progress")
	ErrNavigatorClosed      = errors.New("navigator: closed")
)

const (
	StageUnknown FetchStage = iota
	StageResolve
	StageConnect
	StageSend
	StageReceive
	StageFile
)

// FetchStage tells which step of a request failed.
type FetchStage uint8

func (stage FetchStage) String() string {
	switch stage {
	case StageResolve:
		return "resolve"
	case StageConnect:
		return "connect"
	case StageSend:
		return "send"
	case StageReceive:
		return "receive"
	case StageFile:
		return "file"
	default:
		return "unknown"
	}
}

// StageOf returns the stage a Client error comes from.
func StageOf(err error) FetchStage {
	switch {
	case errors.Is(err, ErrResolve), errors.Is(err, ErrNoAddress):
		return StageResolve
	case errors.Is(err, ErrConnect):
		return StageConnect
	case errors.Is(err, ErrSend):
		return StageSend
	case errors.Is(err, ErrReceive):
		return StageReceive
	case errors.Is(err, ErrDownloadFile):
		return StageFile
	default:
		return StageUnknown
	}
}
