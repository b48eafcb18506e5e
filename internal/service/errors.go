package service

import "errors"

var (
	// ErrAlreadyRunning means start was asked for an identity whose process
	// is still alive. Starting twice is a caller bug, not a retry case.
	ErrAlreadyRunning = errors.New("service already running")
	// ErrStartTimeout means the pid record never materialized within the
	// start window. The process may still come up later; see Check.
	ErrStartTimeout = errors.New("pid record did not appear in time")
	// ErrStopTimeout means the process outlived the stop timeout. The record
	// is deliberately kept so the leaked process stays visible in status.
	ErrStopTimeout = errors.New("process did not exit within timeout")
	// ErrUnknownService rejects identity tokens outside the roster.
	ErrUnknownService = errors.New("unknown service")
)
