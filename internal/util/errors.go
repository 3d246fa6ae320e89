package util

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailRegistered    = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrCourseNotFound     = errors.New("course not found")
	ErrModuleNotFound     = errors.New("module not found")
	ErrVideoNotFound      = errors.New("video not found in module")
	ErrNotEnrolled        = errors.New("student is not enrolled in this course")
	ErrAlreadyEnrolled    = errors.New("student is already enrolled in this course")

	ErrUnsupportedVideoFormat = errors.New("unsupported video format")
	ErrModuleHasVideos        = errors.New("module has playable videos and cannot be completed directly")
)
