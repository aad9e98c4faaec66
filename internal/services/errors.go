// Package services defines the business logic for conversation turns, the
// catalog surface, and analytics projections. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

var (
	// ErrEmptyMessage is returned when a turn request carries an empty
	// user message.
	ErrEmptyMessage = errors.New("message is empty")

	// ErrTooLong is returned when a user message exceeds the maximum
	// configured length limit.
	ErrTooLong = errors.New("message too long")

	// ErrOracleUnavailable indicates the completion backend could not be
	// reached or returned a transport-level failure.
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrOracleContract indicates the completion backend kept returning
	// payloads that violate the structured-output contract, even after a
	// retry.
	ErrOracleContract = errors.New("oracle returned malformed output")

	// ErrSessionNotFound indicates that no conversation has been logged
	// under the requested session.
	ErrSessionNotFound = errors.New("session not found")
)
