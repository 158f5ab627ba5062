// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers and services to distinguish between different failure
// scenarios without inspecting driver-specific errors.
package repository

import "errors"

// ErrEmailExists is returned by UserRepo.Create when the normalized email
// address is already registered.
var ErrEmailExists = errors.New("email already exists")
