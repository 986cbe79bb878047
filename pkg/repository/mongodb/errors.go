package mongodb

import "github.com/secmon-lab/studyhall/pkg/domain/interfaces"

// ErrNotFound is the backend's not-found sentinel
var ErrNotFound = interfaces.ErrNotFound
