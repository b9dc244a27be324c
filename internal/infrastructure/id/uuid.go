package id

import "github.com/google/uuid"

// UUIDGenerator yields random version 4 UUIDs.
type UUIDGenerator struct{}

func NewUUIDGenerator() UUIDGenerator { return UUIDGenerator{} }

func (UUIDGenerator) NewID() string { return uuid.NewString() }
