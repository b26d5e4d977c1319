package smsv2

import "github.com/Santosh-B-Vitana/smsv2-sub000/id"

// ID is the primary identifier type for queue entities.
type ID = id.ID

// Prefix identifies the entity type encoded in a TypeID.
type Prefix = id.Prefix
