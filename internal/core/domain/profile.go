package domain

import "encoding/json"

// ProfileData is the upstream profile document. It is passed through
// untouched; filtering semantics belong to the provider.
type ProfileData = json.RawMessage
