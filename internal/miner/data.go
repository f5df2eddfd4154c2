package miner

import (
	"fmt"
	"strings"
)

// ModelID identifies an uploaded submission: the hub repo it lives in,
// the commit that contains it and the competition it belongs to. Its
// compressed string form is what gets committed on chain.
type ModelID struct {
	Namespace     string
	Commit        string
	CompetitionID string
}

const compressedSep = ":"

// ToCompressedStr renders the model id in its on-chain form.
func (m ModelID) ToCompressedStr() string {
	return strings.Join([]string{m.Namespace, m.Commit, m.CompetitionID}, compressedSep)
}

// ModelIDFromCompressedStr parses the on-chain form back into a ModelID.
// The namespace may itself contain the separator (org/repo ids do not,
// but the commit and competition id are the last two fields regardless).
func ModelIDFromCompressedStr(s string) (ModelID, error) {
	parts := strings.Split(s, compressedSep)
	if len(parts) < 3 {
		return ModelID{}, fmt.Errorf("invalid compressed model id: %q", s)
	}

	id := ModelID{
		Namespace:     strings.Join(parts[:len(parts)-2], compressedSep),
		Commit:        parts[len(parts)-2],
		CompetitionID: parts[len(parts)-1],
	}
	if id.Namespace == "" || id.Commit == "" || id.CompetitionID == "" {
		return ModelID{}, fmt.Errorf("invalid compressed model id: %q", s)
	}
	return id, nil
}

func (m ModelID) String() string {
	return m.ToCompressedStr()
}
