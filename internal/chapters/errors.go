package chapters

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"avsser/internal/services"
)

// StructuralKind names the way a component failed to be a simple path.
type StructuralKind string

const (
	StructuralCycle     StructuralKind = "cycle"
	StructuralBranch    StructuralKind = "branch"
	StructuralDuplicate StructuralKind = "duplicate_uid"
)

// StructuralError reports a component of the linkage graph that cannot be
// ordered. Every member is skipped.
type StructuralError struct {
	Kind    StructuralKind
	Members []string
	Detail  string
}

func (e *StructuralError) Error() string {
	names := make([]string, len(e.Members))
	for i, member := range e.Members {
		names[i] = filepath.Base(member)
	}
	switch e.Kind {
	case StructuralCycle:
		if len(names) > 0 {
			names = append(names, names[0])
		}
		return fmt.Sprintf("chapter linkage cycle: %s", strings.Join(names, " -> "))
	default:
		msg := fmt.Sprintf("chapter linkage %s among %s", strings.ReplaceAll(string(e.Kind), "_", " "), strings.Join(names, ", "))
		if e.Detail != "" {
			msg += ": " + e.Detail
		}
		return msg
	}
}

func (e *StructuralError) Unwrap() error {
	return services.ErrStructural
}

// Direction is the side of a file a reference was declared on.
type Direction string

const (
	DirectionNext     Direction = "next"
	DirectionPrevious Direction = "previous"
	// DirectionChapter marks a chapter of an ordered edition that plays
	// from another segment.
	DirectionChapter Direction = "chapter"
)

// DanglingReference is a warning: From declares a neighbour UID that no file
// in the batch carries.
type DanglingReference struct {
	From      string
	Direction Direction
	UID       uuid.UUID
}

func (d DanglingReference) Error() string {
	if d.Direction == DirectionChapter {
		return fmt.Sprintf("%s plays a chapter from segment %s, which no file in the batch or its directory carries", filepath.Base(d.From), hexUID(d.UID))
	}
	return fmt.Sprintf("%s declares %s segment %s which is not in this batch", filepath.Base(d.From), d.Direction, hexUID(d.UID))
}

func (d DanglingReference) Unwrap() error {
	return services.ErrDanglingReference
}

// hexUID prints a UID the way mkvmerge does.
func hexUID(uid uuid.UUID) string {
	return strings.ReplaceAll(uid.String(), "-", "")
}
