package storage

import "fmt"

// BuildStorageKey derives the object-store key for a file node. The key is
// minted once at creation and never recomputed: renames and moves change
// only metadata, the blob stays where it is.
func BuildStorageKey(ownerID, nodeID string) string {
	return fmt.Sprintf("user_%s/%s", ownerID, nodeID)
}
