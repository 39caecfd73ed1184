package workflow

import "strings"

// EditedNote is recorded when an item edit carries a status.
const EditedNote = "Item telah diubah"

// FallbackNote returns note unchanged, or "Item telah di-<status>" when note is blank.
func FallbackNote(status Status, note string) string {
	if strings.TrimSpace(note) != "" {
		return note
	}
	return "Item telah di-" + string(status)
}
