// Package selection carries the room picked in the rooms <select> between
// the rendered page and the rental handlers.
package selection

import (
	"encoding/json"
	"fmt"
	"strings"

	"roomShare/internal/apperrors"
	"roomShare/internal/models"

	"golang.org/x/exp/slices"
)

// Encode serializes room for an <option value>. Every space becomes '+',
// not only the first, and Decode does not restore them.
func Encode(room models.Room) string {
	data, _ := json.Marshal(room)

	return strings.ReplaceAll(string(data), ` `, `+`)
}

func Decode(text string) (models.Room, error) {
	var room models.Room

	if strings.TrimSpace(text) == `` {
		return room, apperrors.ErrNoSelection
	}

	if err := json.Unmarshal([]byte(text), &room); err != nil {
		return models.Room{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidSelection, err)
	}

	return room, nil
}

// Pick selects by position in a previously fetched list.
func Pick(rooms []models.Room, index int) (models.Room, error) {
	if index < 0 || index >= len(rooms) {
		return models.Room{}, fmt.Errorf("%w: index %d of %d rooms", apperrors.ErrInvalidSelection, index, len(rooms))
	}

	return rooms[index], nil
}

// Active returns the rentable rooms, keeping their order.
func Active(rooms []models.Room) []models.Room {
	active := slices.Clone(rooms)

	return slices.DeleteFunc(active, func(room models.Room) bool {
		return !room.IsActive
	})
}
