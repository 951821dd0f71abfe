package models

import "github.com/google/uuid"

// assignID gives a row its primary key before insert so every dialect sees the same id.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
