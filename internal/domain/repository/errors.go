package repository

import "errors"

// Errores sentinel compartidos por todos los adapters.
// Los adapters concretos (postgrest, pg, gotrue, storage) mapean sus
// errores nativos a estos antes de devolverlos.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")
)
