package store

import "errors"

var (
	ErrNotFound  = errors.New("task not found")
	ErrAmbiguous = errors.New("task id prefix is ambiguous")
)
