package service

import "errors"

var (
	// Ошибки бизнес-логики для обработки в handlers
	ErrCategoryNotFound = errors.New("category not found")
	ErrTagNotFound      = errors.New("tag not found")
	ErrAlreadyExists    = errors.New("already exists")
	ErrNoFieldsToUpdate = errors.New("no fields to update")
)
