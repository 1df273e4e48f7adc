package models

import "errors"

var (
	ErrNoSource      = errors.New("aucune source de données (csv ou dsn)")
	ErrMissingColumn = errors.New("colonne manquante")
	ErrInvalidTable  = errors.New("table invalide")
)
