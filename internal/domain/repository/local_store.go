package repository

import (
	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/domain/entity"
)

// LocalStore est le stockage durable on-device: la collection principale des
// signalements et la file d'attente d'upload, deux collections indépendantes
// indexées par ID. Les lectures tolèrent un store absent ou corrompu en
// retournant une liste vide, jamais une erreur.
type LocalStore interface {
	// SaveAnchor fait un upsert par ID (écrase si présent, jamais de doublon).
	SaveAnchor(report *entity.Report) error
	LoadAnchors() ([]entity.Report, error)
	SavePendingAnchor(report *entity.Report) error
	LoadPendingAnchors() ([]entity.Report, error)
	RemovePendingAnchor(id string) error
}
