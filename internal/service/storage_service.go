package service

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/google/uuid"

	"github.com/HarishKumar-005/Phantom-Crowd-sub000/internal/platform/storage"
)

// StorageService gère les photos jointes aux signalements: URLs présignées
// d'upload et de lecture. Le cœur ne voit jamais les octets de la photo,
// uniquement l'URL opaque stockée sur le signalement.
type StorageService interface {
	Initialize(ctx context.Context) error
	// GeneratePhotoUploadURL retourne la clé objet et l'URL PUT présignée.
	GeneratePhotoUploadURL(ctx context.Context, fileName string) (objectKey, url string, err error)
	GeneratePhotoDownloadURL(ctx context.Context, objectKey string) (string, error)
}

type storageService struct {
	storage    storage.Storage
	bucketName string
}

func NewStorageService(s storage.Storage, bucketName string) StorageService {
	return &storageService{
		storage:    s,
		bucketName: bucketName,
	}
}

func (s *storageService) Initialize(ctx context.Context) error {
	exists, err := s.storage.BucketExists(ctx, s.bucketName)
	if err != nil {
		return err
	}
	if !exists {
		return s.storage.MakeBucket(ctx, s.bucketName)
	}
	return nil
}

func (s *storageService) GeneratePhotoUploadURL(ctx context.Context, fileName string) (string, string, error) {
	// Clé unique pour éviter toute collision entre reporters anonymes
	objectKey := uuid.New().String() + path.Ext(fileName)

	url, err := s.storage.GetPresignedUploadURL(ctx, s.bucketName, objectKey, 15*time.Minute)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate upload URL: %w", err)
	}
	return objectKey, url, nil
}

func (s *storageService) GeneratePhotoDownloadURL(ctx context.Context, objectKey string) (string, error) {
	url, err := s.storage.GetPresignedDownloadURL(ctx, s.bucketName, objectKey, time.Hour)
	if err != nil {
		return "", fmt.Errorf("failed to generate download URL: %w", err)
	}
	return url, nil
}
