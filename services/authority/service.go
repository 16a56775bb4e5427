package authority

import (
	"github.com/pkg/errors"
	"github.com/yash2595/DAM-AI-GUARDIAN-sub001/services/storage"
)

// Service serves a Directory backed by the storage service.
// The directory is created when the service is opened,
// after the storage backend is available.
type Service struct {
	diag Diagnostic
	dir  *Directory

	StorageService interface {
		Store(namespace string) storage.Interface
	}
}

func NewService(d Diagnostic) *Service {
	return &Service{diag: d}
}

func (s *Service) Open() error {
	if s.StorageService == nil {
		return errors.New("authority service requires a storage service")
	}
	s.dir = NewDirectory(s.StorageService.Store(Namespace), s.diag)
	return nil
}

func (s *Service) Close() error {
	return nil
}

func (s *Service) List() []string {
	return s.dir.List()
}

func (s *Service) Save(emails []string) SaveResult {
	return s.dir.Save(emails)
}

func (s *Service) Resolve(explicit []string) []string {
	return s.dir.Resolve(explicit)
}
