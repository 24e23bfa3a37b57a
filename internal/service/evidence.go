package service

import (
	"os"
	"path/filepath"

	"github.com/spec-kit/tecnico-console/internal/domain"
	apperrors "github.com/spec-kit/tecnico-console/pkg/util/errorutil"
)

// OpenEvidenceFiles opens at most domain.MaxEvidenceFiles local files for a
// resolution. The returned close function is always safe to call.
func OpenEvidenceFiles(paths []string) ([]domain.EvidenceFile, func(), error) {
	if len(paths) > domain.MaxEvidenceFiles {
		paths = paths[:domain.MaxEvidenceFiles]
	}
	var opened []*os.File
	closeAll := func() {
		for _, f := range opened {
			_ = f.Close()
		}
	}
	files := make([]domain.EvidenceFile, 0, len(paths))
	for _, p := range paths {
		f, err := os.Open(p)
		if err != nil {
			return nil, closeAll, apperrors.NewValidationError("cannot open evidence file", map[string]any{"file": p})
		}
		opened = append(opened, f)
		files = append(files, domain.EvidenceFile{Name: filepath.Base(p), Content: f})
	}
	return files, closeAll, nil
}
