package service

import (
	"context"
	"fmt"
	"time"

	"github.com/ialvarenga/financial-management-sub001/internal/models"
)

const appVersion = "1.0.0"

// ExportBackup produces the full versioned backup document.
func (s *Service) ExportBackup(ctx context.Context) (*models.BackupDocument, error) {
	data, err := s.repo.ExportAll(ctx)
	if err != nil {
		return nil, err
	}
	doc := &models.BackupDocument{
		Version:    models.BackupVersion,
		AppVersion: appVersion,
		ExportDate: time.Now().UnixMilli(),
		Data:       *data,
	}
	s.log.Infof("Exported backup: %d accounts, %d cards, %d bills, %d items, %d transactions, %d recurrences, %d transfers",
		len(data.Accounts), len(data.CreditCards), len(data.CreditCardBills), len(data.CreditCardItems),
		len(data.Transactions), len(data.Recurrences), len(data.Transfers))
	return doc, nil
}

// ImportBackup replaces all persisted data with the document's contents.
// The apply is all-or-nothing: a failure anywhere leaves the previous data
// untouched.
func (s *Service) ImportBackup(ctx context.Context, doc *models.BackupDocument) error {
	if doc.Version < 1 || doc.Version > models.BackupVersion {
		return fmt.Errorf("unsupported backup version %d", doc.Version)
	}
	if err := s.repo.ImportAll(ctx, &doc.Data); err != nil {
		return err
	}
	s.log.Infof("Imported backup exported at %s (app %s)",
		time.UnixMilli(doc.ExportDate).Format(time.RFC3339), doc.AppVersion)
	return nil
}
