// Package excel mirrors entity state into spreadsheet rows. The mirror
// is one-way and best-effort: rows are derived from the store and may
// transiently diverge; failures are logged and reported, never
// propagated to the caller.
package excel

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	caissemodels "caisseflow/internal/api/caisse/models"
	ordermodels "caisseflow/internal/api/order/models"
	paymodels "caisseflow/internal/api/payment/models"
	"caisseflow/internal/logger"
)

const (
	ordersSheet   = "Commandes"
	paymentsSheet = "Paiements"
	caissesSheet  = "Caisses"
)

// ErrorReporter receives mirror failures for operator visibility.
type ErrorReporter interface {
	ReportError(ctx context.Context, source string, cause error)
}

// Mirror writes one workbook per entity family under dir. Access is
// serialized: excelize files are not safe for concurrent writes.
type Mirror struct {
	mu       sync.Mutex
	dir      string
	reporter ErrorReporter
	log      *logrus.Entry
}

// NewMirror creates the mirror, ensuring the target directory exists.
func NewMirror(dir string, reporter ErrorReporter) (*Mirror, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Mirror{
		dir:      dir,
		reporter: reporter,
		log:      logger.WithModule("excel"),
	}, nil
}

// SyncOrder upserts the row for one order.
func (m *Mirror) SyncOrder(ctx context.Context, order *ordermodels.Order) {
	headers := []string{"ID", "Demandeur", "Statut", "Articles", "Montant payé", "Reste à payer", "Créée le"}
	row := []interface{}{
		order.IDCommande,
		order.RequesterName,
		order.Statut,
		len(order.Articles),
		order.AmountPaid,
		order.RemainingAmount,
		formatDate(order.CreatedAt),
	}
	m.upsertRow(ctx, "commandes.xlsx", ordersSheet, headers, order.IDCommande, row)
}

// SyncPaymentRequest upserts the row for one payment request.
func (m *Mirror) SyncPaymentRequest(ctx context.Context, request *paymodels.PaymentRequest) {
	headers := []string{"ID", "Titre", "Bénéficiaire", "Montant", "Devise", "Statut", "Payé", "Créée le"}
	row := []interface{}{
		request.IDPaiement,
		request.Title,
		request.Beneficiary,
		request.Amount,
		request.Currency,
		request.Statut,
		request.PaymentDone,
		formatDate(request.CreatedAt),
	}
	m.upsertRow(ctx, "paiements.xlsx", paymentsSheet, headers, request.IDPaiement, row)
}

// SyncCaisse upserts the balances row for one caisse.
func (m *Mirror) SyncCaisse(ctx context.Context, caisse *caissemodels.Caisse) {
	headers := []string{"Canal", "Type", "XOF", "USD", "EUR", "Transactions"}
	row := []interface{}{
		caisse.ChannelID,
		caisse.Type,
		caisse.Balance("XOF"),
		caisse.Balance("USD"),
		caisse.Balance("EUR"),
		len(caisse.Transactions),
	}
	m.upsertRow(ctx, "caisses.xlsx", caissesSheet, headers, caisse.ChannelID, row)
}

// upsertRow finds the row whose first cell matches key and rewrites it,
// appending a new row when absent. All failures end up in the reporter.
func (m *Mirror) upsertRow(ctx context.Context, filename, sheet string, headers []string, key string, values []interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()

	path := filepath.Join(m.dir, filename)
	if err := m.writeRow(path, sheet, headers, key, values); err != nil {
		m.log.WithError(err).Errorf("📊 [EXCEL] sync of %s failed", key)
		if m.reporter != nil {
			m.reporter.ReportError(ctx, "Synchronisation Excel ("+key+")", err)
		}
	}
}

func (m *Mirror) writeRow(path, sheet string, headers []string, key string, values []interface{}) error {
	f, err := openOrCreate(path, sheet, headers)
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}

	target := len(rows) + 1 // append after the last row
	for i, row := range rows {
		if i == 0 {
			continue // header
		}
		if len(row) > 0 && row[0] == key {
			target = i + 1
			break
		}
	}

	for col, value := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, target)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, value); err != nil {
			return err
		}
	}
	return f.SaveAs(path)
}

func openOrCreate(path, sheet string, headers []string) (*excelize.File, error) {
	if _, err := os.Stat(path); err == nil {
		f, err := excelize.OpenFile(path)
		if err != nil {
			return nil, err
		}
		if idx, err := f.GetSheetIndex(sheet); err != nil || idx == -1 {
			if _, err := f.NewSheet(sheet); err != nil {
				return nil, err
			}
			if err := writeHeaders(f, sheet, headers); err != nil {
				return nil, err
			}
		}
		return f, nil
	}

	f := excelize.NewFile()
	index, err := f.NewSheet(sheet)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	if err := writeHeaders(f, sheet, headers); err != nil {
		return nil, err
	}
	return f, nil
}

func writeHeaders(f *excelize.File, sheet string, headers []string) error {
	for col, header := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	return nil
}

func formatDate(unixMilli int64) string {
	if unixMilli == 0 {
		return ""
	}
	return time.UnixMilli(unixMilli).Format("02/01/2006 15:04")
}
