package sqlserver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/akapol/tye-ledger-sync/internal/ledger"
	"github.com/akapol/tye-ledger-sync/pkg/database"
)

// SQL Server error numbers raised on unique-constraint violations.
const (
	errDuplicateKey   = 2627
	errDuplicateIndex = 2601
)

// alertPersonnelCode selects the mail template the dispatch procedure uses.
const alertPersonnelCode = "ENVTYE"

type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements ledger.Store over the accounting database's stored
// procedures.
type Store struct {
	ops
	db             *database.DB
	alertRecipient string
	logger         *zap.Logger
}

// ops carries the transactional subset so the same code serves both the
// pooled connection and an open transaction.
type ops struct {
	ex executor
}

// New creates a new ledger store
func New(db *database.DB, alertRecipient string, logger *zap.Logger) *Store {
	return &Store{
		ops:            ops{ex: db.DB},
		db:             db,
		alertRecipient: alertRecipient,
		logger:         logger,
	}
}

// InTransaction implements ledger.Store
func (s *Store) InTransaction(ctx context.Context, fn func(ledger.Ops) error) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		return fn(&ops{ex: tx})
	})
}

// NextHeaderSequence implements ledger.Ops
func (o *ops) NextHeaderSequence(ctx context.Context, account, period string) (int64, error) {
	var seq int64
	err := o.ex.QueryRowContext(ctx,
		"EXEC SP_CO_REND_MAX_CORRTH @INICIA = @INICIA, @PERIOD = @PERIOD",
		sql.Named("INICIA", account),
		sql.Named("PERIOD", period),
	).Scan(&seq)
	if err != nil {
		return 0, wrapError("next header sequence", err)
	}
	return seq, nil
}

// InsertHeader implements ledger.Ops
func (o *ops) InsertHeader(ctx context.Context, row *ledger.HeaderRow) error {
	_, err := o.ex.ExecContext(ctx,
		`EXEC SP_CO_REND_INS_CORRTH
			@INICIA = @INICIA, @PERIOD = @PERIOD, @NROMOV = @NROMOV,
			@NROSFT = NULL, @NROTYE = @NROTYE, @TIPREN = @TIPREN,
			@MONEDA = @MONEDA, @IMPORT = @IMPORT, @IMPANT = @IMPANT,
			@USRAUT = @USRAUT, @TARJET = @TARJET`,
		sql.Named("INICIA", row.Account),
		sql.Named("PERIOD", row.Period),
		sql.Named("NROMOV", row.Sequence),
		sql.Named("NROTYE", row.Number),
		sql.Named("TIPREN", row.Class),
		sql.Named("MONEDA", row.Currency),
		sql.Named("IMPORT", row.Amount),
		sql.Named("IMPANT", row.AdvanceAmount),
		sql.Named("USRAUT", row.Approver),
		sql.Named("TARJET", row.CardCode),
	)
	return wrapError("insert header", err)
}

// InsertItem implements ledger.Ops
func (o *ops) InsertItem(ctx context.Context, row *ledger.ItemRow) error {
	_, err := o.ex.ExecContext(ctx,
		`EXEC SP_CO_REND_INS_CORRTI
			@TIPREN = @TIPREN, @NROTYE = @NROTYE, @CTACTE = @CTACTE,
			@PERIOD = @PERIOD, @NROMOV = @NROMOV, @NROITM = @NROITM,
			@TIPCOM = @TIPCOM, @NROORI = @NROORI, @FCHMOV = @FCHMOV,
			@IMPORT = @IMPORT, @MONEDA = @MONEDA, @CUENTA = '',
			@CODIRL = @CODIRL, @CODIRP = @CODIRP, @CODVIN = @CODVIN,
			@JURISD = @JURISD, @NOMBRE = @NOMBRE, @NRODOC = @NRODOC,
			@OLEOLE = '', @OLETYE = @OLETYE, @ARTCOD = @ARTCOD,
			@CONCEP = @CONCEP, @OBSERV = @OBSERV, @NORECO = @NORECO,
			@PERSON = @PERSON, @REEMBO = @REEMBO`,
		sql.Named("TIPREN", row.Class),
		sql.Named("NROTYE", row.Number),
		sql.Named("CTACTE", row.Account),
		sql.Named("PERIOD", row.Period),
		sql.Named("NROMOV", row.Sequence),
		sql.Named("NROITM", row.Item),
		sql.Named("TIPCOM", row.DocSubtype),
		sql.Named("NROORI", row.OriginNumber),
		sql.Named("FCHMOV", row.Date),
		sql.Named("IMPORT", row.Amount),
		sql.Named("MONEDA", row.Currency),
		sql.Named("CODIRL", row.CostCenter),
		sql.Named("CODIRP", row.RP),
		sql.Named("CODVIN", row.LinkCode),
		sql.Named("JURISD", row.Jurisdiction),
		sql.Named("NOMBRE", row.Merchant),
		sql.Named("NRODOC", row.TaxID),
		sql.Named("OLETYE", row.ReceiptLink),
		sql.Named("ARTCOD", row.LedgerAccount),
		sql.Named("CONCEP", row.Concept),
		sql.Named("OBSERV", row.Comment),
		sql.Named("NORECO", row.Unrecognized),
		sql.Named("PERSON", row.Personal),
		sql.Named("REEMBO", row.Reimbursable),
	)
	return wrapError("insert item", err)
}

// InsertSubItem implements ledger.Ops
func (o *ops) InsertSubItem(ctx context.Context, row *ledger.SubItemRow) error {
	_, err := o.ex.ExecContext(ctx,
		`EXEC SP_CO_REND_INS_CORRTP
			@TIPREN = @TIPREN, @NROTYE = @NROTYE, @CTACTE = @CTACTE,
			@PERIOD = @PERIOD, @NROMOV = @NROMOV, @NROITM = @NROITM,
			@NROITP = @NROITP, @CODIRL = @CODIRL, @CODIRP = @CODIRP,
			@CODVIN = @CODVIN, @IMPORT = @IMPORT`,
		sql.Named("TIPREN", row.Class),
		sql.Named("NROTYE", row.Number),
		sql.Named("CTACTE", row.Account),
		sql.Named("PERIOD", row.Period),
		sql.Named("NROMOV", row.Sequence),
		sql.Named("NROITM", row.Item),
		sql.Named("NROITP", row.SubItem),
		sql.Named("CODIRL", row.CostCenter),
		sql.Named("CODIRP", row.RP),
		sql.Named("CODVIN", row.LinkCode),
		sql.Named("IMPORT", row.Amount),
	)
	return wrapError("insert sub-item", err)
}

// LinkAdvance implements ledger.Ops
func (o *ops) LinkAdvance(ctx context.Context, advanceNumber, reportNumber string) error {
	_, err := o.ex.ExecContext(ctx,
		"EXEC SP_CO_REND_UPDATE_ANTICI @NROANT = @NROANT, @NROTYE = @NROTYE",
		sql.Named("NROANT", advanceNumber),
		sql.Named("NROTYE", reportNumber),
	)
	return wrapError("link advance", err)
}

// ListPendingStatuses implements ledger.Store
func (s *Store) ListPendingStatuses(ctx context.Context) ([]*ledger.PendingStatus, error) {
	rows, err := s.ops.ex.QueryContext(ctx, "EXEC SP_CO_REND_GET_UPDATE_CORRTH")
	if err != nil {
		return nil, wrapError("list pending statuses", err)
	}
	defer rows.Close()

	var statuses []*ledger.PendingStatus
	for rows.Next() {
		var (
			status        ledger.PendingStatus
			settlementRef sql.NullString
			paymentBatch  sql.NullString
			stage         sql.NullInt64
			accountHolder sql.NullString
		)
		if err := rows.Scan(
			&status.Number,
			&status.Class,
			&settlementRef,
			&status.Amount,
			&paymentBatch,
			&stage,
			&accountHolder,
			&status.AdvanceAmount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan pending status: %w", err)
		}
		if settlementRef.Valid {
			status.SettlementRef = &settlementRef.String
		}
		if paymentBatch.Valid {
			status.PaymentBatch = &paymentBatch.String
		}
		if accountHolder.Valid {
			status.AccountHolder = &accountHolder.String
		}
		// A header never evaluated before reports a null stage.
		status.Stage = int(stage.Int64)
		statuses = append(statuses, &status)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read pending statuses: %w", err)
	}
	return statuses, nil
}

// UpdateHeaderStage implements ledger.Store
func (s *Store) UpdateHeaderStage(ctx context.Context, class int, number string, stage int) error {
	_, err := s.ops.ex.ExecContext(ctx,
		"EXEC SP_CO_REND_UPDATE_CORRTH @TIPREN = @TIPREN, @NROTYE = @NROTYE, @NOVEDA = @NOVEDA",
		sql.Named("TIPREN", class),
		sql.Named("NROTYE", number),
		sql.Named("NOVEDA", stage),
	)
	return wrapError("update header stage", err)
}

// ListPendingReceipts implements ledger.Store
func (s *Store) ListPendingReceipts(ctx context.Context) ([]*ledger.ReceiptItem, error) {
	rows, err := s.ops.ex.QueryContext(ctx, "EXEC SP_CO_REND_GET_OLEOLE")
	if err != nil {
		return nil, wrapError("list pending receipts", err)
	}
	defer rows.Close()

	var items []*ledger.ReceiptItem
	for rows.Next() {
		var item ledger.ReceiptItem
		if err := rows.Scan(
			&item.Account,
			&item.Holder,
			&item.Period,
			&item.Sequence,
			&item.Item,
			&item.Link,
			&item.Class,
			&item.Number,
		); err != nil {
			return nil, fmt.Errorf("failed to scan receipt item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read receipt items: %w", err)
	}
	return items, nil
}

// UpdateReceiptPath implements ledger.Store
func (s *Store) UpdateReceiptPath(ctx context.Context, item *ledger.ReceiptItem) error {
	_, err := s.ops.ex.ExecContext(ctx,
		`EXEC SP_CO_REND_UPDATE_OLEOLE
			@FLPATH = @FLPATH, @TIPREN = @TIPREN, @NROTYE = @NROTYE, @NROITM = @NROITM`,
		sql.Named("FLPATH", item.Path),
		sql.Named("TIPREN", item.Class),
		sql.Named("NROTYE", item.Number),
		sql.Named("NROITM", item.Item),
	)
	return wrapError("update receipt path", err)
}

// RunLedgerLoad implements ledger.Store
func (s *Store) RunLedgerLoad(ctx context.Context) error {
	_, err := s.ops.ex.ExecContext(ctx, "EXEC SP_CO_PRO_RENDICIONES_TYE")
	return wrapError("ledger load", err)
}

// GeneratePreloads implements ledger.Store
func (s *Store) GeneratePreloads(ctx context.Context) error {
	_, err := s.ops.ex.ExecContext(ctx, "EXEC SP_CO_GEN_PRECARGAS_TYE")
	return wrapError("generate preloads", err)
}

// SendOperatorAlert implements ledger.Store. Alerts go out through the
// data store's mail-dispatch operation, never directly to a user.
func (s *Store) SendOperatorAlert(ctx context.Context, subject, message string) error {
	// Single quotes would break the variable block's encoding.
	variables := fmt.Sprintf("<ERROR>|%s#<ASUNTO>|%s",
		strings.ReplaceAll(message, "'", " "), subject)

	_, err := s.ops.ex.ExecContext(ctx,
		`EXEC SP_GR_PRO_MAIL
			@CODPER = @CODPER, @DIREML = @DIREML, @DIRECC = '', @DIRCCO = '',
			@VARIABLES = @VARIABLES, @ADJUNTOS = ''`,
		sql.Named("CODPER", alertPersonnelCode),
		sql.Named("DIREML", s.alertRecipient),
		sql.Named("VARIABLES", variables),
	)
	if err != nil {
		s.logger.Error("Failed to dispatch operator alert", zap.Error(err))
		return wrapError("send operator alert", err)
	}
	return nil
}

// wrapError maps driver constraint violations onto the ledger sentinel
// and annotates everything else with the failing operation.
func wrapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) && (sqlErr.Number == errDuplicateKey || sqlErr.Number == errDuplicateIndex) {
		return fmt.Errorf("%s: %w", op, ledger.ErrConstraintViolation)
	}
	return fmt.Errorf("%s: %w", op, err)
}
