package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/eqtlab/ledger-syncer/ledger"
)

// Header is the CSV header of the exported ledger.
const Header = "transaction_id,account_id,amount,iso_currency_code,primary_category,detailed_category,confidence_level,date,datetime,authorized_date,authorized_datetime,name,merchant_name,payment_channel,payment_processor,address,city,region,postal_code,country,pending"

// numFields is the column count of Header.
const numFields = 21

// WriteRows writes the header followed by rows.
func WriteRows(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(strings.Split(Header, ",")); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}

	for i, row := range rows {
		if err := cw.Write(MarshalRow(row)); err != nil {
			return fmt.Errorf("writing row %d: %w", i+2, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// MarshalRow converts a Row to CSV fields in Header order. Absent values are empty.
func MarshalRow(r Row) []string {
	row := make([]string, 0, numFields)
	row = append(row,
		r.TransactionID,
		r.Account,
		r.Amount.String(),
		r.ISOCurrencyCode,
		r.PrimaryCategory,
		r.DetailedCategory,
		r.ConfidenceLevel,
		formatDate(&r.Date),
		formatDatetime(r.Datetime),
		formatDate(r.AuthorizedDate),
		formatDatetime(r.AuthorizedDatetime),
		r.Name,
		r.MerchantName,
		r.PaymentChannel,
		r.PaymentProcessor,
		r.Address,
		r.City,
		r.Region,
		r.PostalCode,
		r.Country,
		strconv.FormatBool(r.Pending),
	)
	return row
}

func formatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(ledger.DateLayout)
}

func formatDatetime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
