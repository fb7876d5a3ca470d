package models

// BackupDocument is the versioned export/import envelope. Import is
// all-or-nothing at the document level.
type BackupDocument struct {
	Version    int        `json:"version"`
	AppVersion string     `json:"app_version"`
	ExportDate int64      `json:"export_date"`
	Data       BackupData `json:"data"`
}

// BackupData holds every persisted collection.
type BackupData struct {
	Accounts        []Account        `json:"accounts"`
	CreditCards     []CreditCard     `json:"credit_cards"`
	Transactions    []Transaction    `json:"transactions"`
	Recurrences     []Recurrence     `json:"recurrences"`
	Transfers       []Transfer       `json:"transfers"`
	CreditCardBills []CreditCardBill `json:"credit_card_bills"`
	CreditCardItems []CreditCardItem `json:"credit_card_items"`
}

// BackupVersion is the current export document version.
const BackupVersion = 1
