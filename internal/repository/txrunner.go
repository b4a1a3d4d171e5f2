package repository

import "gorm.io/gorm"

// TxRunner wraps gorm transactions so services can run multi-row money
// operations all-or-nothing without holding the *gorm.DB themselves.
type TxRunner struct {
	db *gorm.DB
}

func NewTxRunner(db *gorm.DB) *TxRunner {
	return &TxRunner{db: db}
}

func (r *TxRunner) InTx(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}
