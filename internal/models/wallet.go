package models

import (
	"time"

	"github.com/google/uuid"
)

// WalletTransactionType represents the type of wallet ledger entry.
type WalletTransactionType string

const (
	TransactionTypeDeposit   WalletTransactionType = "DEPOSIT"
	TransactionTypeBulkDebit WalletTransactionType = "BULK_DEBIT"
	TransactionTypeRefund    WalletTransactionType = "REFUND"
)

// Wallet is a client's spendable point balance within a tenant. It is the
// one piece of mutable shared state in the bulk pipeline; every change
// goes through a locked transaction with a ledger entry.
type Wallet struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID  string    `json:"tenantId" gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_client_wallet"`
	ClientID  string    `json:"clientId" gorm:"type:varchar(255);not null;uniqueIndex:idx_tenant_client_wallet"`
	Balance   int       `json:"balance" gorm:"not null;default:0"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// WalletTransaction is one ledger entry. BalanceBefore/After make the
// ledger auditable without replaying it.
type WalletTransaction struct {
	ID            uuid.UUID             `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID      string                `json:"tenantId" gorm:"type:varchar(255);not null;index"`
	WalletID      uuid.UUID             `json:"walletId" gorm:"type:uuid;not null;index"`
	Type          WalletTransactionType `json:"type" gorm:"type:varchar(20);not null"`
	Amount        int                   `json:"amount" gorm:"not null"`
	BalanceBefore int                   `json:"balanceBefore" gorm:"not null"`
	BalanceAfter  int                   `json:"balanceAfter" gorm:"not null"`
	BatchID       *uuid.UUID            `json:"batchId,omitempty" gorm:"type:uuid;index"`
	Description   *string               `json:"description,omitempty"`
	CreatedAt     time.Time             `json:"createdAt"`
}
