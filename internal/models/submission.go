package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"submissions-service/internal/products"
)

// SubmissionStatus represents the lifecycle of a committed campaign order.
type SubmissionStatus string

const (
	StatusPending    SubmissionStatus = "PENDING"
	StatusInProgress SubmissionStatus = "IN_PROGRESS"
	StatusCompleted  SubmissionStatus = "COMPLETED"
	StatusCancelled  SubmissionStatus = "CANCELLED"
)

// JSON type for PostgreSQL JSONB
type JSON map[string]interface{}

func (j JSON) Value() (driver.Value, error) {
	return json.Marshal(j)
}

func (j *JSON) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSON)
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return nil
	}
	return json.Unmarshal(bytes, j)
}

// CampaignOrder is one committed campaign order, created from one
// spreadsheet row. The raw row payload is kept as JSONB so operators can
// always see exactly what the client uploaded.
type CampaignOrder struct {
	ID               uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID         string               `json:"tenantId" gorm:"not null;index;uniqueIndex:idx_tenant_submission_number"`
	ClientID         string               `json:"clientId" gorm:"not null;index"`
	SubmissionNumber string               `json:"submissionNumber" gorm:"not null;uniqueIndex:idx_tenant_submission_number"`
	ProductType      products.ProductType `json:"productType" gorm:"not null;index"`
	SourceSheet      string               `json:"sourceSheet"`
	SourceRow        int                  `json:"sourceRow"`
	Payload          JSON                 `json:"payload" gorm:"type:jsonb"`
	UnitPrice        int                  `json:"unitPrice" gorm:"not null"`
	PointCost        int                  `json:"pointCost" gorm:"not null"`
	Status           SubmissionStatus     `json:"status" gorm:"not null;default:'PENDING'"`
	BatchID          uuid.UUID            `json:"batchId" gorm:"type:uuid;not null;index"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
	DeletedAt        *gorm.DeletedAt      `json:"deletedAt,omitempty" gorm:"index"`
}

// ProductPrice is the live per-unit point price of a product for a
// tenant. Absence means the product cannot be submitted yet.
type ProductPrice struct {
	ID          uuid.UUID            `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	TenantID    string               `json:"tenantId" gorm:"not null;uniqueIndex:idx_tenant_product_price"`
	ProductType products.ProductType `json:"productType" gorm:"not null;uniqueIndex:idx_tenant_product_price"`
	UnitPrice   int                  `json:"unitPrice" gorm:"not null"`
	IsActive    bool                 `json:"isActive" gorm:"default:true"`
	CreatedAt   time.Time            `json:"createdAt"`
	UpdatedAt   time.Time            `json:"updatedAt"`
}
