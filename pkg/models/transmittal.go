package models

import (
	"time"

	"gorm.io/gorm"
)

// Transmittal is a formal, numbered package of document revisions issued to
// an external recipient and tracked through acknowledgement, response and
// closure. Items snapshot specific revisions; later revisions of the same
// document are not tracked.
type Transmittal struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Code   string            `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Status TransmittalStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"`

	IssuedTo string `gorm:"type:varchar(255);not null" json:"issuedTo"`

	IssuedByID     *uint      `json:"issuedById,omitempty"`
	IssuedAt       *time.Time `json:"issuedAt,omitempty"`
	AcknowledgedAt *time.Time `json:"acknowledgedAt,omitempty"`

	ResponseAt       *time.Time `json:"responseAt,omitempty"`
	ResponseComments *string    `gorm:"type:text" json:"responseComments,omitempty"`

	CreatedByID uint `gorm:"not null" json:"createdById"`
	UpdatedByID uint `gorm:"not null" json:"updatedById"`

	Items []TransmittalItem `json:"items,omitempty"`
}

// TableName specifies the table name.
func (Transmittal) TableName() string {
	return "transmittals"
}

// GetLastTransmittal returns the most recently created transmittal, used to
// derive the next sequential code. Must run inside the creating transaction
// with a row lock so concurrent creators cannot read the same last code.
func GetLastTransmittal(db *gorm.DB) (*Transmittal, error) {
	var tr Transmittal
	err := db.Order("id DESC").First(&tr).Error
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

// TransmittalItem is one transmitted revision with its purpose and, after the
// recipient responds, the recipient's verdict.
type TransmittalItem struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	TransmittalID uint         `gorm:"not null;index" json:"transmittalId"`
	Transmittal   *Transmittal `json:"-"`

	DocumentRevisionID uint              `gorm:"not null;index" json:"documentRevisionId"`
	DocumentRevision   *DocumentRevision `json:"documentRevision,omitempty"`

	// PurposeCode states why the revision is transmitted (for approval, for
	// information, for construction, ...). Free-form code agreed with the
	// recipient.
	PurposeCode string `gorm:"type:varchar(20);not null" json:"purposeCode"`

	ClientStatus   *ClientStatus `gorm:"type:varchar(30)" json:"clientStatus,omitempty"`
	ClientComments *string       `gorm:"type:text" json:"clientComments,omitempty"`
}

// TableName specifies the table name.
func (TransmittalItem) TableName() string {
	return "transmittal_items"
}
