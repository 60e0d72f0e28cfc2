package model

import "time"

// 会费状态
const (
	DuesStatusPaid   = "paid"
	DuesStatusUnpaid = "unpaid"
)

// 付款方式
const (
	PaymentMethodCash        = "cash"
	PaymentMethodMobileMoney = "mobile_money"
	PaymentMethodBank        = "bank"
	PaymentMethodOther       = "other"
)

// IsValidDuesStatus 校验会费状态
func IsValidDuesStatus(s string) bool {
	return s == DuesStatusPaid || s == DuesStatusUnpaid
}

// IsValidPaymentMethod 校验付款方式
func IsValidPaymentMethod(m string) bool {
	switch m {
	case PaymentMethodCash, PaymentMethodMobileMoney, PaymentMethodBank, PaymentMethodOther:
		return true
	}
	return false
}

// Dues 月度会费 — 对应 dues，每个成员每月一条
type Dues struct {
	DuesID        string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"dues_id"`
	MemberID      string     `gorm:"type:uuid;not null"                             json:"member_id"`
	OwnerID       string     `gorm:"type:uuid;not null"                             json:"owner_id"`
	Month         string     `gorm:"type:char(7);not null"                          json:"month"`
	Amount        int64      `gorm:"not null"                                       json:"amount"`
	Status        string     `gorm:"type:varchar(10);not null;default:'unpaid'"     json:"status"`
	PaymentMethod *string    `gorm:"type:varchar(20)"                               json:"payment_method"`
	PaidAt        *time.Time `json:"paid_at"`
	PaidBy        *string    `gorm:"type:uuid"                                      json:"paid_by"`
	Notes         string     `gorm:"type:text;not null;default:''"                  json:"notes"`
	VersionedModel

	// 关联
	Member *Member `gorm:"foreignKey:MemberID;references:MemberID" json:"member,omitempty"`
}

// TableName 指定表名
func (Dues) TableName() string { return "dues" }

// MarkPaid 标记为已缴
func (d *Dues) MarkPaid(method string, at time.Time, by string) {
	d.Status = DuesStatusPaid
	d.PaymentMethod = &method
	d.PaidAt = &at
	if by != "" {
		d.PaidBy = &by
	} else {
		d.PaidBy = nil
	}
}

// ClearPayment 回到未缴状态并清空付款信息
func (d *Dues) ClearPayment() {
	d.Status = DuesStatusUnpaid
	d.PaymentMethod = nil
	d.PaidAt = nil
	d.PaidBy = nil
}

// IsOverdue 未缴且所属月份早于当前月份
func (d *Dues) IsOverdue(currentMonth string) bool {
	return d.Status == DuesStatusUnpaid && d.Month < currentMonth
}
