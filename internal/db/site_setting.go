package db

import (
	"database/sql/driver"
	"time"
)

// SiteSettingID 是全站唯一设置记录的主键。
const SiteSettingID = 1

// SettingCategory 描述站点导航中展示的分类。
type SettingCategory struct {
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

// SettingCategories 以 JSON 文本形式存储分类列表。
type SettingCategories []SettingCategory

// Value implements driver.Valuer.
func (c SettingCategories) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return marshalJSONText(c)
}

// Scan implements sql.Scanner.
func (c *SettingCategories) Scan(value interface{}) error {
	return scanJSONText(value, c)
}

// EmailDelivery 保存邮件投递配置。
type EmailDelivery struct {
	Enabled     bool   `json:"enabled"`
	Provider    string `json:"provider"`
	FromAddress string `json:"fromAddress"`
	ToAddress   string `json:"toAddress"`
	SMTPHost    string `json:"smtpHost"`
	SMTPPort    int    `json:"smtpPort"`
	Username    string `json:"username"`
	Password    string `json:"password"`
}

// Value implements driver.Valuer.
func (e EmailDelivery) Value() (driver.Value, error) {
	return marshalJSONText(e)
}

// Scan implements sql.Scanner.
func (e *EmailDelivery) Scan(value interface{}) error {
	return scanJSONText(value, e)
}

// SiteSetting 是进程级唯一的站点配置文档。
type SiteSetting struct {
	ID           uint              `gorm:"primaryKey"`
	SiteName     string            `gorm:"size:120"`
	Tagline      string            `gorm:"size:255"`
	ContactEmail string            `gorm:"size:255"`
	ContactPhone string            `gorm:"size:64"`
	Address      string            `gorm:"size:255"`
	Categories   SettingCategories `gorm:"type:text"`
	Email        EmailDelivery     `gorm:"type:text"`
	UpdatedAt    time.Time
}

// TableName 自定义表名以保持命名一致。
func (SiteSetting) TableName() string {
	return "site_settings"
}
