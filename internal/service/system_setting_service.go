package service

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/homesite/internal/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	defaultSiteName = "Home Services"
	// EmailProviderSMTP 表示通过 SMTP 投递邮件。
	EmailProviderSMTP = "smtp"
	// EmailProviderLog 表示仅写入日志，不实际投递。
	EmailProviderLog = "log"

	redactedSecret = "********"
)

var supportedEmailProviders = []string{EmailProviderSMTP, EmailProviderLog}

// SiteSettings 描述后台可配置的站点信息。
type SiteSettings struct {
	SiteName     string               `json:"siteName"`
	Tagline      string               `json:"tagline"`
	ContactEmail string               `json:"contactEmail"`
	ContactPhone string               `json:"contactPhone"`
	Address      string               `json:"address"`
	Categories   []db.SettingCategory `json:"categories"`
	Email        db.EmailDelivery     `json:"email"`
	UpdatedAt    time.Time            `json:"updatedAt"`
}

// PublicSiteSettings 是对访客公开的设置，不包含邮件凭据。
type PublicSiteSettings struct {
	SiteName     string               `json:"siteName"`
	Tagline      string               `json:"tagline"`
	ContactEmail string               `json:"contactEmail"`
	ContactPhone string               `json:"contactPhone"`
	Address      string               `json:"address"`
	Categories   []db.SettingCategory `json:"categories"`
}

// Public 去除敏感字段。
func (s SiteSettings) Public() PublicSiteSettings {
	return PublicSiteSettings{
		SiteName:     s.SiteName,
		Tagline:      s.Tagline,
		ContactEmail: s.ContactEmail,
		ContactPhone: s.ContactPhone,
		Address:      s.Address,
		Categories:   s.Categories,
	}
}

// Redacted 隐去邮件密码，用于管理端回显。
func (s SiteSettings) Redacted() SiteSettings {
	if s.Email.Password != "" {
		s.Email.Password = redactedSecret
	}
	return s
}

// SiteSettingsInput 用于更新站点设置。
type SiteSettingsInput struct {
	SiteName     string
	Tagline      string
	ContactEmail string
	ContactPhone string
	Address      string
	Categories   []db.SettingCategory
	Email        db.EmailDelivery
}

// SystemSettingService 提供站点设置的读取与更新能力。
type SystemSettingService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewSystemSettingService 构造 SystemSettingService。
func NewSystemSettingService(gdb *gorm.DB) *SystemSettingService {
	return &SystemSettingService{db: gdb, now: time.Now}
}

// GetSettings 读取站点设置，如未设置将返回默认值。
func (s *SystemSettingService) GetSettings() (SiteSettings, error) {
	var record db.SiteSetting
	if err := s.db.First(&record, db.SiteSettingID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return defaultSiteSettings(), nil
		}
		return SiteSettings{}, fmt.Errorf("load site settings: %w", err)
	}
	return fromRecord(record), nil
}

// UpdateSettings 校验并整体覆盖站点设置；邮件密码留空时保留原值。
func (s *SystemSettingService) UpdateSettings(input SiteSettingsInput) (SiteSettings, error) {
	current, err := s.GetSettings()
	if err != nil {
		return SiteSettings{}, err
	}

	sanitized := SiteSettings{
		SiteName:     strings.TrimSpace(input.SiteName),
		Tagline:      strings.TrimSpace(input.Tagline),
		ContactEmail: strings.ToLower(strings.TrimSpace(input.ContactEmail)),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		Address:      strings.TrimSpace(input.Address),
		UpdatedAt:    s.now().UTC(),
	}
	if sanitized.SiteName == "" {
		sanitized.SiteName = defaultSiteName
	}
	if sanitized.ContactEmail != "" {
		if _, err := mail.ParseAddress(sanitized.ContactEmail); err != nil {
			return SiteSettings{}, newValidationError("contactEmail", "is not a valid address")
		}
	}

	categories, err := normalizeCategories(input.Categories)
	if err != nil {
		return SiteSettings{}, err
	}
	sanitized.Categories = categories

	email, err := normalizeEmailDelivery(input.Email, current.Email)
	if err != nil {
		return SiteSettings{}, err
	}
	sanitized.Email = email

	record := db.SiteSetting{
		ID:           db.SiteSettingID,
		SiteName:     sanitized.SiteName,
		Tagline:      sanitized.Tagline,
		ContactEmail: sanitized.ContactEmail,
		ContactPhone: sanitized.ContactPhone,
		Address:      sanitized.Address,
		Categories:   db.SettingCategories(sanitized.Categories),
		Email:        sanitized.Email,
		UpdatedAt:    sanitized.UpdatedAt,
	}
	if err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&record).Error; err != nil {
		return SiteSettings{}, fmt.Errorf("update site settings: %w", err)
	}

	return sanitized, nil
}

func normalizeCategories(input []db.SettingCategory) ([]db.SettingCategory, error) {
	out := make([]db.SettingCategory, 0, len(input))
	seen := make(map[string]struct{}, len(input))
	for _, category := range input {
		name := strings.TrimSpace(category.Name)
		if name == "" {
			return nil, newValidationError("categories", "category name is required")
		}
		key := strings.ToLower(name)
		if _, ok := seen[key]; ok {
			return nil, newValidationError("categories", fmt.Sprintf("duplicate category %q", name))
		}
		seen[key] = struct{}{}

		categorySlug := slug.Make(strings.TrimSpace(category.Slug))
		if categorySlug == "" {
			categorySlug = slug.Make(name)
		}
		out = append(out, db.SettingCategory{
			Name:        name,
			Slug:        categorySlug,
			Description: strings.TrimSpace(category.Description),
		})
	}
	return out, nil
}

func normalizeEmailDelivery(input, current db.EmailDelivery) (db.EmailDelivery, error) {
	email := db.EmailDelivery{
		Enabled:     input.Enabled,
		Provider:    normalizeEmailProvider(input.Provider),
		FromAddress: strings.ToLower(strings.TrimSpace(input.FromAddress)),
		ToAddress:   strings.ToLower(strings.TrimSpace(input.ToAddress)),
		SMTPHost:    strings.TrimSpace(input.SMTPHost),
		SMTPPort:    input.SMTPPort,
		Username:    strings.TrimSpace(input.Username),
		Password:    input.Password,
	}
	if email.Provider == "" {
		return db.EmailDelivery{}, newValidationError("email.provider", "must be one of: "+strings.Join(supportedEmailProviders, ", "))
	}
	if email.Password == "" || email.Password == redactedSecret {
		email.Password = current.Password
	}
	if email.SMTPPort == 0 {
		email.SMTPPort = 587
	}
	if email.SMTPPort < 0 || email.SMTPPort > 65535 {
		return db.EmailDelivery{}, newValidationError("email.smtpPort", "must be between 1 and 65535")
	}

	if !email.Enabled {
		return email, nil
	}
	if email.FromAddress == "" {
		return db.EmailDelivery{}, requiredError("email.fromAddress")
	}
	if email.ToAddress == "" {
		return db.EmailDelivery{}, requiredError("email.toAddress")
	}
	for field, address := range map[string]string{"email.fromAddress": email.FromAddress, "email.toAddress": email.ToAddress} {
		if _, err := mail.ParseAddress(address); err != nil {
			return db.EmailDelivery{}, newValidationError(field, "is not a valid address")
		}
	}
	if email.Provider == EmailProviderSMTP && email.SMTPHost == "" {
		return db.EmailDelivery{}, requiredError("email.smtpHost")
	}
	return email, nil
}

func normalizeEmailProvider(provider string) string {
	trimmed := strings.ToLower(strings.TrimSpace(provider))
	if trimmed == "" {
		return EmailProviderSMTP
	}
	for _, candidate := range supportedEmailProviders {
		if candidate == trimmed {
			return candidate
		}
	}
	return ""
}

func defaultSiteSettings() SiteSettings {
	categories := make([]db.SettingCategory, 0, len(db.PostCategories))
	for _, name := range db.PostCategories {
		categories = append(categories, db.SettingCategory{Name: name, Slug: slug.Make(name)})
	}
	return SiteSettings{
		SiteName:   defaultSiteName,
		Categories: categories,
		Email:      db.EmailDelivery{Provider: EmailProviderSMTP, SMTPPort: 587},
	}
}

func fromRecord(record db.SiteSetting) SiteSettings {
	categories := []db.SettingCategory(record.Categories)
	if categories == nil {
		categories = []db.SettingCategory{}
	}
	return SiteSettings{
		SiteName:     record.SiteName,
		Tagline:      record.Tagline,
		ContactEmail: record.ContactEmail,
		ContactPhone: record.ContactPhone,
		Address:      record.Address,
		Categories:   categories,
		Email:        record.Email,
		UpdatedAt:    record.UpdatedAt,
	}
}
