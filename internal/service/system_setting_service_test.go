package service

import (
	"errors"
	"testing"

	"github.com/homesite/internal/db"
)

func TestSystemSettingServiceDefaults(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemSettingService(gdb)

	settings, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("get settings failed: %v", err)
	}
	if settings.SiteName != defaultSiteName {
		t.Fatalf("expected default site name, got %q", settings.SiteName)
	}
	if len(settings.Categories) != len(db.PostCategories) {
		t.Fatalf("expected default categories, got %d", len(settings.Categories))
	}
	if settings.Categories[1].Slug != "cleaning-tips" {
		t.Fatalf("unexpected default slug %q", settings.Categories[1].Slug)
	}
	if settings.Email.Provider != EmailProviderSMTP || settings.Email.SMTPPort != 587 {
		t.Fatalf("unexpected email defaults %#v", settings.Email)
	}
}

func TestSystemSettingServiceUpdateUpserts(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemSettingService(gdb)

	input := SiteSettingsInput{
		SiteName:     "  Sparkle Home  ",
		Tagline:      "We clean",
		ContactEmail: "Hello@Sparkle.example",
		Categories: []db.SettingCategory{
			{Name: "Deep Cleaning", Description: "floors"},
			{Name: "Windows", Slug: "Glass Work"},
		},
		Email: db.EmailDelivery{
			Enabled:     true,
			FromAddress: "noreply@sparkle.example",
			ToAddress:   "owner@sparkle.example",
			SMTPHost:    "smtp.sparkle.example",
			Password:    "secret",
		},
	}
	saved, err := svc.UpdateSettings(input)
	if err != nil {
		t.Fatalf("update settings: %v", err)
	}
	if saved.SiteName != "Sparkle Home" || saved.ContactEmail != "hello@sparkle.example" {
		t.Fatalf("unexpected sanitized settings %#v", saved)
	}
	if saved.Categories[0].Slug != "deep-cleaning" || saved.Categories[1].Slug != "glass-work" {
		t.Fatalf("unexpected category slugs %#v", saved.Categories)
	}
	firstUpdate := saved.UpdatedAt

	input.Tagline = "We clean better"
	input.Email.Password = ""
	saved, err = svc.UpdateSettings(input)
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if saved.Email.Password != "secret" {
		t.Fatalf("blank password should keep the stored one")
	}
	if saved.UpdatedAt.Before(firstUpdate) {
		t.Fatalf("updatedAt should be refreshed")
	}

	var count int64
	gdb.Model(&db.SiteSetting{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected single settings row, got %d", count)
	}

	loaded, err := svc.GetSettings()
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.Tagline != "We clean better" || loaded.Email.SMTPHost != "smtp.sparkle.example" {
		t.Fatalf("unexpected reloaded settings %#v", loaded)
	}
	if loaded.Redacted().Email.Password == "secret" {
		t.Fatalf("redacted view must hide password")
	}
	if public := loaded.Public(); public.SiteName != "Sparkle Home" {
		t.Fatalf("unexpected public view %#v", public)
	}
}

func TestSystemSettingServiceValidation(t *testing.T) {
	gdb := setupServiceTestDB(t)
	svc := NewSystemSettingService(gdb)

	tests := []struct {
		name  string
		input SiteSettingsInput
		field string
	}{
		{
			name:  "duplicate category",
			input: SiteSettingsInput{Categories: []db.SettingCategory{{Name: "Guides"}, {Name: "guides"}}},
			field: "categories",
		},
		{
			name:  "blank category",
			input: SiteSettingsInput{Categories: []db.SettingCategory{{Name: " "}}},
			field: "categories",
		},
		{
			name:  "bad contact email",
			input: SiteSettingsInput{ContactEmail: "nope"},
			field: "contactEmail",
		},
		{
			name:  "unknown provider",
			input: SiteSettingsInput{Email: db.EmailDelivery{Provider: "pigeon"}},
			field: "email.provider",
		},
		{
			name:  "enabled without smtp host",
			input: SiteSettingsInput{Email: db.EmailDelivery{Enabled: true, FromAddress: "a@b.co", ToAddress: "c@d.co"}},
			field: "email.smtpHost",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSettings(tt.input)
			var vErr *ValidationError
			if !errors.As(err, &vErr) || vErr.Field != tt.field {
				t.Fatalf("expected validation error on %s, got %v", tt.field, err)
			}
		})
	}
}
