package entity

import (
	"errors"
	"fmt"
)

// LeadForm carries the captured form data. Exactly one variant is set and it
// must match the lead source.
type LeadForm struct {
	InstantForm *InstantForm  `json:"instant_form,omitempty"`
	Website     *WebsiteForm  `json:"website,omitempty"`
	WhatsApp    *WhatsAppForm `json:"whatsapp,omitempty"`
}

// InstantForm is a Meta lead-ads form submission.
type InstantForm struct {
	FormID    string            `json:"form_id"`
	LeadgenID string            `json:"leadgen_id"`
	Answers   map[string]string `json:"answers,omitempty"`
}

type WebsiteForm struct {
	PageURL     string `json:"page_url"`
	UTMSource   string `json:"utm_source,omitempty"`
	UTMMedium   string `json:"utm_medium,omitempty"`
	UTMCampaign string `json:"utm_campaign,omitempty"`
	Message     string `json:"message,omitempty"`
}

type WhatsAppForm struct {
	FirstMessage string `json:"first_message,omitempty"`
	// CtwaClid is the click id of a click-to-WhatsApp ad.
	CtwaClid string `json:"ctwa_clid,omitempty"`
}

func (f LeadForm) variants() int {
	n := 0
	if f.InstantForm != nil {
		n++
	}
	if f.Website != nil {
		n++
	}
	if f.WhatsApp != nil {
		n++
	}
	return n
}

func (f LeadForm) Validate(source LeadSource) error {
	if f.variants() != 1 {
		return errors.New("form must carry exactly one variant")
	}

	switch source {
	case LeadSourceInstantForm:
		if f.InstantForm == nil {
			return fmt.Errorf("source %s requires instant_form data", source)
		}
		if f.InstantForm.FormID == "" || f.InstantForm.LeadgenID == "" {
			return errors.New("instant_form requires form_id and leadgen_id")
		}
	case LeadSourceWebsite:
		if f.Website == nil {
			return fmt.Errorf("source %s requires website data", source)
		}
		if f.Website.PageURL == "" {
			return errors.New("website form requires page_url")
		}
	case LeadSourceWhatsAppAd, LeadSourceWhatsAppOrganic:
		if f.WhatsApp == nil {
			return fmt.Errorf("source %s requires whatsapp data", source)
		}
		if source == LeadSourceWhatsAppAd && f.WhatsApp.CtwaClid == "" {
			return errors.New("whatsapp_ad form requires ctwa_clid")
		}
	default:
		return fmt.Errorf("unknown lead source %q", source)
	}
	return nil
}
