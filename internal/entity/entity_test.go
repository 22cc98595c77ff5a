package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLead(t *testing.T) {
	t.Run("normalises contact and starts as new", func(t *testing.T) {
		lead, err := NewLead(LeadSourceWebsite, " Ana ", " Ana@Example.com ", "", LeadForm{
			Website: &WebsiteForm{PageURL: "https://ligue.app/planos"},
		})
		require.NoError(t, err)
		assert.Equal(t, "Ana", lead.Name)
		assert.Equal(t, "ana@example.com", lead.Email)
		assert.Equal(t, LeadStatusNew, lead.Status)
		assert.NotEmpty(t, lead.ID)
	})

	t.Run("requires email or phone", func(t *testing.T) {
		_, err := NewLead(LeadSourceWebsite, "Ana", "", "", LeadForm{
			Website: &WebsiteForm{PageURL: "https://ligue.app"},
		})
		assert.ErrorIs(t, err, ErrMissingContact)
	})

	t.Run("form variant must match source", func(t *testing.T) {
		_, err := NewLead(LeadSourceInstantForm, "Ana", "ana@example.com", "", LeadForm{
			Website: &WebsiteForm{PageURL: "https://ligue.app"},
		})
		assert.Error(t, err)
	})

	t.Run("only one variant", func(t *testing.T) {
		_, err := NewLead(LeadSourceWhatsAppOrganic, "", "", "+5511999990000", LeadForm{
			Website:  &WebsiteForm{PageURL: "https://ligue.app"},
			WhatsApp: &WhatsAppForm{FirstMessage: "oi"},
		})
		assert.Error(t, err)
	})

	t.Run("whatsapp ad needs click id", func(t *testing.T) {
		_, err := NewLead(LeadSourceWhatsAppAd, "", "", "+5511999990000", LeadForm{
			WhatsApp: &WhatsAppForm{FirstMessage: "oi"},
		})
		assert.Error(t, err)
	})
}

func TestCoupon(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	c := &Coupon{Code: "WELCOME", PlanIDs: []string{"pro"}, MaxRedemptions: 2, Redemptions: 2, ExpiresAt: &past}

	assert.True(t, c.Expired(time.Now()))
	assert.True(t, c.Exhausted())
	assert.True(t, c.AppliesTo("pro"))
	assert.False(t, c.AppliesTo("basic"))
	assert.True(t, (&Coupon{}).AppliesTo("anything"))
	assert.False(t, (&Coupon{}).Exhausted())
	assert.Equal(t, "WELCOME10", NormalizeCouponCode("  welcome10 "))
}

func TestSettingsMasked(t *testing.T) {
	s := IntegrationSettings{MetaPixelID: "123", MetaAccessToken: "EAABsecret9876", WhatsAppAccessToken: "abc"}
	m := s.Masked()

	assert.Equal(t, "123", m.MetaPixelID)
	assert.Equal(t, "****9876", m.MetaAccessToken)
	assert.Equal(t, "****", m.WhatsAppAccessToken)
	assert.Equal(t, "EAABsecret9876", s.MetaAccessToken)
}
