package main

import (
	"time"

	"careshift/internal/domain"
)

// Dev seed rows used when running without a database.

func devCaregiver() domain.Caregiver {
	return domain.Caregiver{
		CaregiverID: "00000000-0000-0000-0000-000000000101",
		Name:        "Dev Caregiver",
		Email:       "dev.caregiver@careshift.local",
		Role:        "caregiver",
		CreatedAt:   time.Now().UTC(),
	}
}

func devRecipient() domain.Recipient {
	return domain.Recipient{
		RecipientID:  "00000000-0000-0000-0000-000000000201",
		FullName:     "Dev Recipient",
		AgeGroup:     "adult",
		SupportLevel: "Medium",
		BaselineMood: "Neutral",
		InCare:       true,
		CreatedAt:    time.Now().UTC(),
	}
}
