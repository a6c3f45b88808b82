package normalize

import (
	"strings"

	"resellerdash/models"
)

var customerStatusAliases = map[string]models.CustomerStatus{
	"active":   models.CustomerStatusActive,
	"new":      models.CustomerStatusNew,
	"blocked":  models.CustomerStatusBlocked,
	"inactive": models.CustomerStatusInactive,
	"disable":  models.CustomerStatusInactive,
	"disabled": models.CustomerStatusInactive,
}

// leadStatusByCode is the CRM crm_status table. Codes not listed map to New.
var leadStatusByCode = map[int64]models.LeadStatus{
	1: models.LeadStatusNew,        // new enquiry
	2: models.LeadStatusInProgress, // qualification
	3: models.LeadStatusInProgress, // activation
	4: models.LeadStatusWon,
	5: models.LeadStatusLost,
}

// CustomerStatus folds CRM status text into the four customer buckets.
func CustomerStatus(raw string) models.CustomerStatus {
	return customerStatusAliases[strings.ToLower(strings.TrimSpace(raw))]
}

// LeadStatusFromCode maps a numeric CRM status code.
func LeadStatusFromCode(code int64) models.LeadStatus {
	if status, ok := leadStatusByCode[code]; ok {
		return status
	}
	return models.LeadStatusNew
}

// LeadStatus prefers the numeric code and only looks at free text without one.
func LeadStatus(code *int64, text string) models.LeadStatus {
	if code != nil {
		return LeadStatusFromCode(*code)
	}
	s := strings.ToLower(strings.TrimSpace(text))
	switch {
	case strings.Contains(s, "new"):
		return models.LeadStatusNew
	case strings.Contains(s, "qualification"),
		strings.Contains(s, "activation"),
		strings.Contains(s, "progress"):
		return models.LeadStatusInProgress
	case strings.Contains(s, "won"):
		return models.LeadStatusWon
	case strings.Contains(s, "lost"):
		return models.LeadStatusLost
	}
	return models.LeadStatusNew
}
