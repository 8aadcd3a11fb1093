package mapper_test

import (
	"testing"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/mapper"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func strPtr(s string) *string { return &s }

func TestClientRequestRoundTrip(t *testing.T) {
	monthly := decimal.RequireFromString("450.50")
	months := 12
	req := &domain.ClientRequest{
		CompanyName:      "Rossi S.r.l.",
		ContactPerson:    "Mario Rossi",
		Email:            "mario@rossi.it",
		MonthlyValue:     &monthly,
		Status:           domain.DealStatusInProgress,
		ContractStart:    strPtr("2025-01-01"),
		ContractEnd:      strPtr("2025-12-31"),
		EndDate:          strPtr(""),
		ContractMonths:   &months,
		RemindersEnabled: true,
	}

	var client domain.Client
	require.NoError(t, mapper.ApplyClientRequest(&client, req))
	assert.Nil(t, client.EndDate)
	assert.False(t, client.SpotValue.Valid)
	require.NotNil(t, client.ContractEnd)
	assert.Equal(t, period.Civil(2025, 12, 31), time.Time(*client.ContractEnd))

	dto := mapper.ToClientDTO(&client)
	assert.Equal(t, "Rossi S.r.l.", dto.CompanyName)
	require.NotNil(t, dto.ContractEnd)
	assert.Equal(t, "2025-12-31", *dto.ContractEnd)
	assert.Nil(t, dto.EndDate)
	require.NotNil(t, dto.MonthlyValue)
	assert.True(t, monthly.Equal(*dto.MonthlyValue))
	assert.Nil(t, dto.SpotValue)
	assert.True(t, dto.RemindersEnabled)
}

func TestApplyClientRequest_InvalidDate(t *testing.T) {
	var client domain.Client
	err := mapper.ApplyClientRequest(&client, &domain.ClientRequest{ContractEnd: strPtr("31/12/2025")})
	assert.Error(t, err)
}

func TestToDealDTO(t *testing.T) {
	client := &domain.Client{BaseModel: domain.BaseModel{ID: uuid.New()}, CompanyName: "Acme"}
	deal := &domain.Deal{}
	require.NoError(t, mapper.ApplyDealRequest(deal, &domain.DealRequest{
		ClientID:       client.ID,
		Subject:        "Nuovo sito",
		EstimatedValue: decimal.NewFromInt(3000),
		OpenedOn:       "2025-02-14",
		Status:         domain.DealStatusWon,
	}))
	deal.Client = client

	dto := mapper.ToDealDTO(deal)
	assert.Equal(t, "2025-02-14", dto.OpenedOn)
	assert.Nil(t, dto.NextContactDue)
	require.NotNil(t, dto.Client)
	assert.Equal(t, "Acme", dto.Client.CompanyName)
}

func TestToNotificationDTO(t *testing.T) {
	today := period.Civil(2025, 3, 1)
	n := &domain.Notification{
		BaseModel:   domain.BaseModel{ID: uuid.New()},
		Type:        domain.NotificationReminder30,
		NotifyOn:    datatypes.Date(period.Civil(2025, 3, 1)),
		ContractEnd: datatypes.Date(period.Civil(2025, 3, 31)),
		Client:      &domain.Client{CompanyName: "Acme"},
	}

	dto := mapper.ToNotificationDTO(n, today)
	assert.Equal(t, 30, dto.DaysRemaining)
	assert.Equal(t, domain.NotificationPending, dto.Status)
	assert.Equal(t, "2025-03-31", dto.ContractEnd)
	assert.Equal(t, "Acme", dto.CompanyName)

	later := mapper.ToNotificationDTO(n, period.Civil(2025, 4, 3))
	assert.Equal(t, -3, later.DaysRemaining)

	assert.NotNil(t, mapper.ToNotificationDTOs(nil, today))
}

func TestApplyProjectRequest(t *testing.T) {
	req := &domain.ProjectRequest{
		Name:       "Sito",
		ClientID:   uuid.New(),
		Status:     domain.ProjectStatusPlanning,
		Priority:   domain.PriorityHigh,
		StartDate:  "2025-03-01",
		PlannedEnd: "2025-02-01",
	}
	var project domain.Project
	assert.Error(t, mapper.ApplyProjectRequest(&project, req))

	req.PlannedEnd = "2025-06-30"
	require.NoError(t, mapper.ApplyProjectRequest(&project, req))

	project.Assignments = []domain.ProjectCollaborator{{TokensAssigned: 10, TokensUsed: 4}}
	dto := mapper.ToProjectDTO(&project)
	assert.Equal(t, "2025-03-01", dto.StartDate)
	require.Len(t, dto.Collaborators, 1)
	assert.Equal(t, 6, dto.Collaborators[0].TokensRemaining)
	assert.Nil(t, dto.Collaborators[0].Collaborator)
}
