package mapper

import (
	"fmt"
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"github.com/gestionale-crm/crm-api/internal/period"
	"github.com/gestionale-crm/crm-api/internal/reminder"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ToClientDTO converts Client to ClientDTO
func ToClientDTO(client *domain.Client) domain.ClientDTO {
	return domain.ClientDTO{
		ID:               client.ID,
		CompanyName:      client.CompanyName,
		ContactPerson:    client.ContactPerson,
		Contacts:         client.Contacts,
		ProposalSentOn:   formatDate(client.ProposalSentOn),
		Email:            client.Email,
		ProposalText:     client.ProposalText,
		ProposalType:     client.ProposalType,
		Frequency:        client.Frequency,
		MonthlyValue:     fromNullDecimal(client.MonthlyValue),
		SpotValue:        fromNullDecimal(client.SpotValue),
		Status:           client.Status,
		EndDate:          formatDate(client.EndDate),
		GestationDays:    client.GestationDays,
		Duration:         client.Duration,
		WorkEnd:          client.WorkEnd,
		Extension:        client.Extension,
		ContractStart:    formatDate(client.ContractStart),
		ContractEnd:      formatDate(client.ContractEnd),
		ContractMonths:   client.ContractMonths,
		AutoRenewal:      client.AutoRenewal,
		RemindersEnabled: client.RemindersEnabled,
		UserID:           client.UserID,
		CreatedAt:        client.CreatedAt,
		UpdatedAt:        client.UpdatedAt,
	}
}

// ApplyClientRequest copies the request fields onto client
func ApplyClientRequest(client *domain.Client, req *domain.ClientRequest) error {
	var err error
	if client.ProposalSentOn, err = parseDate(req.ProposalSentOn); err != nil {
		return err
	}
	if client.EndDate, err = parseDate(req.EndDate); err != nil {
		return err
	}
	if client.ContractStart, err = parseDate(req.ContractStart); err != nil {
		return err
	}
	if client.ContractEnd, err = parseDate(req.ContractEnd); err != nil {
		return err
	}

	client.CompanyName = req.CompanyName
	client.ContactPerson = req.ContactPerson
	client.Contacts = req.Contacts
	client.Email = req.Email
	client.ProposalText = req.ProposalText
	client.ProposalType = req.ProposalType
	client.Frequency = req.Frequency
	client.MonthlyValue = toNullDecimal(req.MonthlyValue)
	client.SpotValue = toNullDecimal(req.SpotValue)
	client.Status = req.Status
	client.GestationDays = req.GestationDays
	client.Duration = req.Duration
	client.WorkEnd = req.WorkEnd
	client.Extension = req.Extension
	client.ContractMonths = req.ContractMonths
	client.AutoRenewal = req.AutoRenewal
	client.RemindersEnabled = req.RemindersEnabled
	return nil
}

// ToClientSummaryDTO returns nil when the client was not preloaded
func ToClientSummaryDTO(client *domain.Client) *domain.ClientSummaryDTO {
	if client == nil {
		return nil
	}
	return &domain.ClientSummaryDTO{ID: client.ID, CompanyName: client.CompanyName}
}

// ToDealDTO converts Deal to DealDTO
func ToDealDTO(deal *domain.Deal) domain.DealDTO {
	return domain.DealDTO{
		ID:             deal.ID,
		ClientID:       deal.ClientID,
		Subject:        deal.Subject,
		EstimatedValue: deal.EstimatedValue,
		OpenedOn:       period.DayKey(deal.OpenedOn.UTC()),
		Status:         deal.Status,
		NextContactDue: formatDate(deal.NextContactDue),
		Notes:          deal.Notes,
		UserID:         deal.UserID,
		CreatedAt:      deal.CreatedAt,
		UpdatedAt:      deal.UpdatedAt,
		Client:         ToClientSummaryDTO(deal.Client),
	}
}

// ApplyDealRequest copies the request fields onto deal
func ApplyDealRequest(deal *domain.Deal, req *domain.DealRequest) error {
	opened, err := period.ParseDate(req.OpenedOn)
	if err != nil {
		return err
	}
	if deal.NextContactDue, err = parseDate(req.NextContactDue); err != nil {
		return err
	}

	deal.ClientID = req.ClientID
	deal.Subject = req.Subject
	deal.EstimatedValue = req.EstimatedValue
	deal.OpenedOn = opened
	deal.Status = req.Status
	deal.Notes = req.Notes
	return nil
}

// ToActivityDTO converts Activity to ActivityDTO
func ToActivityDTO(activity *domain.Activity) domain.ActivityDTO {
	return domain.ActivityDTO{
		ID:         activity.ID,
		Type:       activity.Type,
		OccurredAt: activity.OccurredAt,
		Outcome:    activity.Outcome,
		ClientID:   activity.ClientID,
		DealID:     activity.DealID,
		Notes:      activity.Notes,
		UserID:     activity.UserID,
		CreatedAt:  activity.CreatedAt,
		Client:     ToClientSummaryDTO(activity.Client),
	}
}

func ApplyActivityRequest(activity *domain.Activity, req *domain.ActivityRequest) {
	activity.Type = req.Type
	activity.OccurredAt = req.OccurredAt.UTC()
	activity.Outcome = req.Outcome
	activity.ClientID = req.ClientID
	activity.DealID = req.DealID
	activity.Notes = req.Notes
}

// ToNotificationDTO converts Notification to NotificationDTO. Days remaining
// and status are derived from today and never stored.
func ToNotificationDTO(notification *domain.Notification, today time.Time) domain.NotificationDTO {
	contractEnd := time.Time(notification.ContractEnd)
	dto := domain.NotificationDTO{
		ID:            notification.ID,
		ClientID:      notification.ClientID,
		Type:          notification.Type,
		NotifyOn:      period.DayKey(time.Time(notification.NotifyOn)),
		ContractEnd:   period.DayKey(contractEnd),
		Message:       notification.Message,
		DaysRemaining: reminder.DaysRemaining(contractEnd, today),
		Status:        reminder.StatusOf(notification, today),
		Read:          notification.Read,
		Delivered:     notification.Delivered,
		UserID:        notification.UserID,
		CreatedAt:     notification.CreatedAt,
		UpdatedAt:     notification.UpdatedAt,
	}
	if notification.Client != nil {
		dto.CompanyName = notification.Client.CompanyName
	}
	return dto
}

// ToNotificationDTOs converts a slice, never returning nil
func ToNotificationDTOs(notifications []domain.Notification, today time.Time) []domain.NotificationDTO {
	dtos := make([]domain.NotificationDTO, len(notifications))
	for i := range notifications {
		dtos[i] = ToNotificationDTO(&notifications[i], today)
	}
	return dtos
}

// ToProjectDTO converts Project to ProjectDTO including its assignments
func ToProjectDTO(project *domain.Project) domain.ProjectDTO {
	dto := domain.ProjectDTO{
		ID:            project.ID,
		Name:          project.Name,
		Description:   project.Description,
		ClientID:      project.ClientID,
		Status:        project.Status,
		Priority:      project.Priority,
		StartDate:     period.DayKey(time.Time(project.StartDate)),
		PlannedEnd:    period.DayKey(time.Time(project.PlannedEnd)),
		ActualEnd:     formatDate(project.ActualEnd),
		BudgetPlanned: fromNullDecimal(project.BudgetPlanned),
		BudgetUsed:    fromNullDecimal(project.BudgetUsed),
		Notes:         project.Notes,
		UserID:        project.UserID,
		CreatedAt:     project.CreatedAt,
		UpdatedAt:     project.UpdatedAt,
		Client:        ToClientSummaryDTO(project.Client),
		Collaborators: make([]domain.ProjectCollaboratorDTO, len(project.Assignments)),
	}
	for i := range project.Assignments {
		dto.Collaborators[i] = ToProjectCollaboratorDTO(&project.Assignments[i])
	}
	return dto
}

func ApplyProjectRequest(project *domain.Project, req *domain.ProjectRequest) error {
	start, err := period.ParseDate(req.StartDate)
	if err != nil {
		return err
	}
	plannedEnd, err := period.ParseDate(req.PlannedEnd)
	if err != nil {
		return err
	}
	if plannedEnd.Before(start) {
		return fmt.Errorf("data_fine_prevista %s is before data_inizio %s", req.PlannedEnd, req.StartDate)
	}
	if project.ActualEnd, err = parseDate(req.ActualEnd); err != nil {
		return err
	}

	project.Name = req.Name
	project.Description = req.Description
	project.ClientID = req.ClientID
	project.Status = req.Status
	project.Priority = req.Priority
	project.StartDate = datatypes.Date(start)
	project.PlannedEnd = datatypes.Date(plannedEnd)
	project.BudgetPlanned = toNullDecimal(req.BudgetPlanned)
	project.BudgetUsed = toNullDecimal(req.BudgetUsed)
	project.Notes = req.Notes
	return nil
}

// ToCollaboratorDTO converts Collaborator to CollaboratorDTO
func ToCollaboratorDTO(collaborator *domain.Collaborator) domain.CollaboratorDTO {
	return domain.CollaboratorDTO{
		ID:              collaborator.ID,
		FirstName:       collaborator.FirstName,
		LastName:        collaborator.LastName,
		Email:           collaborator.Email,
		Phone:           collaborator.Phone,
		Role:            collaborator.Role,
		Compensation:    collaborator.Compensation,
		RatePerToken:    fromNullDecimal(collaborator.RatePerToken),
		FixedFee:        fromNullDecimal(collaborator.FixedFee),
		TokensAvailable: collaborator.TokensAvailable,
		UserID:          collaborator.UserID,
		CreatedAt:       collaborator.CreatedAt,
		UpdatedAt:       collaborator.UpdatedAt,
	}
}

func ApplyCollaboratorRequest(collaborator *domain.Collaborator, req *domain.CollaboratorRequest) {
	collaborator.FirstName = req.FirstName
	collaborator.LastName = req.LastName
	collaborator.Email = req.Email
	collaborator.Phone = req.Phone
	collaborator.Role = req.Role
	collaborator.Compensation = req.Compensation
	collaborator.RatePerToken = toNullDecimal(req.RatePerToken)
	collaborator.FixedFee = toNullDecimal(req.FixedFee)
	collaborator.TokensAvailable = req.TokensAvailable
}

// ToProjectCollaboratorDTO converts an assignment, with the collaborator when preloaded
func ToProjectCollaboratorDTO(assignment *domain.ProjectCollaborator) domain.ProjectCollaboratorDTO {
	dto := domain.ProjectCollaboratorDTO{
		ID:              assignment.ID,
		ProjectID:       assignment.ProjectID,
		CollaboratorID:  assignment.CollaboratorID,
		ProjectRole:     assignment.ProjectRole,
		TokensAssigned:  assignment.TokensAssigned,
		TokensUsed:      assignment.TokensUsed,
		TokensRemaining: assignment.TokensRemaining(),
		AssignedAt:      assignment.AssignedAt,
		Notes:           assignment.Notes,
	}
	if assignment.Collaborator != nil {
		collaborator := ToCollaboratorDTO(assignment.Collaborator)
		dto.Collaborator = &collaborator
	}
	return dto
}

// ToUserDTO converts User to UserDTO
func ToUserDTO(user *domain.User) domain.UserDTO {
	return domain.UserDTO{
		ID:        user.ID,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Approved:  user.Approved,
		CreatedAt: user.CreatedAt,
		LastLogin: user.LastLogin,
	}
}

// FormatError creates a formatted error message
func FormatError(entity, operation string, err error) error {
	return fmt.Errorf("failed to %s %s: %w", operation, entity, err)
}

func formatDate(d *datatypes.Date) *string {
	if d == nil {
		return nil
	}
	t := time.Time(*d)
	if t.IsZero() {
		return nil
	}
	s := period.DayKey(t)
	return &s
}

// parseDate treats nil and empty strings as no date
func parseDate(s *string) (*datatypes.Date, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := period.ParseDate(*s)
	if err != nil {
		return nil, err
	}
	d := datatypes.Date(t)
	return &d, nil
}

func fromNullDecimal(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	d := v.Decimal
	return &d
}

func toNullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *v, Valid: true}
}
