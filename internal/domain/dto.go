package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the wire format of date-only fields
const DateLayout = "2006-01-02"

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// PaginatedResponse wraps one page of a list
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// ClientSummaryDTO is the client reference embedded in deals, activities and projects
type ClientSummaryDTO struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"nome_azienda"`
}

type ClientDTO struct {
	ID               uuid.UUID         `json:"id"`
	CompanyName      string            `json:"nome_azienda"`
	ContactPerson    string            `json:"figura_preposta"`
	Contacts         string            `json:"contatti"`
	ProposalSentOn   *string           `json:"data_invio_proposta,omitempty"`
	Email            string            `json:"indirizzo_mail"`
	ProposalText     string            `json:"proposta_presentata,omitempty"`
	ProposalType     *ProposalType     `json:"tipologia_proposta,omitempty"`
	Frequency        *BillingFrequency `json:"frequenza,omitempty"`
	MonthlyValue     *decimal.Decimal  `json:"valore_mensile,omitempty"`
	SpotValue        *decimal.Decimal  `json:"valore_spot,omitempty"`
	Status           DealStatus        `json:"stato_trattativa"`
	EndDate          *string           `json:"data_fine,omitempty"`
	GestationDays    *int              `json:"giorni_gestazione,omitempty"`
	Duration         string            `json:"durata,omitempty"`
	WorkEnd          string            `json:"fine_lavori,omitempty"`
	Extension        string            `json:"estensione,omitempty"`
	ContractStart    *string           `json:"data_inizio_contratto,omitempty"`
	ContractEnd      *string           `json:"data_scadenza_contratto,omitempty"`
	ContractMonths   *int              `json:"durata_contratto_mesi,omitempty"`
	AutoRenewal      bool              `json:"rinnovo_automatico"`
	RemindersEnabled bool              `json:"notifiche_attive"`
	UserID           uuid.UUID         `json:"user_id"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ClientRequest is the body of client create and update calls
type ClientRequest struct {
	CompanyName      string            `json:"nome_azienda" validate:"required,max=200"`
	ContactPerson    string            `json:"figura_preposta" validate:"max=200"`
	Contacts         string            `json:"contatti"`
	ProposalSentOn   *string           `json:"data_invio_proposta" validate:"omitempty,datetime=2006-01-02"`
	Email            string            `json:"indirizzo_mail" validate:"omitempty,email,max=255"`
	ProposalText     string            `json:"proposta_presentata"`
	ProposalType     *ProposalType     `json:"tipologia_proposta" validate:"omitempty,oneof=advertising mail_marketing social_media nuovo_sito restyling_sito adv_lead_generation_b2b adv_mma adv_mma_landing_page adv_mma_sito all_inclusive linkedin amazon"`
	Frequency        *BillingFrequency `json:"frequenza" validate:"omitempty,oneof=una_tantum mensile trimestrale semestrale annuale"`
	MonthlyValue     *decimal.Decimal  `json:"valore_mensile"`
	SpotValue        *decimal.Decimal  `json:"valore_spot"`
	Status           DealStatus        `json:"stato_trattativa" validate:"required,oneof=in_corso vinta persa sospesa"`
	EndDate          *string           `json:"data_fine" validate:"omitempty,datetime=2006-01-02"`
	GestationDays    *int              `json:"giorni_gestazione" validate:"omitempty,gte=0"`
	Duration         string            `json:"durata" validate:"max=100"`
	WorkEnd          string            `json:"fine_lavori" validate:"max=100"`
	Extension        string            `json:"estensione" validate:"max=100"`
	ContractStart    *string           `json:"data_inizio_contratto" validate:"omitempty,datetime=2006-01-02"`
	ContractEnd      *string           `json:"data_scadenza_contratto" validate:"omitempty,datetime=2006-01-02"`
	ContractMonths   *int              `json:"durata_contratto_mesi" validate:"omitempty,gte=0,lte=600"`
	AutoRenewal      bool              `json:"rinnovo_automatico"`
	RemindersEnabled bool              `json:"notifiche_attive"`
}

type DealDTO struct {
	ID             uuid.UUID         `json:"id"`
	ClientID       uuid.UUID         `json:"client_id"`
	Subject        string            `json:"oggetto_trattativa"`
	EstimatedValue decimal.Decimal   `json:"valore_stimato"`
	OpenedOn       string            `json:"data_apertura"`
	Status         DealStatus        `json:"stato_trattativa"`
	NextContactDue *string           `json:"scadenza_prossimo_contatto,omitempty"`
	Notes          string            `json:"note,omitempty"`
	UserID         uuid.UUID         `json:"user_id"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
	Client         *ClientSummaryDTO `json:"client,omitempty"`
}

// DealRequest is the body of deal create and update calls
type DealRequest struct {
	ClientID       uuid.UUID       `json:"client_id" validate:"required"`
	Subject        string          `json:"oggetto_trattativa" validate:"required,max=300"`
	EstimatedValue decimal.Decimal `json:"valore_stimato"`
	OpenedOn       string          `json:"data_apertura" validate:"required,datetime=2006-01-02"`
	Status         DealStatus      `json:"stato_trattativa" validate:"required,oneof=in_corso vinta persa"`
	NextContactDue *string         `json:"scadenza_prossimo_contatto" validate:"omitempty,datetime=2006-01-02"`
	Notes          string          `json:"note"`
}

type ActivityDTO struct {
	ID         uuid.UUID         `json:"id"`
	Type       ActivityType      `json:"tipo_attivita"`
	OccurredAt time.Time         `json:"data_ora"`
	Outcome    ActivityOutcome   `json:"esito"`
	ClientID   *uuid.UUID        `json:"client_id,omitempty"`
	DealID     *uuid.UUID        `json:"deal_id,omitempty"`
	Notes      string            `json:"note,omitempty"`
	UserID     uuid.UUID         `json:"user_id"`
	CreatedAt  time.Time         `json:"created_at"`
	Client     *ClientSummaryDTO `json:"client,omitempty"`
}

// ActivityRequest is the body of activity create and update calls
type ActivityRequest struct {
	Type       ActivityType    `json:"tipo_attivita" validate:"required,oneof=call email meeting"`
	OccurredAt time.Time       `json:"data_ora" validate:"required"`
	Outcome    ActivityOutcome `json:"esito" validate:"required,oneof=positiva da_richiamare nessuna_risposta"`
	ClientID   *uuid.UUID      `json:"client_id"`
	DealID     *uuid.UUID      `json:"deal_id"`
	Notes      string          `json:"note"`
}

// NotificationStatus is the derived lifecycle state of a reminder
type NotificationStatus string

const (
	NotificationNotYetDue NotificationStatus = "not_yet_due"
	NotificationPending   NotificationStatus = "pending"
	NotificationRead      NotificationStatus = "read"
)

type NotificationDTO struct {
	ID            uuid.UUID          `json:"id"`
	ClientID      uuid.UUID          `json:"client_id"`
	CompanyName   string             `json:"nome_azienda,omitempty"`
	Type          NotificationType   `json:"tipo_notifica"`
	NotifyOn      string             `json:"data_notifica"`
	ContractEnd   string             `json:"data_scadenza_contratto"`
	Message       string             `json:"messaggio"`
	DaysRemaining int                `json:"giorni_rimanenti"`
	Status        NotificationStatus `json:"stato"`
	Read          bool               `json:"letta"`
	Delivered     bool               `json:"inviata"`
	UserID        uuid.UUID          `json:"user_id"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// NotificationCounts feeds the notification badges and the dashboard
type NotificationCounts struct {
	Pending      int `json:"pending"`
	ExpiringSoon int `json:"expiring_soon"`
}

// MarkNotificationsReadRequest marks several notifications read at once
type MarkNotificationsReadRequest struct {
	IDs []uuid.UUID `json:"ids" validate:"required,min=1,max=500"`
}

// GenerationResult summarizes one notification generation run
type GenerationResult struct {
	Evaluated int `json:"evaluated"`
	Created   int `json:"created"`
	Failed    int `json:"failed"`
}

// DeliveryResult summarizes one reminder e-mail delivery run
type DeliveryResult struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

type ProjectDTO struct {
	ID            uuid.UUID                `json:"id"`
	Name          string                   `json:"nome_progetto"`
	Description   string                   `json:"descrizione,omitempty"`
	ClientID      uuid.UUID                `json:"client_id"`
	Status        ProjectStatus            `json:"stato"`
	Priority      ProjectPriority          `json:"priorita"`
	StartDate     string                   `json:"data_inizio"`
	PlannedEnd    string                   `json:"data_fine_prevista"`
	ActualEnd     *string                  `json:"data_fine_effettiva,omitempty"`
	BudgetPlanned *decimal.Decimal         `json:"budget_stimato,omitempty"`
	BudgetUsed    *decimal.Decimal         `json:"budget_utilizzato,omitempty"`
	Notes         string                   `json:"note,omitempty"`
	UserID        uuid.UUID                `json:"user_id"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
	Client        *ClientSummaryDTO        `json:"client,omitempty"`
	Collaborators []ProjectCollaboratorDTO `json:"collaboratori"`
}

// ProjectRequest is the body of project create and update calls
type ProjectRequest struct {
	Name          string           `json:"nome_progetto" validate:"required,max=200"`
	Description   string           `json:"descrizione"`
	ClientID      uuid.UUID        `json:"client_id" validate:"required"`
	Status        ProjectStatus    `json:"stato" validate:"required,oneof=pianificazione in_corso completato sospeso annullato"`
	Priority      ProjectPriority  `json:"priorita" validate:"required,oneof=bassa media alta critica"`
	StartDate     string           `json:"data_inizio" validate:"required,datetime=2006-01-02"`
	PlannedEnd    string           `json:"data_fine_prevista" validate:"required,datetime=2006-01-02"`
	ActualEnd     *string          `json:"data_fine_effettiva" validate:"omitempty,datetime=2006-01-02"`
	BudgetPlanned *decimal.Decimal `json:"budget_stimato"`
	BudgetUsed    *decimal.Decimal `json:"budget_utilizzato"`
	Notes         string           `json:"note"`
}

type CollaboratorDTO struct {
	ID              uuid.UUID        `json:"id"`
	FirstName       string           `json:"nome"`
	LastName        string           `json:"cognome"`
	Email           string           `json:"email"`
	Phone           string           `json:"telefono,omitempty"`
	Role            CollaboratorRole `json:"ruolo_principale"`
	Compensation    CompensationType `json:"tipo_compenso"`
	RatePerToken    *decimal.Decimal `json:"compenso_per_gettone,omitempty"`
	FixedFee        *decimal.Decimal `json:"compenso_fisso,omitempty"`
	TokensAvailable int              `json:"gettoni_disponibili"`
	UserID          uuid.UUID        `json:"user_id"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// CollaboratorRequest is the body of collaborator create and update calls
type CollaboratorRequest struct {
	FirstName       string           `json:"nome" validate:"required,max=100"`
	LastName        string           `json:"cognome" validate:"required,max=100"`
	Email           string           `json:"email" validate:"required,email,max=255"`
	Phone           string           `json:"telefono" validate:"max=50"`
	Role            CollaboratorRole `json:"ruolo_principale" validate:"required,oneof=project_manager developer designer analyst consultant grafico amazon_specialist linkedin_specialist advertiser altro"`
	Compensation    CompensationType `json:"tipo_compenso" validate:"required,oneof=gettone fisso"`
	RatePerToken    *decimal.Decimal `json:"compenso_per_gettone"`
	FixedFee        *decimal.Decimal `json:"compenso_fisso"`
	TokensAvailable int              `json:"gettoni_disponibili" validate:"gte=0"`
}

// UpdateTokensRequest sets the gettoni a collaborator can still be assigned
type UpdateTokensRequest struct {
	TokensAvailable int `json:"gettoni_disponibili" validate:"gte=0"`
}

type ProjectCollaboratorDTO struct {
	ID              uuid.UUID        `json:"id"`
	ProjectID       uuid.UUID        `json:"project_id"`
	CollaboratorID  uuid.UUID        `json:"collaborator_id"`
	ProjectRole     CollaboratorRole `json:"ruolo_progetto"`
	TokensAssigned  int              `json:"gettoni_assegnati"`
	TokensUsed      int              `json:"gettoni_utilizzati"`
	TokensRemaining int              `json:"gettoni_rimanenti"`
	AssignedAt      time.Time        `json:"data_assegnazione"`
	Notes           string           `json:"note,omitempty"`
	Collaborator    *CollaboratorDTO `json:"collaborator,omitempty"`
}

// AssignCollaboratorRequest adds a collaborator to a project
type AssignCollaboratorRequest struct {
	CollaboratorID uuid.UUID        `json:"collaborator_id" validate:"required"`
	ProjectRole    CollaboratorRole `json:"ruolo_progetto" validate:"required,oneof=project_manager developer designer analyst consultant grafico amazon_specialist linkedin_specialist advertiser altro"`
	TokensAssigned int              `json:"gettoni_assegnati" validate:"gte=0"`
	Notes          string           `json:"note"`
}

// UpdateAssignmentRequest changes role, budget or notes of an assignment
type UpdateAssignmentRequest struct {
	ProjectRole    CollaboratorRole `json:"ruolo_progetto" validate:"required,oneof=project_manager developer designer analyst consultant grafico amazon_specialist linkedin_specialist advertiser altro"`
	TokensAssigned int              `json:"gettoni_assegnati" validate:"gte=0"`
	Notes          string           `json:"note"`
}

// UseTokensRequest consumes gettoni from an assignment
type UseTokensRequest struct {
	Amount int `json:"gettoni" validate:"required,gt=0"`
}

type UserDTO struct {
	ID        uuid.UUID  `json:"id"`
	Email     string     `json:"email"`
	FirstName string     `json:"nome"`
	LastName  string     `json:"cognome"`
	Role      UserRole   `json:"ruolo"`
	Approved  bool       `json:"approved"`
	CreatedAt time.Time  `json:"created_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// ApproveUserRequest approves an account and optionally changes its role
type ApproveUserRequest struct {
	Role *UserRole `json:"ruolo" validate:"omitempty,oneof=commerciale manager owner"`
}

// ArchiveRequest asks for an export to be rendered and stored
type ArchiveRequest struct {
	Dataset string `json:"dataset" validate:"required,oneof=clienti trattative attivita fatturato"`
	Format  string `json:"format" validate:"required,oneof=csv xlsx pdf"`
}

// ArchiveDTO describes a stored export
type ArchiveDTO struct {
	Path        string    `json:"path"`
	Dataset     string    `json:"dataset"`
	Format      string    `json:"format"`
	SizeBytes   int       `json:"size_bytes"`
	GeneratedAt time.Time `json:"generated_at"`
}

// HealthStatus is returned by the health endpoints
type HealthStatus struct {
	Status  string            `json:"status"`
	Checks  map[string]string `json:"checks,omitempty"`
	Time    time.Time         `json:"time"`
	Version string            `json:"version,omitempty"`
}
