package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the caller did not set one
func (b *BaseModel) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// DealStatus is the negotiation state of a client or a deal.
// Deals only use in_corso, vinta and persa; sospesa is a client-level state.
type DealStatus string

const (
	DealStatusInProgress DealStatus = "in_corso"
	DealStatusWon        DealStatus = "vinta"
	DealStatusLost       DealStatus = "persa"
	DealStatusSuspended  DealStatus = "sospesa"
)

// ProposalType is the kind of commercial proposal sent to a client
type ProposalType string

const (
	ProposalAdvertising       ProposalType = "advertising"
	ProposalMailMarketing     ProposalType = "mail_marketing"
	ProposalSocialMedia       ProposalType = "social_media"
	ProposalNewWebsite        ProposalType = "nuovo_sito"
	ProposalWebsiteRestyling  ProposalType = "restyling_sito"
	ProposalLeadGenerationB2B ProposalType = "adv_lead_generation_b2b"
	ProposalMMA               ProposalType = "adv_mma"
	ProposalMMALandingPage    ProposalType = "adv_mma_landing_page"
	ProposalMMAWebsite        ProposalType = "adv_mma_sito"
	ProposalAllInclusive      ProposalType = "all_inclusive"
	ProposalLinkedIn          ProposalType = "linkedin"
	ProposalAmazon            ProposalType = "amazon"
)

// BillingFrequency is how often a contract is billed
type BillingFrequency string

const (
	FrequencyOneOff     BillingFrequency = "una_tantum"
	FrequencyMonthly    BillingFrequency = "mensile"
	FrequencyQuarterly  BillingFrequency = "trimestrale"
	FrequencySemiAnnual BillingFrequency = "semestrale"
	FrequencyAnnual     BillingFrequency = "annuale"
)

// Client is a company followed by the sales team, including its contract dates
type Client struct {
	BaseModel
	CompanyName      string              `gorm:"column:nome_azienda;type:varchar(200);not null;index"`
	ContactPerson    string              `gorm:"column:figura_preposta;type:varchar(200)"`
	Contacts         string              `gorm:"column:contatti;type:text"`
	ProposalSentOn   *datatypes.Date     `gorm:"column:data_invio_proposta"`
	Email            string              `gorm:"column:indirizzo_mail;type:varchar(255)"`
	ProposalText     string              `gorm:"column:proposta_presentata;type:text"`
	ProposalType     *ProposalType       `gorm:"column:tipologia_proposta;type:varchar(50)"`
	Frequency        *BillingFrequency   `gorm:"column:frequenza;type:varchar(20)"`
	MonthlyValue     decimal.NullDecimal `gorm:"column:valore_mensile;type:numeric(14,2)"`
	SpotValue        decimal.NullDecimal `gorm:"column:valore_spot;type:numeric(14,2)"`
	Status           DealStatus          `gorm:"column:stato_trattativa;type:varchar(20);not null;default:in_corso"`
	EndDate          *datatypes.Date     `gorm:"column:data_fine"`
	GestationDays    *int                `gorm:"column:giorni_gestazione"`
	Duration         string              `gorm:"column:durata;type:varchar(100)"`
	WorkEnd          string              `gorm:"column:fine_lavori;type:varchar(100)"`
	Extension        string              `gorm:"column:estensione;type:varchar(100)"`
	ContractStart    *datatypes.Date     `gorm:"column:data_inizio_contratto"`
	ContractEnd      *datatypes.Date     `gorm:"column:data_scadenza_contratto;index"`
	ContractMonths   *int                `gorm:"column:durata_contratto_mesi"`
	AutoRenewal      bool                `gorm:"column:rinnovo_automatico;not null;default:false"`
	RemindersEnabled bool                `gorm:"column:notifiche_attive;not null;default:false"`
	UserID           uuid.UUID           `gorm:"type:uuid;not null;index"`
}

// Deal is a sales opportunity opened with a client
type Deal struct {
	BaseModel
	ClientID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Client         *Client         `gorm:"foreignKey:ClientID"`
	Subject        string          `gorm:"column:oggetto_trattativa;type:varchar(300);not null"`
	EstimatedValue decimal.Decimal `gorm:"column:valore_stimato;type:numeric(14,2);not null;default:0"`
	OpenedOn       time.Time       `gorm:"column:data_apertura;not null;index"`
	Status         DealStatus      `gorm:"column:stato_trattativa;type:varchar(20);not null;default:in_corso;index"`
	NextContactDue *datatypes.Date `gorm:"column:scadenza_prossimo_contatto"`
	Notes          string          `gorm:"column:note;type:text"`
	UserID         uuid.UUID       `gorm:"type:uuid;not null;index"`
}

// ActivityType is the channel of a sales activity
type ActivityType string

const (
	ActivityTypeCall    ActivityType = "call"
	ActivityTypeEmail   ActivityType = "email"
	ActivityTypeMeeting ActivityType = "meeting"
)

// ActivityOutcome records how an activity went
type ActivityOutcome string

const (
	OutcomePositive   ActivityOutcome = "positiva"
	OutcomeCallBack   ActivityOutcome = "da_richiamare"
	OutcomeNoResponse ActivityOutcome = "nessuna_risposta"
)

// Activity is a call, e-mail or meeting logged by a user
type Activity struct {
	BaseModel
	Type       ActivityType    `gorm:"column:tipo_attivita;type:varchar(20);not null"`
	OccurredAt time.Time       `gorm:"column:data_ora;not null;index"`
	Outcome    ActivityOutcome `gorm:"column:esito;type:varchar(30);not null"`
	ClientID   *uuid.UUID      `gorm:"type:uuid;index"`
	Client     *Client         `gorm:"foreignKey:ClientID"`
	DealID     *uuid.UUID      `gorm:"type:uuid;index"`
	Deal       *Deal           `gorm:"foreignKey:DealID"`
	Notes      string          `gorm:"column:note;type:text"`
	UserID     uuid.UUID       `gorm:"type:uuid;not null;index"`
}

// NotificationType identifies one of the contract expiry reminders
type NotificationType string

const (
	NotificationExpiry45   NotificationType = "scadenza_45"
	NotificationReminder30 NotificationType = "reminder_30"
	NotificationFollowUp15 NotificationType = "sollecito_15"
)

// Notification is a materialized contract expiry reminder.
// There is at most one row per (client, type).
type Notification struct {
	BaseModel
	ClientID    uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_notification_client_type"`
	Client      *Client          `gorm:"foreignKey:ClientID"`
	Type        NotificationType `gorm:"column:tipo_notifica;type:varchar(20);not null;uniqueIndex:idx_notification_client_type"`
	NotifyOn    datatypes.Date   `gorm:"column:data_notifica;not null;index"`
	ContractEnd datatypes.Date   `gorm:"column:data_scadenza_contratto;not null"`
	Message     string           `gorm:"column:messaggio;type:text;not null"`
	Read        bool             `gorm:"column:letta;not null;default:false;index"`
	ReadAt      *time.Time       `gorm:"column:letta_il"`
	Delivered   bool             `gorm:"column:inviata;not null;default:false"`
	DeliveredAt *time.Time       `gorm:"column:inviata_il"`
	UserID      uuid.UUID        `gorm:"type:uuid;not null;index"`
}

// ProjectStatus is the lifecycle state of a delivery project
type ProjectStatus string

const (
	ProjectStatusPlanning   ProjectStatus = "pianificazione"
	ProjectStatusInProgress ProjectStatus = "in_corso"
	ProjectStatusCompleted  ProjectStatus = "completato"
	ProjectStatusSuspended  ProjectStatus = "sospeso"
	ProjectStatusCancelled  ProjectStatus = "annullato"
)

// ProjectPriority orders projects; Rank gives the sort weight
type ProjectPriority string

const (
	PriorityLow      ProjectPriority = "bassa"
	PriorityMedium   ProjectPriority = "media"
	PriorityHigh     ProjectPriority = "alta"
	PriorityCritical ProjectPriority = "critica"
)

// Rank returns 1 (bassa) to 4 (critica), 0 for unknown values
func (p ProjectPriority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	case PriorityCritical:
		return 4
	default:
		return 0
	}
}

// Project is delivery work sold to a client
type Project struct {
	BaseModel
	Name          string                `gorm:"column:nome_progetto;type:varchar(200);not null"`
	Description   string                `gorm:"column:descrizione;type:text"`
	ClientID      uuid.UUID             `gorm:"type:uuid;not null;index"`
	Client        *Client               `gorm:"foreignKey:ClientID"`
	Status        ProjectStatus         `gorm:"column:stato;type:varchar(20);not null;default:pianificazione;index"`
	Priority      ProjectPriority       `gorm:"column:priorita;type:varchar(20);not null;default:media"`
	StartDate     datatypes.Date        `gorm:"column:data_inizio;not null"`
	PlannedEnd    datatypes.Date        `gorm:"column:data_fine_prevista;not null"`
	ActualEnd     *datatypes.Date       `gorm:"column:data_fine_effettiva"`
	BudgetPlanned decimal.NullDecimal   `gorm:"column:budget_stimato;type:numeric(14,2)"`
	BudgetUsed    decimal.NullDecimal   `gorm:"column:budget_utilizzato;type:numeric(14,2)"`
	Notes         string                `gorm:"column:note;type:text"`
	UserID        uuid.UUID             `gorm:"type:uuid;not null;index"`
	Assignments   []ProjectCollaborator `gorm:"foreignKey:ProjectID"`
}

// CollaboratorRole is the professional role of a collaborator
type CollaboratorRole string

const (
	RoleProjectManager     CollaboratorRole = "project_manager"
	RoleDeveloper          CollaboratorRole = "developer"
	RoleDesigner           CollaboratorRole = "designer"
	RoleAnalyst            CollaboratorRole = "analyst"
	RoleConsultant         CollaboratorRole = "consultant"
	RoleGraphicDesigner    CollaboratorRole = "grafico"
	RoleAmazonSpecialist   CollaboratorRole = "amazon_specialist"
	RoleLinkedInSpecialist CollaboratorRole = "linkedin_specialist"
	RoleAdvertiser         CollaboratorRole = "advertiser"
	RoleOther              CollaboratorRole = "altro"
)

// CompensationType says whether a collaborator is paid per gettone or a fixed fee
type CompensationType string

const (
	CompensationPerToken CompensationType = "gettone"
	CompensationFixed    CompensationType = "fisso"
)

// Collaborator is an external professional whose capacity is measured in gettoni
type Collaborator struct {
	BaseModel
	FirstName       string              `gorm:"column:nome;type:varchar(100);not null"`
	LastName        string              `gorm:"column:cognome;type:varchar(100);not null;index"`
	Email           string              `gorm:"column:email;type:varchar(255);not null"`
	Phone           string              `gorm:"column:telefono;type:varchar(50)"`
	Role            CollaboratorRole    `gorm:"column:ruolo_principale;type:varchar(30);not null"`
	Compensation    CompensationType    `gorm:"column:tipo_compenso;type:varchar(20);not null"`
	RatePerToken    decimal.NullDecimal `gorm:"column:compenso_per_gettone;type:numeric(10,2)"`
	FixedFee        decimal.NullDecimal `gorm:"column:compenso_fisso;type:numeric(10,2)"`
	TokensAvailable int                 `gorm:"column:gettoni_disponibili;not null;default:0"`
	UserID          uuid.UUID           `gorm:"type:uuid;not null;index"`
}

// ProjectCollaborator assigns a collaborator to a project with a gettoni budget
type ProjectCollaborator struct {
	ID             uuid.UUID        `gorm:"type:uuid;primaryKey"`
	ProjectID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Project        *Project         `gorm:"foreignKey:ProjectID"`
	CollaboratorID uuid.UUID        `gorm:"type:uuid;not null;index"`
	Collaborator   *Collaborator    `gorm:"foreignKey:CollaboratorID"`
	ProjectRole    CollaboratorRole `gorm:"column:ruolo_progetto;type:varchar(30);not null"`
	TokensAssigned int              `gorm:"column:gettoni_assegnati;not null;default:0"`
	TokensUsed     int              `gorm:"column:gettoni_utilizzati;not null;default:0"`
	AssignedAt     time.Time        `gorm:"column:data_assegnazione;not null"`
	Notes          string           `gorm:"column:note;type:text"`
}

// BeforeCreate assigns an ID and assignment time when missing
func (pc *ProjectCollaborator) BeforeCreate(_ *gorm.DB) error {
	if pc.ID == uuid.Nil {
		pc.ID = uuid.New()
	}
	if pc.AssignedAt.IsZero() {
		pc.AssignedAt = time.Now().UTC()
	}
	return nil
}

// TokensRemaining is the unused part of the assignment
func (pc *ProjectCollaborator) TokensRemaining() int {
	return pc.TokensAssigned - pc.TokensUsed
}

// UserRole is the access level of an account
type UserRole string

const (
	UserRoleSales   UserRole = "commerciale"
	UserRoleManager UserRole = "manager"
	UserRoleOwner   UserRole = "owner"
)

// SeesAllRecords reports whether the role reads every user's rows
func (r UserRole) SeesAllRecords() bool {
	return r == UserRoleOwner || r == UserRoleManager
}

// User is the profile of an account of the hosted auth service
type User struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey"`
	Email     string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	FirstName string     `gorm:"column:nome;type:varchar(100)"`
	LastName  string     `gorm:"column:cognome;type:varchar(100)"`
	Role      UserRole   `gorm:"column:ruolo;type:varchar(20);not null;default:commerciale"`
	Approved  bool       `gorm:"not null;default:false"`
	CreatedAt time.Time  `gorm:"not null"`
	LastLogin *time.Time `gorm:"column:last_login"`
}
