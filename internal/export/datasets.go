package export

import (
	"time"

	"github.com/gestionale-crm/crm-api/internal/domain"
	"gorm.io/datatypes"
)

// Dataset names accepted by the export endpoints
const (
	DatasetClients    = "clienti"
	DatasetDeals      = "trattative"
	DatasetActivities = "attivita"
	DatasetRevenue    = "fatturato"
)

// Formats
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

// ContentType returns the MIME type and file extension of a format
func ContentType(format string) (string, string) {
	switch format {
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", ".xlsx"
	case FormatPDF:
		return "application/pdf", ".pdf"
	default:
		return "text/csv; charset=utf-8", ".csv"
	}
}

// ClientRecords projects the client list
func ClientRecords(clients []domain.Client) []Record {
	out := make([]Record, 0, len(clients))
	for i := range clients {
		c := &clients[i]
		proposal := ""
		if c.ProposalType != nil {
			proposal = string(*c.ProposalType)
		}
		out = append(out, Record{
			{"Nome Azienda", c.CompanyName},
			{"Referente", c.ContactPerson},
			{"Email", c.Email},
			{"Contatti", c.Contacts},
			{"Stato", string(c.Status)},
			{"Tipologia Proposta", proposal},
			{"Scadenza Contratto", date(c.ContractEnd)},
			{"Rinnovo Automatico", c.AutoRenewal},
			{"Data Creazione", c.CreatedAt},
		})
	}
	return out
}

// DealRecords projects the deal list; the client name comes from the preloaded association
func DealRecords(deals []domain.Deal) []Record {
	out := make([]Record, 0, len(deals))
	for i := range deals {
		d := &deals[i]
		clientName := ""
		if d.Client != nil {
			clientName = d.Client.CompanyName
		}
		out = append(out, Record{
			{"Oggetto", d.Subject},
			{"Cliente", clientName},
			{"Valore", d.EstimatedValue},
			{"Stato", string(d.Status)},
			{"Data Apertura", d.OpenedOn.UTC()},
			{"Prossimo Contatto", date(d.NextContactDue)},
		})
	}
	return out
}

// ActivityRecords projects the activity log; date and time are shown in loc
func ActivityRecords(activities []domain.Activity, loc *time.Location) []Record {
	if loc == nil {
		loc = time.UTC
	}
	out := make([]Record, 0, len(activities))
	for i := range activities {
		a := &activities[i]
		clientName, dealSubject := "", ""
		if a.Client != nil {
			clientName = a.Client.CompanyName
		}
		if a.Deal != nil {
			dealSubject = a.Deal.Subject
		}
		at := a.OccurredAt.In(loc)
		out = append(out, Record{
			{"Tipo", string(a.Type)},
			{"Data", at.Format("02/01/2006")},
			{"Ora", at.Format("15:04:05")},
			{"Esito", string(a.Outcome)},
			{"Cliente", clientName},
			{"Trattativa", dealSubject},
			{"Note", a.Notes},
		})
	}
	return out
}

// RevenueRecords projects revenue by client
func RevenueRecords(rows []domain.ClientRevenue) []Record {
	out := make([]Record, 0, len(rows))
	for _, r := range rows {
		out = append(out, Record{
			{"Cliente", r.CompanyName},
			{"Fatturato", r.Revenue},
			{"Trattative Vinte", r.DealsCount},
			{"Fatturato Medio", r.AverageDeal},
		})
	}
	return out
}

func date(d *datatypes.Date) any {
	if d == nil {
		return nil
	}
	return time.Time(*d)
}
