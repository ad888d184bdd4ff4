package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/soportek/helpdesk-api/internal/repository"
)

// reportHeaders are the Spanish column titles the export has always shipped
// with; spreadsheet users depend on them.
var reportHeaders = []string{
	"ID",
	"Título",
	"Descripción",
	"Categoría",
	"Prioridad",
	"Estado",
	"Creado por",
	"Asignado a",
	"Fecha de creación",
	"Última actualización",
}

const reportDateLayout = "02/01/2006"

// ReportService renders the ticket table as a downloadable CSV.
type ReportService struct {
	tickets repository.TicketRepository
	now     func() time.Time
}

// NewReportService builds the service.
func NewReportService(tickets repository.TicketRepository) *ReportService {
	return &ReportService{tickets: tickets, now: time.Now}
}

// Report is a rendered export ready to stream to the client.
type Report struct {
	FileName string
	Content  []byte
}

// TicketsCSV exports every ticket as UTF-8 CSV. The output starts with a BOM
// so Excel detects the encoding, and the filename carries the export date.
func (s *ReportService) TicketsCSV(ctx context.Context) (*Report, error) {
	rows, err := s.tickets.ListForReport(ctx)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString("\uFEFF")

	w := csv.NewWriter(&buf)
	if err := w.Write(reportHeaders); err != nil {
		return nil, err
	}
	for _, row := range rows {
		record := []string{
			row.Ticket.ID,
			row.Ticket.Title,
			row.Ticket.Description,
			row.Ticket.Category,
			string(row.Ticket.Priority),
			string(row.Ticket.Status),
			row.CreatorName,
			row.AssigneeName,
			row.Ticket.CreatedAt.Format(reportDateLayout),
			row.Ticket.UpdatedAt.Format(reportDateLayout),
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}

	return &Report{
		FileName: fmt.Sprintf("reporte_tickets_%s.csv", s.now().Format("2006-01-02")),
		Content:  buf.Bytes(),
	}, nil
}
