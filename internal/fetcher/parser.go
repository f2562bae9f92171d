package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-rod/rod"

	"github.com/brlegal/captura-partes/internal/capture"
)

// ParseParties decodes the court system's JSON party payload. The payload
// is either a bare array or wrapped in a "partes" field. Each element's
// unprocessed form is kept on the record for the raw capture log.
func ParseParties(raw []byte) ([]capture.PartyRecord, error) {
	var elements []json.RawMessage
	if err := json.Unmarshal(raw, &elements); err != nil {
		var wrapper struct {
			Parties []json.RawMessage `json:"partes"`
		}
		if wrapErr := json.Unmarshal(raw, &wrapper); wrapErr != nil || wrapper.Parties == nil {
			return nil, fmt.Errorf("unrecognized party payload: %w", err)
		}
		elements = wrapper.Parties
	}

	parties := make([]capture.PartyRecord, 0, len(elements))
	for i, element := range elements {
		var party capture.PartyRecord
		if err := json.Unmarshal(element, &party); err != nil {
			return nil, fmt.Errorf("failed to decode party %d: %w", i, err)
		}
		party.Raw = element

		attachRepresentativeRaw(element, &party)
		parties = append(parties, party)
	}

	return parties, nil
}

// attachRepresentativeRaw keeps each representative's unprocessed form
// alongside the decoded record
func attachRepresentativeRaw(element json.RawMessage, party *capture.PartyRecord) {
	var shape struct {
		Representatives []json.RawMessage `json:"representantes"`
	}
	if err := json.Unmarshal(element, &shape); err != nil {
		return
	}
	for i := range party.Representatives {
		if i < len(shape.Representatives) {
			party.Representatives[i].Raw = shape.Representatives[i]
		}
	}
}

// parsePartiesFromTable extracts what it can from the rendered parties
// table when no JSON payload is available
func (f *Fetcher) parsePartiesFromTable(ctx context.Context, page *rod.Page) ([]capture.PartyRecord, error) {
	table, err := page.Context(ctx).Element("table.partes, table#partes, table.table")
	if err != nil {
		return nil, fmt.Errorf("no party payload or table found")
	}

	rows, err := table.Elements("tbody tr")
	if err != nil || len(rows) == 0 {
		rows = table.MustElements("tr")
	}

	var parties []capture.PartyRecord
	for _, row := range rows {
		cells := row.MustElements("td")
		if len(cells) < 3 {
			continue
		}

		party := capture.PartyRecord{
			Name:     strings.TrimSpace(cells[0].MustText()),
			TypeCode: strings.TrimSpace(cells[1].MustText()),
			Pole:     strings.TrimSpace(cells[2].MustText()),
		}
		if len(cells) > 3 {
			party.Document = strings.TrimSpace(cells[3].MustText())
		}

		if attr, _ := row.Attribute("data-id-pessoa"); attr != nil {
			if id, err := strconv.ParseInt(*attr, 10, 64); err == nil {
				party.PersonID = id
			}
		}
		if attr, _ := row.Attribute("data-id-parte"); attr != nil {
			if id, err := strconv.ParseInt(*attr, 10, 64); err == nil {
				party.ExternalID = id
			}
		}

		html, err := row.HTML()
		if err == nil {
			// Table rows carry no structured payload; keep the row markup
			// as the raw snapshot
			raw, _ := json.Marshal(html)
			party.Raw = raw
		}

		parties = append(parties, party)
	}

	f.logger.Debug("Parsed parties from table", "parties", len(parties))
	return parties, nil
}
