package capture

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"gorm.io/gorm"

	"github.com/brlegal/captura-partes/internal/database"
	"github.com/brlegal/captura-partes/pkg/logger"
)

// Orchestrator drives the capture pipeline for one case: classify every
// fetched party, upsert it into the role's table, persist representatives
// and addresses, and link each entity to the case
type Orchestrator struct {
	db         *gorm.DB
	fetcher    PartyFetcher
	classifier *Classifier
	logger     *logger.Logger
}

// NewOrchestrator creates an orchestrator instance
func NewOrchestrator(db *gorm.DB, fetcher PartyFetcher, classifier *Classifier, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		db:         db,
		fetcher:    fetcher,
		classifier: classifier,
		logger:     log,
	}
}

// CaptureParties captures every party of one case. Only the initial fetch
// is fatal; inside the loop each party's failure is recorded in the result
// and processing continues with the next party. Parties are processed
// strictly sequentially, in fetch order, to bound load on the shared
// persistence layer and keep error attribution unambiguous.
func (o *Orchestrator) CaptureParties(ctx context.Context, page *rod.Page, caseDesc CaseDescriptor, attorney AttorneyIdentity) (*CaptureResult, error) {
	if strings.TrimSpace(attorney.Document) == "" {
		return nil, ErrMissingAttorneyDocument
	}

	start := time.Now()

	parties, err := o.fetcher.FetchParties(ctx, page, caseDesc.ExternalCaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch parties for case %s: %w", caseDesc.CaseNumber, err)
	}

	result := &CaptureResult{
		CaseID:       caseDesc.CaseID,
		CaseNumber:   caseDesc.CaseNumber,
		TotalParties: len(parties),
	}

	if len(parties) == 0 {
		o.logger.Info("No parties found for case", "case", caseDesc.CaseNumber)
		result.Elapsed = time.Since(start)
		return result, nil
	}

	for i, party := range parties {
		if len(party.Raw) > 0 {
			result.RawParties = append(result.RawParties, party.Raw)
		}

		role, err := o.classifier.Classify(party, attorney)
		if err != nil {
			recordPartyError(result, i, party, err)
			continue
		}

		write, err := buildEntityWrite(party, role, caseDesc)
		if err != nil {
			o.logger.Warn("Party cannot be persisted", "party", party.Name, "error", err)
			recordPartyError(result, i, party, err)
			continue
		}

		entityID, err := o.upsertEntity(ctx, write)
		if err != nil {
			o.logger.Error("Failed to upsert party", "party", party.Name, "role", role, "error", err)
			recordPartyError(result, i, party, err)
			continue
		}

		switch role {
		case RoleCliente:
			result.Clients++
		case RoleParteContraria:
			result.OpposingParties++
		case RoleTerceiro:
			result.ThirdParties++
		}

		table := roleTable(role)

		if party.Address != nil {
			if _, err := o.resolveAddress(ctx, party.Address, table, entityID); err != nil {
				o.logger.Warn("Failed to resolve party address",
					"party", party.Name,
					"error", err,
				)
			}
		}

		// Representative failures are isolated per item: a bad
		// representative stops neither its siblings nor the link below
		for _, rep := range party.Representatives {
			repID, err := o.upsertRepresentative(ctx, rep, role, entityID, caseDesc.CaseNumber)
			if err != nil {
				result.RepErrors++
				o.logger.Warn("Failed to upsert representative",
					"party", party.Name,
					"representative", rep.Name,
					"error", err,
				)
				continue
			}
			result.Representatives++

			if rep.Address != nil {
				if _, err := o.resolveAddress(ctx, rep.Address, database.Representante{}.TableName(), repID); err != nil {
					o.logger.Warn("Failed to resolve representative address",
						"representative", rep.Name,
						"error", err,
					)
				}
			}
		}

		if err := o.createLink(ctx, caseDesc.CaseID, role, entityID, party, i); err != nil {
			o.logger.Warn("Failed to create case link", "party", party.Name, "error", err)
		} else {
			result.Links++
		}
	}

	result.Elapsed = time.Since(start)

	o.logger.Info("Case capture finished",
		"case", caseDesc.CaseNumber,
		"parties", result.TotalParties,
		"clients", result.Clients,
		"opposing", result.OpposingParties,
		"third_parties", result.ThirdParties,
		"errors", len(result.Errors),
		"elapsed", result.Elapsed.String(),
	)

	return result, nil
}

func recordPartyError(result *CaptureResult, index int, party PartyRecord, err error) {
	result.Errors = append(result.Errors, PartyError{
		Index:         index,
		PartyID:       party.ExternalID,
		PartyName:     party.Name,
		PartyTypeCode: party.TypeCode,
		Err:           err.Error(),
	})
}
