package capture

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/brlegal/captura-partes/internal/database"
)

// createLink idempotently upserts the case↔entity association. The
// (case, entity type, entity) triple is the key, so re-capturing a case
// rewrites the same rows instead of growing the set. The ordering index
// is the party's position in the fetched list.
func (o *Orchestrator) createLink(ctx context.Context, caseID int64, role Role, entityID uint, party PartyRecord, ordering int) error {
	row := database.CasoParte{
		CasoID:         caseID,
		TipoEntidade:   string(role),
		EntidadeID:     entityID,
		Polo:           strings.ToLower(party.Pole),
		TipoParte:      party.TypeCode,
		Principal:      party.Principal,
		Ordem:          ordering,
		DadosOriginais: string(party.Raw),
	}

	conflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "caso_id"},
			{Name: "tipo_entidade"},
			{Name: "entidade_id"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"polo", "tipo_parte", "principal", "ordem", "dados_originais",
			"updated_at",
		}),
	}

	if err := o.db.WithContext(ctx).Clauses(conflict).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to link %s %d to case %d: %w", role, entityID, caseID, err)
	}

	return nil
}
