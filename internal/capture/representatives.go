package capture

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/brlegal/captura-partes/internal/database"
)

// upsertRepresentative persists one representative, scoped by the
// represented party's role, owning entity id and case number, since the
// same person may represent different parties across cases. Returns the
// internal row id.
func (o *Orchestrator) upsertRepresentative(ctx context.Context, rep RepresentativeRecord, role Role, entityID uint, caseNumber string) (uint, error) {
	if rep.PersonID <= 0 {
		return 0, fmt.Errorf("representative %q has no external person id", rep.Name)
	}

	phone1, phone2 := splitPhones(rep.Phones)

	row := database.Representante{
		IDPessoaProcesso:  rep.PersonID,
		TipoEntidade:      string(role),
		EntidadeID:        entityID,
		NumeroProcesso:    caseNumber,
		Nome:              rep.Name,
		CPF:               onlyDigits(rep.Document),
		OABNumero:         rep.OABNumber,
		OABUF:             rep.OABState,
		OABSituacao:       rep.OABStatus,
		TipoRepresentante: rep.TypeCode,
		Emails:            strings.Join(rep.Emails, ";"),
		Telefone1:         phone1,
		Telefone2:         phone2,
		DadosOriginais:    string(rep.Raw),
	}

	conflict := clause.OnConflict{
		Columns: []clause.Column{
			{Name: "id_pessoa_processo"},
			{Name: "tipo_entidade"},
			{Name: "entidade_id"},
			{Name: "numero_processo"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"nome", "cpf", "oab_numero", "oab_uf", "oab_situacao",
			"tipo_representante", "emails", "telefone1", "telefone2",
			"dados_originais", "updated_at",
		}),
	}

	if err := o.db.WithContext(ctx).Clauses(conflict).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to upsert representative %q: %w", rep.Name, err)
	}

	var saved struct{ ID uint }
	err := o.db.WithContext(ctx).
		Table(database.Representante{}.TableName()).
		Select("id").
		Where("id_pessoa_processo = ? AND tipo_entidade = ? AND entidade_id = ? AND numero_processo = ?",
			rep.PersonID, string(role), entityID, caseNumber).
		Take(&saved).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read back representative %q: %w", rep.Name, err)
	}

	return saved.ID, nil
}
