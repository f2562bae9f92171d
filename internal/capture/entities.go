package capture

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/brlegal/captura-partes/internal/database"
)

// entityWrite is the normalized write for one classified party, resolved
// once from (role, person kind) and consumed uniformly by the upserter
type entityWrite struct {
	role       Role
	kind       PersonKind
	personID   int64
	name       string
	cpf        string
	cnpj       string
	caseID     int64
	courtCode  string
	instance   string
	caseNumber string
	emails     string
	phone1     string
	phone2     string
	raw        string
}

// buildEntityWrite maps a party record onto the target table's shape.
// Fails when the record carries no external person id or no usable
// document, which makes the row impossible to key.
func buildEntityWrite(party PartyRecord, role Role, caseDesc CaseDescriptor) (entityWrite, error) {
	if party.PersonID <= 0 {
		return entityWrite{}, fmt.Errorf("party %q has no external person id", party.Name)
	}

	digits := onlyDigits(party.Document)
	if digits == "" {
		return entityWrite{}, fmt.Errorf("party %q has no usable document number", party.Name)
	}

	kind := PessoaFisica
	if strings.EqualFold(party.DocumentKind, "CNPJ") || len(digits) == 14 {
		kind = PessoaJuridica
	}

	phone1, phone2 := splitPhones(party.Phones)

	w := entityWrite{
		role:       role,
		kind:       kind,
		personID:   party.PersonID,
		name:       party.Name,
		caseID:     caseDesc.CaseID,
		courtCode:  caseDesc.CourtCode,
		instance:   caseDesc.Instance,
		caseNumber: caseDesc.CaseNumber,
		emails:     strings.Join(party.Emails, ";"),
		phone1:     phone1,
		phone2:     phone2,
		raw:        string(party.Raw),
	}

	if kind == PessoaFisica {
		w.cpf = digits
	} else {
		w.cnpj = digits
	}

	return w, nil
}

// upsertEntity writes the party into the table selected by its role,
// keyed by the external person id, and returns the internal row id.
// Calling twice with the same person id updates descriptive fields
// in place (last writer wins) and never duplicates the row.
func (o *Orchestrator) upsertEntity(ctx context.Context, w entityWrite) (uint, error) {
	base := database.Cliente{
		IDPessoaProcesso: w.personID,
		Nome:             w.name,
		TipoPessoa:       string(w.kind),
		CPF:              w.cpf,
		CNPJ:             w.cnpj,
		CasoID:           w.caseID,
		NumeroProcesso:   w.caseNumber,
		Tribunal:         w.courtCode,
		Instancia:        w.instance,
		Emails:           w.emails,
		Telefone1:        w.phone1,
		Telefone2:        w.phone2,
		DadosOriginais:   w.raw,
	}

	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id_pessoa_processo"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"nome", "tipo_pessoa", "cpf", "cnpj", "caso_id", "numero_processo",
			"tribunal", "instancia", "emails", "telefone1", "telefone2",
			"dados_originais", "updated_at",
		}),
	}

	// The three entity tables share one shape; the role only selects the
	// target table
	var model interface{}
	switch w.role {
	case RoleCliente:
		model = &base
	case RoleParteContraria:
		row := database.ParteContraria(base)
		model = &row
	default:
		row := database.Terceiro(base)
		model = &row
	}

	if err := o.db.WithContext(ctx).Clauses(conflict).Create(model).Error; err != nil {
		return 0, fmt.Errorf("failed to upsert %s %q: %w", w.role, w.name, err)
	}

	var saved struct{ ID uint }
	err := o.db.WithContext(ctx).
		Table(roleTable(w.role)).
		Select("id").
		Where("id_pessoa_processo = ?", w.personID).
		Take(&saved).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read back %s %q: %w", w.role, w.name, err)
	}

	return saved.ID, nil
}

// roleTable maps a role onto its entity table
func roleTable(role Role) string {
	switch role {
	case RoleCliente:
		return database.Cliente{}.TableName()
	case RoleParteContraria:
		return database.ParteContraria{}.TableName()
	default:
		return database.Terceiro{}.TableName()
	}
}

func onlyDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// splitPhones keeps up to two phone numbers, as stored by the entity tables
func splitPhones(phones []string) (string, string) {
	var phone1, phone2 string
	if len(phones) > 0 {
		phone1 = phones[0]
	}
	if len(phones) > 1 {
		phone2 = phones[1]
	}
	return phone1, phone2
}
