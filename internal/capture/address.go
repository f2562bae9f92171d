package capture

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm/clause"

	"github.com/brlegal/captura-partes/internal/database"
)

// ErrInvalidAddress marks an address that is rejected outright: never
// persisted, never linked
var ErrInvalidAddress = errors.New("address external id must be a positive integer")

// ValidateAddress decides whether an address may be persisted at all.
// A non-positive external id is a hard rejection. Missing street, city
// or postal code are returned as warnings only: a valid-but-incomplete
// address is still stored.
func ValidateAddress(addr *AddressRecord) ([]string, error) {
	if addr == nil || addr.ExternalID <= 0 {
		return nil, ErrInvalidAddress
	}

	var warnings []string
	if strings.TrimSpace(addr.Street) == "" {
		warnings = append(warnings, "missing street")
	}
	if strings.TrimSpace(addr.City) == "" {
		warnings = append(warnings, "missing city")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		warnings = append(warnings, "missing postal code")
	}

	return warnings, nil
}

// resolveAddress validates, upserts and links an address to its owning
// row. The foreign-key write-back is a separate follow-up update and
// tolerates being retried.
func (o *Orchestrator) resolveAddress(ctx context.Context, addr *AddressRecord, ownerTable string, ownerID uint) (uint, error) {
	warnings, err := ValidateAddress(addr)
	if err != nil {
		return 0, err
	}

	for _, warning := range warnings {
		o.logger.Warn("Address is incomplete",
			"address_external_id", addr.ExternalID,
			"warning", warning,
		)
	}

	addressID, err := o.upsertAddress(ctx, addr)
	if err != nil {
		return 0, err
	}

	err = o.db.WithContext(ctx).
		Table(ownerTable).
		Where("id = ?", ownerID).
		Update("endereco_id", addressID).Error
	if err != nil {
		return 0, fmt.Errorf("failed to link address %d to %s row %d: %w",
			addr.ExternalID, ownerTable, ownerID, err)
	}

	return addressID, nil
}

// upsertAddress is idempotent by the external address id
func (o *Orchestrator) upsertAddress(ctx context.Context, addr *AddressRecord) (uint, error) {
	row := database.Endereco{
		IDEnderecoExterno: addr.ExternalID,
		Logradouro:        addr.Street,
		Numero:            addr.Number,
		Complemento:       addr.Complement,
		Bairro:            addr.District,
		Cidade:            addr.City,
		IDMunicipio:       addr.MunicipalityID,
		CodigoIBGE:        addr.IBGECode,
		Estado:            addr.State.Value(),
		Pais:              addr.Country.Value(),
		CEP:               addr.PostalCode,
		Correspondencia:   addr.ForCorrespondence,
		Situacao:          addr.Status,
		DadosOriginais:    string(addr.Raw),
	}

	conflict := clause.OnConflict{
		Columns: []clause.Column{{Name: "id_endereco_externo"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"logradouro", "numero", "complemento", "bairro", "cidade",
			"id_municipio", "codigo_ibge", "estado", "pais", "cep",
			"correspondencia", "situacao", "dados_originais", "updated_at",
		}),
	}

	if err := o.db.WithContext(ctx).Clauses(conflict).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("failed to upsert address %d: %w", addr.ExternalID, err)
	}

	var saved struct{ ID uint }
	err := o.db.WithContext(ctx).
		Table(database.Endereco{}.TableName()).
		Select("id").
		Where("id_endereco_externo = ?", addr.ExternalID).
		Take(&saved).Error
	if err != nil {
		return 0, fmt.Errorf("failed to read back address %d: %w", addr.ExternalID, err)
	}

	return saved.ID, nil
}
