package capture

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/brlegal/captura-partes/internal/database"
	"github.com/brlegal/captura-partes/pkg/logger"
)

func TestValidateAddress(t *testing.T) {
	tests := []struct {
		name         string
		addr         *AddressRecord
		wantErr      error
		wantWarnings int
	}{
		{
			name:    "Nil address",
			addr:    nil,
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "Zero external id",
			addr:    &AddressRecord{ExternalID: 0, Street: "Av. Brasil"},
			wantErr: ErrInvalidAddress,
		},
		{
			name:    "Negative external id",
			addr:    &AddressRecord{ExternalID: -3, Street: "Av. Brasil"},
			wantErr: ErrInvalidAddress,
		},
		{
			name: "Complete address",
			addr: &AddressRecord{
				ExternalID: 457,
				Street:     "Av. Rio Branco",
				City:       "Rio de Janeiro",
				PostalCode: "20040-901",
			},
			wantWarnings: 0,
		},
		{
			name:         "Valid but incomplete address",
			addr:         &AddressRecord{ExternalID: 457},
			wantWarnings: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			warnings, err := ValidateAddress(tt.addr)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, warnings, tt.wantWarnings)
		})
	}
}

func TestResolveAddressPersistsAndLinks(t *testing.T) {
	db := newTestDB(t)
	core, logs := observer.New(zapcore.WarnLevel)
	log := logger.FromZap(zap.New(core))
	o := NewOrchestrator(db, nil, NewClassifier(DefaultTiposEspeciais(), log), log)

	owner := database.Cliente{IDPessoaProcesso: 1001, Nome: "Maria Souza"}
	require.NoError(t, db.Create(&owner).Error)

	// Valid but incomplete: persisted, linked, with warnings recorded
	addr := &AddressRecord{ExternalID: 457}
	addressID, err := o.resolveAddress(context.Background(), addr, database.Cliente{}.TableName(), owner.ID)
	require.NoError(t, err)
	assert.NotZero(t, addressID)

	var saved database.Cliente
	require.NoError(t, db.First(&saved, owner.ID).Error)
	require.NotNil(t, saved.EnderecoID)
	assert.Equal(t, addressID, *saved.EnderecoID)

	assert.Equal(t, 3, logs.FilterMessage("Address is incomplete").Len())
}

func TestResolveAddressRejectsInvalidID(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(db, nil)

	owner := database.Cliente{IDPessoaProcesso: 1001, Nome: "Maria Souza"}
	require.NoError(t, db.Create(&owner).Error)

	_, err := o.resolveAddress(context.Background(), &AddressRecord{ExternalID: 0, Street: "Av. Brasil"}, database.Cliente{}.TableName(), owner.ID)
	require.True(t, errors.Is(err, ErrInvalidAddress))

	// Nothing persisted, nothing linked
	var enderecos int64
	db.Model(&database.Endereco{}).Count(&enderecos)
	assert.Equal(t, int64(0), enderecos)

	var saved database.Cliente
	require.NoError(t, db.First(&saved, owner.ID).Error)
	assert.Nil(t, saved.EnderecoID)
}

func TestResolveAddressIsIdempotentAndRetriable(t *testing.T) {
	db := newTestDB(t)
	o := newTestOrchestrator(db, nil)

	owner := database.Cliente{IDPessoaProcesso: 1001, Nome: "Maria Souza"}
	require.NoError(t, db.Create(&owner).Error)

	addr := &AddressRecord{
		ExternalID: 457,
		Street:     "Av. Rio Branco",
		City:       "Rio de Janeiro",
		PostalCode: "20040-901",
	}

	firstID, err := o.resolveAddress(context.Background(), addr, database.Cliente{}.TableName(), owner.ID)
	require.NoError(t, err)

	// Retrying the whole resolve (upsert + link) must converge on one row
	addr.Street = "Avenida Rio Branco"
	secondID, err := o.resolveAddress(context.Background(), addr, database.Cliente{}.TableName(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, firstID, secondID)

	var enderecos []database.Endereco
	require.NoError(t, db.Find(&enderecos).Error)
	require.Len(t, enderecos, 1)
	assert.Equal(t, "Avenida Rio Branco", enderecos[0].Logradouro)
}

func TestCapturePartyWithInvalidAddressStillPersists(t *testing.T) {
	db := newTestDB(t)

	party := opposingCandidate()
	party.Address = &AddressRecord{ExternalID: 0, Street: "Av. Brasil"}

	fetcher := &fakeFetcher{parties: []PartyRecord{party}}
	o := newTestOrchestrator(db, fetcher)

	result, err := o.CaptureParties(context.Background(), nil, testCase(), testAttorney())
	require.NoError(t, err)

	// The rejected address is not a party error
	assert.Empty(t, result.Errors)
	assert.Equal(t, 1, result.OpposingParties)

	var enderecos int64
	db.Model(&database.Endereco{}).Count(&enderecos)
	assert.Equal(t, int64(0), enderecos)
}
