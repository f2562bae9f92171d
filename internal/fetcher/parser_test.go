package fetcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const partyPayload = `[
	{
		"idParte": 1,
		"idPessoa": 1001,
		"nome": "Maria Souza",
		"documento": "12345678901",
		"tipoParte": "AUTOR",
		"polo": "ATIVO",
		"principal": true,
		"representantes": [
			{"idPessoa": 2001, "nome": "Dr. Silva", "documento": "52998224725", "numeroOAB": "12345", "ufOAB": "RJ"}
		],
		"endereco": {
			"idEndereco": 457,
			"logradouro": "Av. Rio Branco",
			"cidade": "Rio de Janeiro",
			"estado": {"nome": "Rio de Janeiro", "sigla": "RJ"},
			"pais": "BR",
			"cep": "20040-901"
		}
	},
	{
		"idParte": 2,
		"idPessoa": 1002,
		"nome": "Banco Alfa SA",
		"documento": "12.345.678/0001-95",
		"tipoDocumento": "CNPJ",
		"tipoParte": "REU",
		"polo": "PASSIVO"
	}
]`

func TestParsePartiesBareArray(t *testing.T) {
	parties, err := ParseParties([]byte(partyPayload))
	require.NoError(t, err)
	require.Len(t, parties, 2)

	assert.Equal(t, int64(1001), parties[0].PersonID)
	assert.Equal(t, "Maria Souza", parties[0].Name)
	assert.Equal(t, "ATIVO", parties[0].Pole)
	assert.True(t, parties[0].Principal)
	require.NotNil(t, parties[0].Address)
	assert.Equal(t, "RJ", parties[0].Address.State.Value())

	// Raw payload is preserved per party and per representative
	assert.NotEmpty(t, parties[0].Raw)
	require.Len(t, parties[0].Representatives, 1)
	assert.NotEmpty(t, parties[0].Representatives[0].Raw)

	assert.Equal(t, "CNPJ", parties[1].DocumentKind)
}

func TestParsePartiesWrappedPayload(t *testing.T) {
	wrapped := `{"partes": ` + partyPayload + `}`

	parties, err := ParseParties([]byte(wrapped))
	require.NoError(t, err)
	assert.Len(t, parties, 2)
}

func TestParsePartiesRejectsGarbage(t *testing.T) {
	_, err := ParseParties([]byte(`{"foo": "bar"}`))
	require.Error(t, err)

	_, err = ParseParties([]byte(`not json`))
	require.Error(t, err)
}

func TestParsePartiesEmptyList(t *testing.T) {
	parties, err := ParseParties([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, parties)
}
