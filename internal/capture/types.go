package capture

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-rod/rod"
)

// Role is the classification of a party relative to the capturing firm
type Role string

const (
	RoleCliente        Role = "cliente"
	RoleParteContraria Role = "parte_contraria"
	RoleTerceiro       Role = "terceiro"
)

// PersonKind distinguishes individuals from companies
type PersonKind string

const (
	PessoaFisica   PersonKind = "fisica"
	PessoaJuridica PersonKind = "juridica"
)

// PartyFetcher retrieves the raw party list for a case from the court
// system. The page handle may be nil, in which case the implementation
// manages its own page.
type PartyFetcher interface {
	FetchParties(ctx context.Context, page *rod.Page, externalCaseID int64) ([]PartyRecord, error)
}

// StateField accepts either a structured object or a bare string from the
// court payload. When both could apply, the object's fields win and the
// bare string is only a fallback.
type StateField struct {
	ID     int64  `json:"id,omitempty"`
	Name   string `json:"nome,omitempty"`
	Abbrev string `json:"sigla,omitempty"`

	bare string
}

func (s *StateField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &s.bare)
	}
	type alias StateField
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.bare = s.bare
	*s = StateField(a)
	return nil
}

// Value returns the state as a string, preferring the structured form
func (s StateField) Value() string {
	if s.Abbrev != "" {
		return s.Abbrev
	}
	if s.Name != "" {
		return s.Name
	}
	return s.bare
}

// CountryField mirrors StateField for the country attribute
type CountryField struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"nome,omitempty"`
	Code string `json:"sigla,omitempty"`

	bare string
}

func (c *CountryField) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		return json.Unmarshal(data, &c.bare)
	}
	type alias CountryField
	var a alias
	if err := json.Unmarshal(data, &a); err != nil {
		return err
	}
	a.bare = c.bare
	*c = CountryField(a)
	return nil
}

func (c CountryField) Value() string {
	if c.Name != "" {
		return c.Name
	}
	if c.Code != "" {
		return c.Code
	}
	return c.bare
}

// AddressRecord is an address as reported by the court system. The external
// id must be positive for the address to be persisted at all.
type AddressRecord struct {
	ExternalID        int64           `json:"idEndereco"`
	Street            string          `json:"logradouro"`
	Number            string          `json:"numero"`
	Complement        string          `json:"complemento"`
	District          string          `json:"bairro"`
	City              string          `json:"cidade"`
	MunicipalityID    int64           `json:"idMunicipio"`
	IBGECode          string          `json:"codigoIBGE"`
	State             StateField      `json:"estado"`
	Country           CountryField    `json:"pais"`
	PostalCode        string          `json:"cep"`
	Tags              []string        `json:"classificacoes"`
	ForCorrespondence bool            `json:"correspondencia"`
	Status            string          `json:"situacao"`
	LastModified      string          `json:"ultimaAlteracao"`
	Raw               json.RawMessage `json:"-"`
}

// RepresentativeRecord is a party's representative as reported by the
// court system
type RepresentativeRecord struct {
	PersonID  int64           `json:"idPessoa"`
	Name      string          `json:"nome"`
	Document  string          `json:"documento"`
	OABNumber string          `json:"numeroOAB"`
	OABState  string          `json:"ufOAB"`
	OABStatus string          `json:"situacaoOAB"`
	TypeCode  string          `json:"tipoRepresentante"`
	Emails    []string        `json:"emails"`
	Phones    []string        `json:"telefones"`
	Address   *AddressRecord  `json:"endereco"`
	Raw       json.RawMessage `json:"-"`
}

// PartyRecord is one participant of a case as scraped from the court
// system. Immutable input to the pipeline.
type PartyRecord struct {
	ExternalID      int64                  `json:"idParte"`
	PersonID        int64                  `json:"idPessoa"`
	Name            string                 `json:"nome"`
	Document        string                 `json:"documento"`
	DocumentKind    string                 `json:"tipoDocumento"`
	TypeCode        string                 `json:"tipoParte"`
	Pole            string                 `json:"polo"`
	Principal       bool                   `json:"principal"`
	Emails          []string               `json:"emails"`
	Phones          []string               `json:"telefones"`
	Extra           map[string]interface{} `json:"dadosExtras"`
	Representatives []RepresentativeRecord `json:"representantes"`
	Address         *AddressRecord         `json:"endereco"`
	Raw             json.RawMessage        `json:"-"`
}

// CaseDescriptor identifies the case a capture run operates on
type CaseDescriptor struct {
	CaseID         int64  `json:"caso_id"`
	ExternalCaseID int64  `json:"id_processo_externo"`
	CaseNumber     string `json:"numero_processo"`
	CourtCode      string `json:"tribunal"`
	Instance       string `json:"instancia"`
}

// AttorneyIdentity is the attorney on whose behalf the capture runs
type AttorneyIdentity struct {
	ID       int64  `json:"id"`
	Document string `json:"documento"`
}

// PartyError records one party's failure inside the capture loop
type PartyError struct {
	Index         int    `json:"indice"`
	PartyID       int64  `json:"id_parte"`
	PartyName     string `json:"nome_parte"`
	PartyTypeCode string `json:"tipo_parte"`
	Err           string `json:"erro"`
}

// CaptureResult summarizes one case's capture run
type CaptureResult struct {
	CaseID          int64         `json:"caso_id"`
	CaseNumber      string        `json:"numero_processo"`
	TotalParties    int           `json:"total_partes"`
	Clients         int           `json:"clientes"`
	OpposingParties int           `json:"partes_contrarias"`
	ThirdParties    int           `json:"terceiros"`
	Representatives int           `json:"representantes"`
	RepErrors       int           `json:"erros_representantes"`
	Links           int           `json:"vinculos"`
	Errors          []PartyError  `json:"erros"`
	Elapsed         time.Duration `json:"duracao_ns"`

	// RawParties carries the unprocessed payload of each fetched party,
	// in fetch order, for the raw capture log
	RawParties []json.RawMessage `json:"-"`
}
