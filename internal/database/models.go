package database

import (
	"time"

	"gorm.io/gorm"
)

// Job statuses
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// Cliente is a party classified as a client of the capturing firm,
// keyed by the court system's person identifier
type Cliente struct {
	gorm.Model
	IDPessoaProcesso int64  `json:"id_pessoa_processo" gorm:"uniqueIndex"`
	Nome             string `json:"nome"`
	TipoPessoa       string `json:"tipo_pessoa"`
	CPF              string `json:"cpf"`
	CNPJ             string `json:"cnpj"`
	CasoID           int64  `json:"caso_id" gorm:"index"`
	NumeroProcesso   string `json:"numero_processo"`
	Tribunal         string `json:"tribunal"`
	Instancia        string `json:"instancia"`
	Emails           string `json:"emails"`
	Telefone1        string `json:"telefone1"`
	Telefone2        string `json:"telefone2"`
	EnderecoID       *uint  `json:"endereco_id"`
	DadosOriginais   string `json:"dados_originais" gorm:"type:text"`
}

// ParteContraria is a party classified as opposing the capturing firm
type ParteContraria struct {
	gorm.Model
	IDPessoaProcesso int64  `json:"id_pessoa_processo" gorm:"uniqueIndex"`
	Nome             string `json:"nome"`
	TipoPessoa       string `json:"tipo_pessoa"`
	CPF              string `json:"cpf"`
	CNPJ             string `json:"cnpj"`
	CasoID           int64  `json:"caso_id" gorm:"index"`
	NumeroProcesso   string `json:"numero_processo"`
	Tribunal         string `json:"tribunal"`
	Instancia        string `json:"instancia"`
	Emails           string `json:"emails"`
	Telefone1        string `json:"telefone1"`
	Telefone2        string `json:"telefone2"`
	EnderecoID       *uint  `json:"endereco_id"`
	DadosOriginais   string `json:"dados_originais" gorm:"type:text"`
}

// Terceiro is an auxiliary participant (expert, prosecutor, witness, ...)
type Terceiro struct {
	gorm.Model
	IDPessoaProcesso int64  `json:"id_pessoa_processo" gorm:"uniqueIndex"`
	Nome             string `json:"nome"`
	TipoPessoa       string `json:"tipo_pessoa"`
	CPF              string `json:"cpf"`
	CNPJ             string `json:"cnpj"`
	CasoID           int64  `json:"caso_id" gorm:"index"`
	NumeroProcesso   string `json:"numero_processo"`
	Tribunal         string `json:"tribunal"`
	Instancia        string `json:"instancia"`
	Emails           string `json:"emails"`
	Telefone1        string `json:"telefone1"`
	Telefone2        string `json:"telefone2"`
	EnderecoID       *uint  `json:"endereco_id"`
	DadosOriginais   string `json:"dados_originais" gorm:"type:text"`
}

// Representante is a party's representative. The same person may represent
// different parties across cases, so the upsert key is scoped by role,
// owning entity and case number.
type Representante struct {
	gorm.Model
	IDPessoaProcesso  int64  `json:"id_pessoa_processo" gorm:"uniqueIndex:idx_representantes_escopo"`
	TipoEntidade      string `json:"tipo_entidade" gorm:"uniqueIndex:idx_representantes_escopo"`
	EntidadeID        uint   `json:"entidade_id" gorm:"uniqueIndex:idx_representantes_escopo"`
	NumeroProcesso    string `json:"numero_processo" gorm:"uniqueIndex:idx_representantes_escopo"`
	Nome              string `json:"nome"`
	CPF               string `json:"cpf"`
	OABNumero         string `json:"oab_numero"`
	OABUF             string `json:"oab_uf" gorm:"column:oab_uf"`
	OABSituacao       string `json:"oab_situacao"`
	TipoRepresentante string `json:"tipo_representante"`
	Emails            string `json:"emails"`
	Telefone1         string `json:"telefone1"`
	Telefone2         string `json:"telefone2"`
	EnderecoID        *uint  `json:"endereco_id"`
	DadosOriginais    string `json:"dados_originais" gorm:"type:text"`
}

// Endereco is an address keyed by the court system's address identifier
type Endereco struct {
	gorm.Model
	IDEnderecoExterno int64  `json:"id_endereco_externo" gorm:"uniqueIndex"`
	Logradouro        string `json:"logradouro"`
	Numero            string `json:"numero"`
	Complemento       string `json:"complemento"`
	Bairro            string `json:"bairro"`
	Cidade            string `json:"cidade"`
	IDMunicipio       int64  `json:"id_municipio"`
	CodigoIBGE        string `json:"codigo_ibge"`
	Estado            string `json:"estado"`
	Pais              string `json:"pais"`
	CEP               string `json:"cep"`
	Correspondencia   bool   `json:"correspondencia"`
	Situacao          string `json:"situacao"`
	DadosOriginais    string `json:"dados_originais" gorm:"type:text"`
}

// CasoParte links a classified entity to a case. The (case, entity type,
// entity) triple is unique so re-captures never multiply link rows.
type CasoParte struct {
	gorm.Model
	CasoID         int64  `json:"caso_id" gorm:"uniqueIndex:idx_caso_partes_vinculo"`
	TipoEntidade   string `json:"tipo_entidade" gorm:"uniqueIndex:idx_caso_partes_vinculo"`
	EntidadeID     uint   `json:"entidade_id" gorm:"uniqueIndex:idx_caso_partes_vinculo"`
	Polo           string `json:"polo"`
	TipoParte      string `json:"tipo_parte"`
	Principal      bool   `json:"principal"`
	Ordem          int    `json:"ordem"`
	DadosOriginais string `json:"dados_originais" gorm:"type:text"`
}

// CapturaJob is the structured log record of one capture run. It is created
// at job start and mutated exactly once at job end to a terminal status.
type CapturaJob struct {
	gorm.Model
	TipoCaptura    string     `json:"tipo_captura"`
	AdvogadoID     int64      `json:"advogado_id" gorm:"index"`
	CredenciaisIDs string     `json:"credenciais_ids"`
	Status         string     `json:"status"`
	Resultado      string     `json:"resultado" gorm:"type:text"`
	Erro           string     `json:"erro"`
	IniciadoEm     time.Time  `json:"iniciado_em"`
	FinalizadoEm   *time.Time `json:"finalizado_em"`
}

func (Cliente) TableName() string {
	return "clientes"
}

func (ParteContraria) TableName() string {
	return "partes_contrarias"
}

func (Terceiro) TableName() string {
	return "terceiros"
}

func (Representante) TableName() string {
	return "representantes"
}

func (Endereco) TableName() string {
	return "enderecos"
}

func (CasoParte) TableName() string {
	return "caso_partes"
}

func (CapturaJob) TableName() string {
	return "captura_jobs"
}
