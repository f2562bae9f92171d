package capture

import (
	"errors"
	"strings"

	"github.com/brlegal/captura-partes/pkg/logger"
)

// ErrMissingAttorneyDocument indicates the caller never supplied the
// capturing attorney's document. This is a programmer error, not a data
// error: every other malformed input degrades to a role.
var ErrMissingAttorneyDocument = errors.New("attorney document is required for classification")

// TiposEspeciais is the closed set of auxiliary party-type codes that
// classify as terceiro regardless of representation. Codes are matched
// after normalization (upper case, spaces and underscores stripped).
type TiposEspeciais map[string]struct{}

// DefaultTiposEspeciais returns the auxiliary-role codes observed in the
// court system's payloads
func DefaultTiposEspeciais() TiposEspeciais {
	codes := []string{
		"PERITO",
		"PERITO JUDICIAL",
		"PERITO CONTADOR",
		"ASSISTENTE TECNICO",
		"MINISTERIO PUBLICO",
		"MINISTERIO PUBLICO FEDERAL",
		"MINISTERIO PUBLICO ESTADUAL",
		"FISCAL DA LEI",
		"CUSTOS LEGIS",
		"TESTEMUNHA",
		"ADMINISTRADOR JUDICIAL",
		"INVENTARIANTE",
		"TRADUTOR",
		"INTERPRETE",
		"CURADOR",
		"CURADOR ESPECIAL",
	}

	set := make(TiposEspeciais, len(codes))
	for _, code := range codes {
		set[normalizeTypeCode(code)] = struct{}{}
	}
	return set
}

// Contains reports whether the normalized form of code is in the set
func (t TiposEspeciais) Contains(code string) bool {
	_, ok := t[normalizeTypeCode(code)]
	return ok
}

// Classifier decides a party's role relative to the capturing firm
type Classifier struct {
	special TiposEspeciais
	logger  *logger.Logger
}

// NewClassifier creates a classifier with an explicit auxiliary-role set
func NewClassifier(special TiposEspeciais, log *logger.Logger) *Classifier {
	return &Classifier{special: special, logger: log}
}

// Classify returns exactly one role for the party. The decision is a pure
// function of the party-type code, the representatives' documents and the
// attorney's document: auxiliary type codes dominate and yield terceiro;
// otherwise a representative whose CPF equals the attorney's yields
// cliente; everything else is parte_contraria.
func (c *Classifier) Classify(party PartyRecord, attorney AttorneyIdentity) (Role, error) {
	if strings.TrimSpace(attorney.Document) == "" {
		return "", ErrMissingAttorneyDocument
	}

	if c.special.Contains(party.TypeCode) {
		c.logger.Info("Party has auxiliary type code",
			"party", party.Name,
			"type_code", party.TypeCode,
			"role", RoleTerceiro,
		)
		return RoleTerceiro, nil
	}

	attorneyDoc, ok := normalizeCPF(attorney.Document)
	if !ok {
		c.logger.Warn("Attorney document is not a usable CPF",
			"attorney_id", attorney.ID,
			"party", party.Name,
		)
		return RoleParteContraria, nil
	}

	for _, rep := range party.Representatives {
		repDoc, ok := normalizeCPF(rep.Document)
		if !ok {
			c.logger.Warn("Representative has missing or invalid document",
				"party", party.Name,
				"representative", rep.Name,
			)
			continue
		}

		if repDoc == attorneyDoc {
			c.logger.Info("Representative matches capturing attorney",
				"party", party.Name,
				"representative", rep.Name,
				"role", RoleCliente,
			)
			return RoleCliente, nil
		}

		c.logger.Debug("Representative does not match attorney",
			"party", party.Name,
			"representative", rep.Name,
		)
	}

	return RoleParteContraria, nil
}

// normalizeTypeCode upper-cases the code and strips spaces and underscores
func normalizeTypeCode(code string) string {
	code = strings.ToUpper(code)
	code = strings.ReplaceAll(code, "_", "")
	code = strings.ReplaceAll(code, " ", "")
	return code
}

// normalizeCPF strips non-digits and reports whether the result is a
// usable CPF: exactly 11 digits and not a repeated-digit sequence
func normalizeCPF(doc string) (string, bool) {
	var b strings.Builder
	for _, r := range doc {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}

	digits := b.String()
	if len(digits) != 11 {
		return "", false
	}

	repeated := true
	for i := 1; i < len(digits); i++ {
		if digits[i] != digits[0] {
			repeated = false
			break
		}
	}
	if repeated {
		return "", false
	}

	return digits, true
}
