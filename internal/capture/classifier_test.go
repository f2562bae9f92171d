package capture

import (
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/brlegal/captura-partes/pkg/logger"
)

func newTestClassifier() *Classifier {
	return NewClassifier(DefaultTiposEspeciais(), logger.FromZap(zap.NewNop()))
}

func testAttorney() AttorneyIdentity {
	return AttorneyIdentity{ID: 10, Document: "529.982.247-25"}
}

func matchingRep() RepresentativeRecord {
	return RepresentativeRecord{
		PersonID:  2001,
		Name:      "Dr. Silva",
		Document:  "52998224725",
		OABNumber: "12345",
		OABState:  "RJ",
	}
}

func TestClassifyAuxiliaryTypeDominates(t *testing.T) {
	c := newTestClassifier()

	// Even a matching representative must not override the type code
	party := PartyRecord{
		PersonID:        1001,
		Name:            "Carlos Pereira",
		TypeCode:        "PERITO_JUDICIAL",
		Representatives: []RepresentativeRecord{matchingRep()},
	}

	role, err := c.Classify(party, testAttorney())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	if role != RoleTerceiro {
		t.Errorf("Classify() = %v, want %v", role, RoleTerceiro)
	}
}

func TestClassifyRepresentativeMatch(t *testing.T) {
	tests := []struct {
		name  string
		party PartyRecord
		want  Role
	}{
		{
			name: "Matching representative",
			party: PartyRecord{
				PersonID:        1001,
				Name:            "Maria Souza",
				TypeCode:        "AUTOR",
				Representatives: []RepresentativeRecord{matchingRep()},
			},
			want: RoleCliente,
		},
		{
			name: "Formatted document still matches",
			party: PartyRecord{
				PersonID: 1001,
				Name:     "Maria Souza",
				TypeCode: "AUTOR",
				Representatives: []RepresentativeRecord{
					{PersonID: 2001, Name: "Dr. Silva", Document: "529.982.247-25"},
				},
			},
			want: RoleCliente,
		},
		{
			name: "Non-matching representative",
			party: PartyRecord{
				PersonID: 1002,
				Name:     "Banco Alfa",
				TypeCode: "REU",
				Representatives: []RepresentativeRecord{
					{PersonID: 2002, Name: "Dra. Costa", Document: "11144477735"},
				},
			},
			want: RoleParteContraria,
		},
		{
			name: "No representatives",
			party: PartyRecord{
				PersonID: 1003,
				Name:     "Jose Lima",
				TypeCode: "REU",
			},
			want: RoleParteContraria,
		},
		{
			name: "Invalid representative document is skipped",
			party: PartyRecord{
				PersonID: 1004,
				Name:     "Ana Dias",
				TypeCode: "AUTOR",
				Representatives: []RepresentativeRecord{
					{PersonID: 2003, Name: "Sem Documento"},
					matchingRep(),
				},
			},
			want: RoleCliente,
		},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, err := c.Classify(tt.party, testAttorney())
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if role != tt.want {
				t.Errorf("Classify() = %v, want %v", role, tt.want)
			}
		})
	}
}

func TestClassifyInvalidAttorneyDocument(t *testing.T) {
	tests := []struct {
		name     string
		document string
	}{
		{name: "Too short", document: "1234"},
		{name: "Repeated digits", document: "111.111.111-11"},
		{name: "Too long", document: "123456789012345"},
	}

	c := newTestClassifier()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Representative document equals the attorney's raw digits; an
			// invalid attorney document must still fall through
			party := PartyRecord{
				PersonID: 1001,
				Name:     "Maria Souza",
				TypeCode: "AUTOR",
				Representatives: []RepresentativeRecord{
					{PersonID: 2001, Name: "Dr. Silva", Document: tt.document},
				},
			}

			role, err := c.Classify(party, AttorneyIdentity{ID: 10, Document: tt.document})
			if err != nil {
				t.Fatalf("Classify() error = %v", err)
			}
			if role != RoleParteContraria {
				t.Errorf("Classify() = %v, want %v", role, RoleParteContraria)
			}
		})
	}
}

func TestClassifyMissingAttorneyDocument(t *testing.T) {
	c := newTestClassifier()

	_, err := c.Classify(PartyRecord{Name: "Qualquer"}, AttorneyIdentity{ID: 10})
	if !errors.Is(err, ErrMissingAttorneyDocument) {
		t.Errorf("Classify() error = %v, want %v", err, ErrMissingAttorneyDocument)
	}
}

func TestClassifyIsPure(t *testing.T) {
	c := newTestClassifier()
	party := PartyRecord{
		PersonID:        1001,
		Name:            "Maria Souza",
		TypeCode:        "AUTOR",
		Representatives: []RepresentativeRecord{matchingRep()},
	}

	first, err := c.Classify(party, testAttorney())
	if err != nil {
		t.Fatalf("Classify() error = %v", err)
	}
	for i := 0; i < 10; i++ {
		role, err := c.Classify(party, testAttorney())
		if err != nil {
			t.Fatalf("Classify() error = %v", err)
		}
		if role != first {
			t.Fatalf("Classify() call %d = %v, want %v", i, role, first)
		}
	}
}

func TestTiposEspeciaisNormalization(t *testing.T) {
	set := DefaultTiposEspeciais()

	tests := []struct {
		code string
		want bool
	}{
		{code: "PERITO JUDICIAL", want: true},
		{code: "perito_judicial", want: true},
		{code: "Perito Judicial", want: true},
		{code: "MINISTERIO_PUBLICO", want: true},
		{code: "testemunha", want: true},
		{code: "AUTOR", want: false},
		{code: "REU", want: false},
	}

	for _, tt := range tests {
		if got := set.Contains(tt.code); got != tt.want {
			t.Errorf("Contains(%q) = %v, want %v", tt.code, got, tt.want)
		}
	}
}

func TestNormalizeCPF(t *testing.T) {
	tests := []struct {
		input string
		want  string
		valid bool
	}{
		{input: "529.982.247-25", want: "52998224725", valid: true},
		{input: "52998224725", want: "52998224725", valid: true},
		{input: "111.111.111-11", valid: false},
		{input: "1234", valid: false},
		{input: "", valid: false},
		{input: "abc", valid: false},
		{input: "12.345.678/0001-95", valid: false},
	}

	for _, tt := range tests {
		got, ok := normalizeCPF(tt.input)
		if ok != tt.valid {
			t.Errorf("normalizeCPF(%q) valid = %v, want %v", tt.input, ok, tt.valid)
			continue
		}
		if tt.valid && got != tt.want {
			t.Errorf("normalizeCPF(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
