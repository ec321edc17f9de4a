package domain

import (
	"regexp"
	"strings"
)

var cnpjPattern = regexp.MustCompile(`^\d{2}\.\d{3}\.\d{3}/\d{4}-\d{2}$`)

// Partner is the organization that publishes events and owns their spots.
type Partner struct {
	partnerID PartnerID
	name      string
	cnpj      string
	email     string
}

// NewPartner creates a Partner with a fresh identity.
func NewPartner(name, cnpj, email string) (*Partner, error) {
	return newPartner(NewPartnerID(), name, cnpj, email)
}

// RestorePartner rehydrates a Partner from persisted state.
func RestorePartner(id, name, cnpj, email string) (*Partner, error) {
	partnerID, err := ParsePartnerID(id)
	if err != nil {
		return nil, err
	}
	return newPartner(partnerID, name, cnpj, email)
}

func newPartner(id PartnerID, name, cnpj, email string) (*Partner, error) {
	if strings.TrimSpace(name) == "" {
		return nil, invalidField("name", "Partner")
	}
	if !cnpjPattern.MatchString(cnpj) {
		return nil, invalidField("cnpj", "Partner")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalidField("email", "Partner")
	}
	return &Partner{partnerID: id, name: name, cnpj: cnpj, email: email}, nil
}

func (p *Partner) PartnerID() PartnerID { return p.partnerID }
func (p *Partner) Name() string         { return p.name }
func (p *Partner) CNPJ() string         { return p.cnpj }
func (p *Partner) Email() string        { return p.email }
