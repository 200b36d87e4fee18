package patients

import (
	"context"
	"fmt"
)

// Sealer encrypts individual field values; *crypto.AEAD implements it.
type Sealer interface {
	Seal(plaintext string) (string, error)
	Open(value string) (string, error)
}

// SealedStore keeps clinical history and medications encrypted in the
// underlying store. Names stay in clear text so Search still works.
type SealedStore struct {
	Store  Store
	Sealer Sealer
}

func (s SealedStore) Search(ctx context.Context, query string) ([]Patient, error) {
	found, err := s.Store.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	for i := range found {
		if err := s.open(&found[i]); err != nil {
			return nil, err
		}
	}
	return found, nil
}

func (s SealedStore) Get(ctx context.Context, dni string) (Patient, error) {
	p, err := s.Store.Get(ctx, dni)
	if err != nil {
		return Patient{}, err
	}
	if err := s.open(&p); err != nil {
		return Patient{}, err
	}
	return p, nil
}

func (s SealedStore) Save(ctx context.Context, p Patient) (Patient, error) {
	var err error
	sealed := p
	if sealed.ClinicalHistory, err = s.Sealer.Seal(p.ClinicalHistory); err != nil {
		return Patient{}, fmt.Errorf("seal historial_clinico: %w", err)
	}
	if sealed.Medications, err = s.Sealer.Seal(p.Medications); err != nil {
		return Patient{}, fmt.Errorf("seal medicamentos: %w", err)
	}
	saved, err := s.Store.Save(ctx, sealed)
	if err != nil {
		return Patient{}, err
	}
	if err := s.open(&saved); err != nil {
		return Patient{}, err
	}
	return saved, nil
}

func (s SealedStore) open(p *Patient) error {
	var err error
	if p.ClinicalHistory, err = s.Sealer.Open(p.ClinicalHistory); err != nil {
		return fmt.Errorf("open historial_clinico of %s: %w", p.DNI, err)
	}
	if p.Medications, err = s.Sealer.Open(p.Medications); err != nil {
		return fmt.Errorf("open medicamentos of %s: %w", p.DNI, err)
	}
	return nil
}
