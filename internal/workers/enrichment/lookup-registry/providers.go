package lookupregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	httpclient "franchise-onboarding/internal/common/http"
	"franchise-onboarding/internal/common/normalize"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUpstreamFailure = errors.New("upstream failure")
)

// Provider looks up one kind of registry value. digits is already
// normalized and of the expected length.
type Provider interface {
	Type() string
	Length() int
	Lookup(ctx context.Context, digits string) (interface{}, error)
}

// ============
// CPF
// ============

type personProvider struct {
	cfg    PersonRegistryConfig
	client *httpclient.Client
}

func (p *personProvider) Type() string { return TypeCPF }
func (p *personProvider) Length() int  { return normalize.TaxIDLength }

// Stubbed reports whether lookups return the configured stub person.
func (p *personProvider) Stubbed() bool { return p.cfg.APIKey == "" }

func (p *personProvider) Lookup(ctx context.Context, digits string) (interface{}, error) {
	if p.Stubbed() {
		return Person{Name: p.cfg.StubName, BirthDate: p.cfg.StubBirthDate}, nil
	}

	var body struct {
		Nome       string `json:"nome"`
		Nascimento string `json:"nascimento"`
	}
	url := strings.TrimRight(p.cfg.BaseURL, "/") + "/v2/cpf/" + digits
	if err := getJSON(ctx, p.client, url, map[string]string{"Authorization": "Bearer " + p.cfg.APIKey}, &body); err != nil {
		return nil, err
	}
	return Person{Name: body.Nome, BirthDate: normalize.BirthDate(body.Nascimento)}, nil
}

// ============
// CNPJ
// ============

type companyProvider struct {
	baseURL string
	client  *httpclient.Client
}

func (p *companyProvider) Type() string { return TypeCNPJ }
func (p *companyProvider) Length() int  { return normalize.RegistryIDLength }

func (p *companyProvider) Lookup(ctx context.Context, digits string) (interface{}, error) {
	var body struct {
		NomeFantasia string `json:"nome_fantasia"`
		RazaoSocial  string `json:"razao_social"`
		Logradouro   string `json:"logradouro"`
		Numero       string `json:"numero"`
		Complemento  string `json:"complemento"`
		Bairro       string `json:"bairro"`
		CEP          string `json:"cep"`
		Municipio    string `json:"municipio"`
		UF           string `json:"uf"`
	}
	url := strings.TrimRight(p.baseURL, "/") + "/api/cnpj/v1/" + digits
	if err := getJSON(ctx, p.client, url, nil, &body); err != nil {
		return nil, err
	}

	display := body.NomeFantasia
	if display == "" {
		display = body.RazaoSocial
	}
	return Company{
		DisplayName:  display,
		LegalName:    body.RazaoSocial,
		Street:       body.Logradouro,
		Number:       body.Numero,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		PostalCode:   normalize.PostalCode(body.CEP),
		City:         body.Municipio,
		Region:       normalize.UF(body.UF),
	}, nil
}

// ============
// CEP
// ============

type addressProvider struct {
	baseURL string
	client  *httpclient.Client
}

func (p *addressProvider) Type() string { return TypeCEP }
func (p *addressProvider) Length() int  { return normalize.PostalCodeLength }

func (p *addressProvider) Lookup(ctx context.Context, digits string) (interface{}, error) {
	var body struct {
		Erro        interface{} `json:"erro"`
		Logradouro  string      `json:"logradouro"`
		Complemento string      `json:"complemento"`
		Bairro      string      `json:"bairro"`
		Localidade  string      `json:"localidade"`
		UF          string      `json:"uf"`
		CEP         string      `json:"cep"`
	}
	url := strings.TrimRight(p.baseURL, "/") + "/ws/" + digits + "/json/"
	if err := getJSON(ctx, p.client, url, nil, &body); err != nil {
		return nil, err
	}
	// ViaCEP answers 200 with {"erro": true} (or "true") for unknown codes.
	if body.Erro != nil && fmt.Sprint(body.Erro) != "false" {
		return nil, ErrNotFound
	}

	return Address{
		Street:       body.Logradouro,
		Complement:   body.Complemento,
		Neighborhood: body.Bairro,
		City:         body.Localidade,
		Region:       normalize.UF(body.UF),
		PostalCode:   normalize.PostalCode(body.CEP),
	}, nil
}

func getJSON(ctx context.Context, client *httpclient.Client, url string, headers map[string]string, dst interface{}) error {
	resp, err := client.DoWithRetry(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		return req, nil
	})
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: status %d: %s", ErrUpstreamFailure, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", ErrUpstreamFailure, err)
	}
	return nil
}
