// Package settings resolves the business rates that admins may override at runtime.
package settings

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rentease/rentease-backend/pkg/config"
	"github.com/rentease/rentease-backend/pkg/db/models"
	pkgerrors "github.com/rentease/rentease-backend/pkg/errors"
)

const (
	KeyTaxRate          = "tax_rate"
	KeySecurityDeposit  = "security_deposit"
	KeyLateFeeDailyRate = "late_fee_daily_rate"
)

var hundred = decimal.NewFromInt(100)

// Rates are the effective amounts used by checkout, fulfillment and billing.
type Rates struct {
	TaxRate          decimal.Decimal `json:"tax_rate"`
	SecurityDeposit  decimal.Decimal `json:"security_deposit"`
	LateFeeDailyRate decimal.Decimal `json:"late_fee_daily_rate"`
}

// Setting is the API shape of one key.
type Setting struct {
	Key         string `json:"key"`
	Value       string `json:"value"`
	Description string `json:"description,omitempty"`
}

// PutRequest updates one key.
type PutRequest struct {
	Key         string `json:"key" validate:"required"`
	Value       string `json:"value" validate:"required"`
	Description string `json:"description,omitempty" validate:"max=255"`
}

// Service reads and writes settings.
type Service interface {
	Rates(ctx context.Context) (Rates, error)
	List(ctx context.Context) ([]Setting, error)
	Put(ctx context.Context, req PutRequest) (*Setting, error)
}

type service struct {
	repo     *Repository
	defaults Rates
}

// NewService builds the settings service with config defaults as fallback.
func NewService(repo *Repository, cfg config.RentalConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settings repository required")
	}
	return &service{
		repo: repo,
		defaults: Rates{
			TaxRate:          cfg.TaxRate,
			SecurityDeposit:  cfg.SecurityDeposit,
			LateFeeDailyRate: cfg.LateFeeDailyRate,
		},
	}, nil
}

// Rates overlays stored values on the defaults. Unparseable rows are ignored.
func (s *service) Rates(ctx context.Context) (Rates, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return Rates{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	rates := s.defaults
	for _, row := range rows {
		value, err := decimal.NewFromString(strings.TrimSpace(row.Value))
		if err != nil || value.IsNegative() {
			continue
		}
		switch row.Key {
		case KeyTaxRate:
			rates.TaxRate = value
		case KeySecurityDeposit:
			rates.SecurityDeposit = value
		case KeyLateFeeDailyRate:
			rates.LateFeeDailyRate = value
		}
	}
	return rates, nil
}

func (s *service) List(ctx context.Context) ([]Setting, error) {
	rows, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load settings")
	}
	byKey := map[string]Setting{
		KeyTaxRate:          {Key: KeyTaxRate, Value: s.defaults.TaxRate.StringFixed(2)},
		KeySecurityDeposit:  {Key: KeySecurityDeposit, Value: s.defaults.SecurityDeposit.StringFixed(2)},
		KeyLateFeeDailyRate: {Key: KeyLateFeeDailyRate, Value: s.defaults.LateFeeDailyRate.StringFixed(2)},
	}
	for _, row := range rows {
		byKey[row.Key] = Setting{Key: row.Key, Value: row.Value, Description: row.Description}
	}
	out := make([]Setting, 0, len(byKey))
	for _, setting := range byKey {
		out = append(out, setting)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (s *service) Put(ctx context.Context, req PutRequest) (*Setting, error) {
	key := strings.TrimSpace(req.Key)
	value, err := decimal.NewFromString(strings.TrimSpace(req.Value))
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must be a decimal number")
	}
	if value.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "value must not be negative")
	}
	switch key {
	case KeyTaxRate:
		if value.GreaterThan(hundred) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "tax_rate must be between 0 and 100")
		}
	case KeySecurityDeposit, KeyLateFeeDailyRate:
	default:
		return nil, pkgerrors.Newf(pkgerrors.CodeValidation, "unknown setting %q", key)
	}

	row := &models.SystemSetting{Key: key, Value: value.StringFixed(2), Description: req.Description}
	if err := s.repo.Upsert(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "save setting")
	}
	return &Setting{Key: row.Key, Value: row.Value, Description: row.Description}, nil
}
