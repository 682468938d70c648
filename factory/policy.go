/*
Package factory provides JSON to Go policy conversion.

PURPOSE:
  Converts JSON policy definitions into leave.PolicyConfig snapshots.
  This enables policy configuration without code changes - HR can define
  quotas, accrual rates, and LOP caps in JSON, and the factory creates
  the proper Go structs.

WHY JSON?
  - Non-developers can modify policies
  - Easy integration with admin UI
  - Version control for policy definitions
  - Database storage of policy configs

JSON SCHEMA:
  {
    "leave_quotas": {
      "regular": {"sick": 12, "casual": 12, "vacation": 15, "academic": 10, "comp_off": 10}
    },
    "accrual_rates": {
      "regular": {"sick": 1, "casual": 1, "vacation": 1.25}
    },
    "settings": {
      "max_lop_days_yearly": 10,
      "max_lop_days_per_month": 3,
      "carry_forward_cap": 10,
      "advance_notice_days": {"casual": 3, "vacation": 7},
      "sick_same_day_cutoff": "10:00",
      "lop_reset_period": "yearly",
      "restrict_leave_after_max_lop": true,
      "academic": {
        "require_documents": true,
        "max_documents": 3,
        "min_advance_notice_days": 7,
        "max_consecutive_days": 10,
        "min_reason_length": 20
      }
    }
  }

KEY FEATURES:
  - Validates JSON structure and value ranges
  - Missing sections fall back to the built-in defaults
  - Round-trips: ToJSON produces a document ParseConfig accepts

USAGE:
  cfg, err := factory.LoadConfigFile("./config/policy.json")
  if err != nil {
      log.Fatal(err)
  }
  svc := leave.NewService(store, cfg, cal)

SEE ALSO:
  - leave/config.go: PolicyConfig type definition and defaults
  - cmd/server/main.go: Loads the policy file at startup
*/
package factory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/leave-ledger/leave"
)

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// ConfigJSON is the JSON representation of a policy snapshot.
type ConfigJSON struct {
	LeaveQuotas  map[string]BucketsJSON `json:"leave_quotas,omitempty"`
	AccrualRates map[string]BucketsJSON `json:"accrual_rates,omitempty"`
	Settings     *SettingsJSON          `json:"settings,omitempty"`
}

// BucketsJSON maps to leave.Balances. Omitted buckets read as zero.
type BucketsJSON struct {
	Sick     float64 `json:"sick,omitempty"`
	Casual   float64 `json:"casual,omitempty"`
	Vacation float64 `json:"vacation,omitempty"`
	Academic float64 `json:"academic,omitempty"`
	CompOff  float64 `json:"comp_off,omitempty"`
}

// SettingsJSON maps to leave.SystemSettings.
type SettingsJSON struct {
	MaxLOPDaysYearly         *float64        `json:"max_lop_days_yearly,omitempty"`
	MaxLOPDaysPerMonth       *float64        `json:"max_lop_days_per_month,omitempty"`
	CarryForwardCap          *float64        `json:"carry_forward_cap,omitempty"`
	AdvanceNoticeDays        map[string]int  `json:"advance_notice_days,omitempty"`
	SickSameDayCutoff        string          `json:"sick_same_day_cutoff,omitempty"`
	LOPResetPeriod           string          `json:"lop_reset_period,omitempty"`
	RestrictLeaveAfterMaxLOP *bool           `json:"restrict_leave_after_max_lop,omitempty"`
	Academic                 *AcademicJSON   `json:"academic,omitempty"`
}

// AcademicJSON maps to leave.AcademicLeaveSettings.
type AcademicJSON struct {
	RequireDocuments     bool `json:"require_documents"`
	MaxDocuments         int  `json:"max_documents"`
	MinAdvanceNoticeDays int  `json:"min_advance_notice_days"`
	MaxConsecutiveDays   int  `json:"max_consecutive_days"`
	MinReasonLength      int  `json:"min_reason_length"`
}

// =============================================================================
// PARSING
// =============================================================================

// LoadConfigFile reads a JSON policy file from disk.
func LoadConfigFile(path string) (leave.PolicyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return leave.PolicyConfig{}, fmt.Errorf("failed to read policy file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses a JSON document into a PolicyConfig. Sections the
// document omits keep the built-in defaults.
func ParseConfig(data []byte) (leave.PolicyConfig, error) {
	var cj ConfigJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return leave.PolicyConfig{}, fmt.Errorf("failed to parse policy JSON: %w", err)
	}
	return FromJSON(cj)
}

// FromJSON converts ConfigJSON to leave.PolicyConfig, starting from the
// defaults and overlaying what the document provides.
func FromJSON(cj ConfigJSON) (leave.PolicyConfig, error) {
	cfg := leave.DefaultPolicy()

	if len(cj.LeaveQuotas) > 0 {
		cfg.LeaveQuotas = make(map[leave.EmploymentType]leave.Balances, len(cj.LeaveQuotas))
		for et, b := range cj.LeaveQuotas {
			t, err := parseEmploymentType(et)
			if err != nil {
				return leave.PolicyConfig{}, err
			}
			cfg.LeaveQuotas[t] = parseBuckets(b)
		}
	}

	if len(cj.AccrualRates) > 0 {
		cfg.AccrualRates = make(map[leave.EmploymentType]leave.Balances, len(cj.AccrualRates))
		for et, b := range cj.AccrualRates {
			t, err := parseEmploymentType(et)
			if err != nil {
				return leave.PolicyConfig{}, err
			}
			cfg.AccrualRates[t] = parseBuckets(b)
		}
	}

	if cj.Settings != nil {
		if err := applySettings(&cfg.Settings, *cj.Settings); err != nil {
			return leave.PolicyConfig{}, err
		}
	}

	return cfg, nil
}

func applySettings(s *leave.SystemSettings, sj SettingsJSON) error {
	if sj.MaxLOPDaysYearly != nil {
		s.MaxLOPDaysYearly = decimal.NewFromFloat(*sj.MaxLOPDaysYearly)
	}
	if sj.MaxLOPDaysPerMonth != nil {
		s.MaxLOPDaysPerMonth = decimal.NewFromFloat(*sj.MaxLOPDaysPerMonth)
	}
	if sj.CarryForwardCap != nil {
		s.CarryForwardCap = decimal.NewFromFloat(*sj.CarryForwardCap)
	}

	if len(sj.AdvanceNoticeDays) > 0 {
		s.AdvanceNoticeDays = make(map[leave.LeaveType]int, len(sj.AdvanceNoticeDays))
		for lt, days := range sj.AdvanceNoticeDays {
			t := leave.LeaveType(lt)
			if !t.Valid() {
				return fmt.Errorf("unknown leave type in advance_notice_days: %q", lt)
			}
			if days < 0 {
				return fmt.Errorf("advance notice for %s must not be negative", lt)
			}
			s.AdvanceNoticeDays[t] = days
		}
	}

	if sj.SickSameDayCutoff != "" {
		if _, err := time.Parse("15:04", sj.SickSameDayCutoff); err != nil {
			return fmt.Errorf("invalid sick_same_day_cutoff %q: want HH:MM", sj.SickSameDayCutoff)
		}
		s.SickSameDayCutoff = sj.SickSameDayCutoff
	}

	switch sj.LOPResetPeriod {
	case "":
		// keep default
	case string(leave.ResetMonthly):
		s.LOPResetPeriod = leave.ResetMonthly
	case string(leave.ResetYearly):
		s.LOPResetPeriod = leave.ResetYearly
	default:
		return fmt.Errorf("unknown lop_reset_period: %q", sj.LOPResetPeriod)
	}

	if sj.RestrictLeaveAfterMaxLOP != nil {
		s.RestrictLeaveAfterMaxLOP = *sj.RestrictLeaveAfterMaxLOP
	}

	if sj.Academic != nil {
		s.Academic = leave.AcademicLeaveSettings{
			RequireDocuments:     sj.Academic.RequireDocuments,
			MaxDocuments:         sj.Academic.MaxDocuments,
			MinAdvanceNoticeDays: sj.Academic.MinAdvanceNoticeDays,
			MaxConsecutiveDays:   sj.Academic.MaxConsecutiveDays,
			MinReasonLength:      sj.Academic.MinReasonLength,
		}
	}

	return nil
}

func parseEmploymentType(s string) (leave.EmploymentType, error) {
	switch s {
	case string(leave.EmploymentRegular):
		return leave.EmploymentRegular, nil
	case string(leave.EmploymentIntern):
		return leave.EmploymentIntern, nil
	default:
		return "", fmt.Errorf("unknown employment type: %q", s)
	}
}

func parseBuckets(b BucketsJSON) leave.Balances {
	return leave.Balances{
		Sick:     decimal.NewFromFloat(b.Sick),
		Casual:   decimal.NewFromFloat(b.Casual),
		Vacation: decimal.NewFromFloat(b.Vacation),
		Academic: decimal.NewFromFloat(b.Academic),
		CompOff:  decimal.NewFromFloat(b.CompOff),
	}
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToJSON converts a PolicyConfig back to its JSON form. Useful for
// exposing the effective policy over the API.
func ToJSON(cfg leave.PolicyConfig) ConfigJSON {
	cj := ConfigJSON{
		LeaveQuotas:  make(map[string]BucketsJSON, len(cfg.LeaveQuotas)),
		AccrualRates: make(map[string]BucketsJSON, len(cfg.AccrualRates)),
	}
	for et, b := range cfg.LeaveQuotas {
		cj.LeaveQuotas[string(et)] = bucketsJSON(b)
	}
	for et, b := range cfg.AccrualRates {
		cj.AccrualRates[string(et)] = bucketsJSON(b)
	}

	s := cfg.Settings
	yearly, _ := s.MaxLOPDaysYearly.Float64()
	monthly, _ := s.MaxLOPDaysPerMonth.Float64()
	carry, _ := s.CarryForwardCap.Float64()
	restrict := s.RestrictLeaveAfterMaxLOP

	notice := make(map[string]int, len(s.AdvanceNoticeDays))
	for lt, days := range s.AdvanceNoticeDays {
		notice[string(lt)] = days
	}

	cj.Settings = &SettingsJSON{
		MaxLOPDaysYearly:         &yearly,
		MaxLOPDaysPerMonth:       &monthly,
		CarryForwardCap:          &carry,
		AdvanceNoticeDays:        notice,
		SickSameDayCutoff:        s.SickSameDayCutoff,
		LOPResetPeriod:           string(s.LOPResetPeriod),
		RestrictLeaveAfterMaxLOP: &restrict,
		Academic: &AcademicJSON{
			RequireDocuments:     s.Academic.RequireDocuments,
			MaxDocuments:         s.Academic.MaxDocuments,
			MinAdvanceNoticeDays: s.Academic.MinAdvanceNoticeDays,
			MaxConsecutiveDays:   s.Academic.MaxConsecutiveDays,
			MinReasonLength:      s.Academic.MinReasonLength,
		},
	}
	return cj
}

func bucketsJSON(b leave.Balances) BucketsJSON {
	sick, _ := b.Sick.Float64()
	casual, _ := b.Casual.Float64()
	vacation, _ := b.Vacation.Float64()
	academic, _ := b.Academic.Float64()
	compOff, _ := b.CompOff.Float64()
	return BucketsJSON{Sick: sick, Casual: casual, Vacation: vacation, Academic: academic, CompOff: compOff}
}
