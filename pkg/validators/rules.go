package validators

import (
	"fmt"
	"math"
	"strings"
)

// Cross-field rule ids.
const (
	RuleLiquidWithinNetWorth   = "liquid_le_net_worth"
	RuleBeneficiaryAllocation  = "beneficiary_allocation_sum"
	RuleObjectiveRanksDistinct = "objective_ranks_distinct"
	RuleInvestmentPurpose      = "investment_purpose_selected"
	RuleAssetsHeldAway         = "assets_held_away_components"
	RuleSpousePhone            = "spouse_phone"
	RuleBeneficiarySSN         = "beneficiary_ssn"
)

// Field names the built-in rules read.
const (
	FieldNetWorth          = "est_net_worth"
	FieldLiquidNetWorth    = "est_liquid_net_worth"
	FieldBeneficiaries     = "beneficiaries"
	FieldAllocation        = "allocation"
	FieldSSN               = "ssn"
	FieldAssetsHeldAway    = "assets_held_away"
	FieldHeldAwayLiquid    = "assets_held_away_liquid"
	FieldHeldAwayBrokerage = "assets_held_away_brokerage"
	FieldNoSpouse          = "no_spouse"
	FieldSpousePhone       = "spouse_phone"
)

// ObjectiveRankFields are the investment objective rank inputs.
var ObjectiveRankFields = []string{
	"rank_trading_profits",
	"rank_speculation",
	"rank_capital_appreciation",
	"rank_income",
	"rank_preservation",
}

// InvestmentPurposeFields are the investment purpose checkboxes.
var InvestmentPurposeFields = []string{
	"inv_purpose_income",
	"inv_purpose_growth_income",
	"inv_purpose_cap_app",
	"inv_purpose_speculation",
}

func (r *Registry) registerRules() {
	r.RegisterRule(Rule{
		ID:     RuleLiquidWithinNetWorth,
		Label:  "Liquid net worth cannot exceed net worth",
		Fields: []string{FieldNetWorth, FieldLiquidNetWorth},
	}, Func(checkLiquidWithinNetWorth))

	r.RegisterRule(Rule{
		ID:     RuleBeneficiaryAllocation,
		Label:  "Beneficiary allocations must total 100%",
		Fields: []string{FieldBeneficiaries},
	}, Func(checkBeneficiaryAllocation))

	r.RegisterRule(Rule{
		ID:     RuleObjectiveRanksDistinct,
		Label:  "Investment objective ranks must be distinct",
		Fields: ObjectiveRankFields,
	}, Func(checkRanksDistinct))

	r.RegisterRule(Rule{
		ID:     RuleInvestmentPurpose,
		Label:  "Select at least one investment purpose",
		Fields: InvestmentPurposeFields,
	}, Func(checkInvestmentPurpose))

	r.RegisterRule(Rule{
		ID:     RuleAssetsHeldAway,
		Label:  "Assets held away breakdown cannot exceed the total",
		Fields: []string{FieldHeldAwayLiquid, FieldHeldAwayBrokerage},
	}, Func(checkAssetsHeldAway))

	r.RegisterRule(Rule{
		ID:     RuleSpousePhone,
		Label:  "Spouse phone number",
		Fields: []string{FieldSpousePhone},
	}, Func(checkSpousePhone))

	r.RegisterRule(Rule{
		ID:     RuleBeneficiarySSN,
		Label:  "Beneficiary SSN",
		Fields: []string{FieldBeneficiaries},
	}, Func(checkBeneficiarySSN))
}

func text(form Form, name string) string {
	if form == nil {
		return ""
	}
	value, _ := form.Get(name)
	return strings.TrimSpace(value.Text())
}

func flag(form Form, name string) bool {
	if form == nil {
		return false
	}
	value, _ := form.Get(name)
	return value.Bool()
}

// Unparsable amounts are left to their field validators.
func checkLiquidWithinNetWorth(_ string, form Form) error {
	net, err := ParseUSD(text(form, FieldNetWorth))
	if err != nil {
		return nil
	}
	liquid, err := ParseUSD(text(form, FieldLiquidNetWorth))
	if err != nil {
		return nil
	}
	if liquid > net {
		return invalid("liquid net worth %s exceeds net worth %s", FormatUSD(liquid), FormatUSD(net))
	}
	return nil
}

func checkBeneficiaryAllocation(_ string, form Form) error {
	if form == nil {
		return nil
	}
	items := form.Items(FieldBeneficiaries)
	withData := 0
	var total float64
	for idx, item := range items {
		if !item.HasData() {
			continue
		}
		withData++
		raw := strings.TrimSpace(item.Value(FieldAllocation).Text())
		if raw == "" {
			continue
		}
		pct, err := ParsePercent(raw)
		if err != nil {
			return invalid("beneficiary %d allocation: %v", idx+1, err)
		}
		total += pct
	}
	if withData == 0 {
		return nil
	}
	if math.Abs(total-100) > 0.005 {
		return invalid("allocations total %s", FormatPercent(total))
	}
	return nil
}

func checkRanksDistinct(_ string, form Form) error {
	seen := make(map[string]string, len(ObjectiveRankFields))
	for _, name := range ObjectiveRankFields {
		rank := text(form, name)
		if rank == "" {
			continue
		}
		if prev, dup := seen[rank]; dup {
			return invalid("rank %s used by %s and %s", rank, prev, name)
		}
		seen[rank] = name
	}
	return nil
}

func checkInvestmentPurpose(_ string, form Form) error {
	for _, name := range InvestmentPurposeFields {
		if flag(form, name) {
			return nil
		}
	}
	return invalid("no investment purpose selected")
}

func checkAssetsHeldAway(_ string, form Form) error {
	total, err := ParseUSD(text(form, FieldAssetsHeldAway))
	if err != nil {
		return nil
	}
	for _, name := range []string{FieldHeldAwayLiquid, FieldHeldAwayBrokerage} {
		part, err := ParseUSD(text(form, name))
		if err != nil {
			continue
		}
		if part > total {
			return invalid("%s %s exceeds total %s", name, FormatUSD(part), FormatUSD(total))
		}
	}
	return nil
}

func checkSpousePhone(_ string, form Form) error {
	if flag(form, FieldNoSpouse) {
		return nil
	}
	phone := text(form, FieldSpousePhone)
	if phone == "" {
		return nil
	}
	return matchPattern(phonePattern, phone, "expected a US phone number")
}

func checkBeneficiarySSN(_ string, form Form) error {
	if form == nil {
		return nil
	}
	for idx, item := range form.Items(FieldBeneficiaries) {
		ssn := strings.TrimSpace(item.Value(FieldSSN).Text())
		if ssn == "" {
			continue
		}
		if !ssnPattern.MatchString(ssn) {
			return fmt.Errorf("%w: beneficiary %d SSN must be XXX-XX-XXXX", ErrInvalid, idx+1)
		}
	}
	return nil
}
