package risk

import "github.com/shopspring/decimal"

// Each factor maps an input attribute to a 0-100 sub-score through fixed
// thresholds; higher means riskier. The thresholds are deliberately simple
// step functions so scores are explainable factor by factor.

func scoreAge(age int) float64 {
	switch {
	case age < 21:
		return 80
	case age < 25:
		return 60
	case age < 35:
		return 40
	case age < 65:
		return 20
	default:
		return 40
	}
}

func scoreCreditScore(score int) float64 {
	switch {
	case score < 500:
		return 95
	case score < 580:
		return 75
	case score < 670:
		return 55
	case score < 740:
		return 30
	default:
		return 10
	}
}

func scoreEmploymentStability(years float64) float64 {
	switch {
	case years < 1:
		return 70
	case years < 3:
		return 50
	case years < 5:
		return 30
	default:
		return 15
	}
}

func scoreIncome(annual decimal.Decimal) float64 {
	switch {
	case annual.LessThan(decimal.NewFromInt(20000)):
		return 70
	case annual.LessThan(decimal.NewFromInt(40000)):
		return 50
	case annual.LessThan(decimal.NewFromInt(80000)):
		return 30
	default:
		return 15
	}
}

func scoreAddressTenure(years float64) float64 {
	switch {
	case years < 1:
		return 60
	case years < 3:
		return 40
	default:
		return 20
	}
}

func scoreDelinquencies(count int) float64 {
	switch {
	case count == 0:
		return 10
	case count == 1:
		return 40
	case count == 2:
		return 60
	default:
		return 95
	}
}

func scoreBankingTenure(years float64) float64 {
	switch {
	case years < 1:
		return 60
	case years < 5:
		return 35
	default:
		return 15
	}
}

func scoreKYC(verified bool) float64 {
	if verified {
		return 0
	}
	return 100
}

func scoreAccountType(accountType string) float64 {
	switch accountType {
	case "savings":
		return 20
	case "checking":
		return 35
	case "business":
		return 50
	default:
		return 45
	}
}

func scoreAccountAge(months int) float64 {
	switch {
	case months < 3:
		return 70
	case months < 12:
		return 45
	default:
		return 20
	}
}

func scoreVolatility(v float64) float64 {
	s := v * 100
	if s > 100 {
		return 100
	}
	if s < 0 {
		return 0
	}
	return s
}

func scoreOverdraftUsage(count int) float64 {
	switch {
	case count == 0:
		return 10
	case count < 3:
		return 40
	case count < 6:
		return 65
	default:
		return 90
	}
}

func scoreAmountRatio(amount, average decimal.Decimal) float64 {
	if average.IsZero() {
		if amount.IsZero() {
			return 10
		}
		// No history to compare against.
		return 50
	}
	ratio := amount.Div(average)
	switch {
	case ratio.LessThanOrEqual(decimal.NewFromInt(1)):
		return 10
	case ratio.LessThanOrEqual(decimal.NewFromInt(2)):
		return 30
	case ratio.LessThanOrEqual(decimal.NewFromInt(5)):
		return 60
	default:
		return 90
	}
}

func scoreTransactionType(txType string) float64 {
	switch txType {
	case "DEPOSIT", "INTEREST", "REFUND":
		return 10
	case "PAYMENT", "CHARGE":
		return 30
	case "REVERSAL":
		return 40
	case "WITHDRAWAL":
		return 45
	case "TRANSFER":
		return 60
	default:
		return 50
	}
}

func scoreRecipientNovelty(newRecipient bool) float64 {
	if newRecipient {
		return 70
	}
	return 15
}
