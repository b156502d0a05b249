package risk

import "github.com/shopspring/decimal"

// CustomerData holds the attributes scored for a customer entity.
type CustomerData struct {
	Age              int
	CreditScore      int
	EmploymentYears  float64
	AnnualIncome     decimal.Decimal
	YearsAtAddress   float64
	DelinquencyCount int
	BankingYears     float64
	KYCVerified      bool
}

// AccountData holds the attributes scored for an account entity.
// CustomerScore is the upstream customer assessment blended in as one of
// the account's factors.
type AccountData struct {
	AccountType    string
	AgeMonths      int
	Volatility     float64 // 0..1, balance swing relative to average balance
	OverdraftCount int     // overdraft events in the lookback period
	CustomerScore  float64
}

// TransactionData holds the attributes scored for a transaction entity.
type TransactionData struct {
	Amount        decimal.Decimal
	AverageAmount decimal.Decimal
	Type          string
	NewRecipient  bool
}

// Factor names, also used as weight keys in configuration.
const (
	FactorAge                 = "age"
	FactorCreditScore         = "credit_score"
	FactorEmploymentStability = "employment_stability"
	FactorIncome              = "income"
	FactorAddressTenure       = "address_tenure"
	FactorDelinquencies       = "delinquencies"
	FactorBankingTenure       = "banking_tenure"
	FactorKYCStatus           = "kyc_status"

	FactorAccountType      = "account_type"
	FactorAccountAge       = "account_age"
	FactorVolatility       = "volatility"
	FactorOverdraftUsage   = "overdraft_usage"
	FactorCustomerStanding = "customer_standing"

	FactorAmountRatio      = "amount_ratio"
	FactorTransactionType  = "transaction_type"
	FactorRecipientNovelty = "recipient_novelty"
)
