package domain

const (
	RoleFamily    = "FAMILY"
	RoleCaregiver = "CAREGIVER"
	RoleAdmin     = "ADMIN"
)

const (
	UserStatusPending   = "PENDING"
	UserStatusActive    = "ACTIVE"
	UserStatusSuspended = "SUSPENDED"
)

// Contract state machine. DRAFT only exists before the insert commits;
// a created contract starts in PENDING_ACCEPTANCE.
const (
	ContractDraft             = "DRAFT"
	ContractPendingAcceptance = "PENDING_ACCEPTANCE"
	ContractPendingPayment    = "PENDING_PAYMENT"
	ContractActive            = "ACTIVE"
	ContractCompleted         = "COMPLETED"
	ContractCancelled         = "CANCELLED"
	ContractDisputed          = "DISPUTED"
)

const (
	EscrowHeld      = "HELD"
	EscrowReleased  = "RELEASED"
	EscrowCancelled = "CANCELLED"
)

const (
	PaymentPending   = "PENDING"
	PaymentCompleted = "COMPLETED"
	PaymentFailed    = "FAILED"
	PaymentRefunded  = "REFUNDED"
	PaymentExpired   = "EXPIRED"
	// REVIEW: the provider collected the money but the target could no
	// longer absorb it (e.g. the contract was cancelled before the
	// webhook landed). An admin refunds it manually.
	PaymentReview = "REVIEW"
)

const (
	PurposeActivation    = "ACTIVATION"
	PurposeTokenPurchase = "TOKEN_PURCHASE"
	PurposeContractFee   = "CONTRACT_FEE"
)

const (
	LedgerCredit = "CREDIT"
	LedgerDebit  = "DEBIT"
)

const (
	ReasonActivationBonus  = "ACTIVATION_BONUS"
	ReasonPurchase         = "PURCHASE"
	ReasonContractFee      = "CONTRACT_FEE"
	ReasonContractEarning  = "CONTRACT_EARNING"
	ReasonPlatformFee      = "PLATFORM_FEE"
	ReasonDisputeSettle    = "DISPUTE_SETTLEMENT"
	ReasonTipSent          = "TIP_SENT"
	ReasonTipReceived      = "TIP_RECEIVED"
	ReasonRefund           = "REFUND"
	ReasonAdjustment       = "ADJUSTMENT"
	ReasonWithdrawal       = "WITHDRAWAL"
	ReasonWithdrawalReturn = "WITHDRAWAL_RETURN"
)

const (
	DecisionFavorFamily    = "favor_family"
	DecisionFavorCaregiver = "favor_caregiver"
	DecisionSplit          = "split"
)

const (
	WithdrawalPending   = "PENDING"
	WithdrawalCompleted = "COMPLETED"
	WithdrawalFailed    = "FAILED"
)

const (
	KycPending  = "PENDING"
	KycVerified = "VERIFIED"
	KycDeclined = "DECLINED"
)

// SystemSetting keys. Money-moving operations read these at execution time.
const (
	SettingTokenRateCents       = "token_rate_cents"        // EUR cents per token
	SettingPlatformFeePercent   = "platform_fee_percent"    // fee on contract escrow
	SettingActivationFeeCents   = "activation_fee_cents"    // one-off account activation fee
	SettingActivationBonusToken = "activation_bonus_tokens" // tokens minted on activation
)

// Default setting values seeded at boot.
var DefaultSettings = map[string]string{
	SettingTokenRateCents:       "100",
	SettingPlatformFeePercent:   "15",
	SettingActivationFeeCents:   "2500",
	SettingActivationBonusToken: "25",
}

var CaregiverServiceTypes = []string{
	"COMPANIONSHIP", "PERSONAL_CARE", "MEAL_PREPARATION", "MEDICATION_REMINDERS",
	"MOBILITY_ASSISTANCE", "HOUSEKEEPING", "OVERNIGHT_CARE", "DEMENTIA_CARE",
}
