package i18n

// Error codes must match the codes defined in internal/platform/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	codeInsufficientBalance      = "INSUFFICIENT_BALANCE"
	codeInsufficientAllowance    = "INSUFFICIENT_ALLOWANCE"
	codeAllowanceUnderflow       = "ALLOWANCE_UNDERFLOW"
	codeInvalidAmount            = "INVALID_AMOUNT"
	codeAmountOverflow           = "AMOUNT_OVERFLOW"
	codeNotOwner                 = "NOT_OWNER"
	codeNotCandidate             = "NOT_CANDIDATE"
	codeNoPendingClaim           = "NO_PENDING_CLAIM"
	codeNotMinter                = "NOT_MINTER"
	codeNotAuthority             = "NOT_AUTHORITY"
	codeNotHolder                = "NOT_HOLDER"
	codeContractPaused           = "CONTRACT_PAUSED"
	codeAlreadyInState           = "ALREADY_IN_STATE"
	codeLedgerDelegated          = "LEDGER_DELEGATED"
	codeLedgerHalted             = "LEDGER_HALTED"
	codeNotEligible              = "NOT_ELIGIBLE"
	codeSupplyCeilingExceeded    = "SUPPLY_CEILING_EXCEEDED"
	codeFeeExceedsAmount         = "FEE_EXCEEDS_AMOUNT"
	codeSuccessorNotApproved     = "SUCCESSOR_NOT_APPROVED"
	codePartialMigrationDisabled = "PARTIAL_MIGRATION_DISABLED"
	codeInvalidArgument          = "INVALID_ARGUMENT"
	codeUnauthenticated          = "UNAUTHENTICATED"
	codeNotFound                 = "NOT_FOUND"
)

var enUS = map[Code]string{
	codeInsufficientBalance:      "The account balance is too low for this operation.",
	codeInsufficientAllowance:    "The approved allowance is too low for this transfer.",
	codeAllowanceUnderflow:       "The allowance cannot be decreased below zero.",
	codeInvalidAmount:            "The amount must be greater than zero.",
	codeAmountOverflow:           "The amount exceeds the representable range.",
	codeNotOwner:                 "Only the ledger owner can perform this operation.",
	codeNotCandidate:             "Only the proposed owner can accept ownership.",
	codeNoPendingClaim:           "There is no pending ownership proposal.",
	codeNotMinter:                "Only a minter can issue new supply.",
	codeNotAuthority:             "Only the compliance authority can change account status.",
	codeNotHolder:                "Only the account holder or the owner can migrate this balance.",
	codeContractPaused:           "The ledger is paused.",
	codeAlreadyInState:           "The ledger is already {{.state}}.",
	codeLedgerDelegated:          "The ledger has been delegated to a successor; only migrations are accepted.",
	codeLedgerHalted:             "The ledger is unavailable after a storage fault.",
	codeNotEligible:              "The {{.side}} is not eligible to transfer.",
	codeSupplyCeilingExceeded:    "Minting this amount would exceed the supply ceiling.",
	codeFeeExceedsAmount:         "The fee is larger than the amount.",
	codeSuccessorNotApproved:     "The successor ledger has not been approved by the owner.",
	codePartialMigrationDisabled: "Only the full balance can be migrated.",
	codeInvalidArgument:          "The request is invalid.",
	codeUnauthenticated:          "The caller identity could not be verified.",
	codeNotFound:                 "The requested record was not found.",
}

var ptBR = map[Code]string{
	codeInsufficientBalance:      "O saldo da conta é insuficiente para esta operação.",
	codeInsufficientAllowance:    "A autorização aprovada é insuficiente para esta transferência.",
	codeAllowanceUnderflow:       "A autorização não pode ficar abaixo de zero.",
	codeInvalidAmount:            "O valor deve ser maior que zero.",
	codeAmountOverflow:           "O valor excede o intervalo representável.",
	codeNotOwner:                 "Somente o proprietário do livro pode executar esta operação.",
	codeNotCandidate:             "Somente o proprietário proposto pode aceitar a titularidade.",
	codeNoPendingClaim:           "Não há proposta de titularidade pendente.",
	codeNotMinter:                "Somente um emissor pode criar novo suprimento.",
	codeNotAuthority:             "Somente a autoridade de conformidade pode alterar o status da conta.",
	codeNotHolder:                "Somente o titular da conta ou o proprietário pode migrar este saldo.",
	codeContractPaused:           "O livro está pausado.",
	codeAlreadyInState:           "O livro já está {{.state}}.",
	codeLedgerDelegated:          "O livro foi delegado a um sucessor; apenas migrações são aceitas.",
	codeLedgerHalted:             "O livro está indisponível após uma falha de armazenamento.",
	codeNotEligible:              "O {{.side}} não está apto a transferir.",
	codeSupplyCeilingExceeded:    "Emitir este valor excederia o teto de suprimento.",
	codeFeeExceedsAmount:         "A taxa é maior que o valor.",
	codeSuccessorNotApproved:     "O livro sucessor não foi aprovado pelo proprietário.",
	codePartialMigrationDisabled: "Somente o saldo completo pode ser migrado.",
	codeInvalidArgument:          "A requisição é inválida.",
	codeUnauthenticated:          "A identidade do chamador não pôde ser verificada.",
	codeNotFound:                 "O registro solicitado não foi encontrado.",
}
