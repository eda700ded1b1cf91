package solana

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// Transaction represents a fully decoded Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata, including the token balance
// snapshots taken before and after execution and any inner instructions
// triggered by program invocation.
type TransactionMeta struct {
	Err               interface{}
	LogMessages       []string
	PreTokenBalances  []TokenBalance
	PostTokenBalances []TokenBalance
	InnerInstructions []InnerInstructionSet
}

// TransactionMessage contains the parsed transaction message.
type TransactionMessage struct {
	AccountKeys  []string
	Instructions []Instruction
}

// TokenBalance is one entry of preTokenBalances/postTokenBalances. The
// AccountIndex refers into the message's AccountKeys. Amount is the raw
// base-unit integer as a decimal string.
type TokenBalance struct {
	AccountIndex int
	Mint         string
	Owner        string // empty if the RPC node did not resolve it
	Amount       string
	Decimals     int
}

// InnerInstructionSet groups the inner instructions triggered by the
// top-level instruction at Index.
type InnerInstructionSet struct {
	Index        int
	Instructions []Instruction
}

// Instruction is one parsed instruction. Program and Type are empty for
// instructions the RPC node could not decode.
type Instruction struct {
	Program   string
	ProgramID string
	Type      string
	Info      InstructionInfo
}

// InstructionInfo carries the decoded arguments of a parsed instruction.
// Only the fields relevant to token movement are retained; which fields are
// populated depends on the instruction type.
type InstructionInfo struct {
	Source        string
	Destination   string
	Authority     string
	MintAuthority string // mintTo / mintToChecked
	Account       string // mintTo destination
	Mint          string
	Amount        string
	TokenAmount   *UITokenAmount // transferChecked / mintToChecked
}

// UITokenAmount is the RPC representation of a token quantity.
type UITokenAmount struct {
	Amount   string
	Decimals int
}

// AccountInfo represents Solana account information.
type AccountInfo struct {
	Lamports   uint64
	Owner      string
	Data       string // base64 encoded
	Executable bool
	RentEpoch  uint64
}
