package dftx

import (
	"bytes"
	"encoding/hex"
	"reflect"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/dfinet/dfitx/domain/hashes"
	"github.com/pkg/errors"
)

func testHash(b byte) hashes.Hash {
	var hash hashes.Hash
	for i := range hash {
		hash[i] = b + byte(i)
	}
	return hash
}

func testScript(b byte) []byte {
	return append([]byte{0x00, 0x14}, bytes.Repeat([]byte{b}, 20)...)
}

func testInstructions() []Instruction {
	var operator [PubKeyHashSize]byte
	copy(operator[:], bytes.Repeat([]byte{0x3c}, PubKeyHashSize))

	swap := PoolSwap{
		From:       testScript(0x01),
		FromToken:  0,
		FromAmount: 1000000000,
		To:         testScript(0x02),
		ToToken:    300,
		MaxPrice:   MaxPrice{Integer: 9223372036854775807, Fraction: 9223372036854775807},
	}
	loanToken := LoanToken{
		Symbol:       "TSLA",
		Name:         "Tesla stock token",
		CurrencyPair: CurrencyPair{Token: "TSLA", Currency: "USD"},
		Mintable:     true,
		Interest:     150000000,
	}
	oracle := OracleDefinition{
		Script:    testScript(0x07),
		Weightage: 100,
		PriceFeeds: []CurrencyPair{
			{Token: "TSLA", Currency: "USD"},
			{Token: "DFI", Currency: "USD"},
		},
	}
	proposal := Proposal{
		ProposalType: ProposalTypeCommunityFund,
		Address:      testScript(0x08),
		Amount:       100000000000,
		Title:        "Fund the wallet",
		Context:      "https://example.org/proposals/1",
		ContextHash:  "abcdef",
		Cycles:       2,
		Options:      0,
	}

	return []Instruction{
		&CreateMasternode{OperatorType: OperatorTypeWitnessPubKeyHash, OperatorPubKeyHash: operator},
		&CreateMasternode{OperatorType: OperatorTypePubKeyHash, OperatorPubKeyHash: operator,
			Timelock: MasternodeTimelockTenYear},
		&ResignMasternode{NodeID: testHash(0x10)},
		&UpdateMasternode{NodeID: testHash(0x11), Updates: []MasternodeUpdate{
			{UpdateType: MasternodeUpdateOwnerAddress},
			{UpdateType: MasternodeUpdateOperatorAddress, AddressType: OperatorTypeWitnessPubKeyHash,
				Address: bytes.Repeat([]byte{0x44}, 20)},
		}},
		&CreateToken{TokenDefinition{Symbol: "GOLD", Name: "Gold", Decimal: 8, Limit: 0,
			Flags: TokenFlagDefault}},
		&UpdateTokenAny{CreationTx: testHash(0x12), TokenDefinition: TokenDefinition{Symbol: "GOLD",
			Name: "Shiny gold", Decimal: 8, Limit: 100, Flags: TokenFlagTradeable}},
		&MintToken{Balances: []TokenAmount{{Token: 128, Amount: 5000}, {Token: 129, Amount: 1}}},
		&CreatePoolPair{TokenA: 0, TokenB: 128, Commission: 2000000, OwnerAddress: testScript(0x03),
			Status: true, PairSymbol: "DFI-GOLD"},
		&CreatePoolPair{TokenA: 1, TokenB: 70000, Commission: 0, OwnerAddress: testScript(0x03),
			PairSymbol: "BTC-X", CustomRewards: []TokenAmount{{Token: 0, Amount: 7}}},
		&UpdatePoolPair{PoolID: 5, Status: 1, Commission: 3000000, OwnerAddress: testScript(0x04)},
		&UpdatePoolPair{PoolID: 6, OwnerAddress: testScript(0x04),
			CustomRewards: []TokenAmount{{Token: 2, Amount: 9}}},
		&swap,
		&CompositeSwap{PoolSwap: swap, Pools: []uint32{4, 70000}},
		&AddPoolLiquidity{From: []ScriptBalances{{Script: testScript(0x05),
			Balances: []TokenAmount{{Token: 0, Amount: 100}, {Token: 128, Amount: 200}}}},
			ShareAddress: testScript(0x05)},
		&RemovePoolLiquidity{Script: testScript(0x05), Amount: VarTokenAmount{Token: 3, Amount: 50}},
		&UtxosToAccount{To: []ScriptBalances{{Script: testScript(0x06),
			Balances: []TokenAmount{{Token: 0, Amount: 1000000000}}}}},
		&AccountToUtxos{From: testScript(0x06), Balances: []TokenAmount{{Token: 0, Amount: 500}},
			MintingOutputsStart: 2},
		&AccountToAccount{From: testScript(0x06), To: []ScriptBalances{
			{Script: testScript(0x07), Balances: []TokenAmount{{Token: 0, Amount: 1}}},
			{Script: testScript(0x08), Balances: []TokenAmount{{Token: 1, Amount: 2}}},
		}},
		&AnyAccountToAccount{
			From: []ScriptBalances{{Script: testScript(0x06), Balances: []TokenAmount{{Token: 0, Amount: 3}}}},
			To:   []ScriptBalances{{Script: testScript(0x07), Balances: []TokenAmount{{Token: 0, Amount: 3}}}},
		},
		&SetGovernance{Variables: []GovernanceVariable{
			&LPDailyDFIReward{Amount: 1440000000000},
			&LPSplits{Splits: []PoolSplit{{PoolID: 1, Percent: 70000000}, {PoolID: 2, Percent: 30000000}}},
			&OracleDeviation{Deviation: 5000000},
		}},
		&AppointOracle{oracle},
		&RemoveOracle{OracleID: testHash(0x13)},
		&UpdateOracle{OracleID: testHash(0x14), OracleDefinition: oracle},
		&SetOracleData{OracleID: testHash(0x15), Timestamp: 1631234567, TokenPrices: []TokenPrice{
			{Token: "TSLA", Prices: []CurrencyAmount{{Currency: "USD", Amount: 72000000000}}},
			{Token: "DFI", Prices: []CurrencyAmount{{Currency: "USD", Amount: 350000000},
				{Currency: "EUR", Amount: 300000000}}},
		}},
		&SetCollateralToken{Token: 0, Factor: 100000000,
			CurrencyPair: CurrencyPair{Token: "DFI", Currency: "USD"}, ActivateAfterBlock: 1200},
		&SetLoanToken{loanToken},
		&UpdateLoanToken{LoanToken: loanToken, TokenTx: testHash(0x16)},
		&SetLoanScheme{Ratio: 150, Rate: 500000000, Identifier: "MIN150", Update: 0},
		&SetDefaultLoanScheme{Identifier: "MIN150"},
		&DestroyLoanScheme{Identifier: "MIN150", Height: 2000},
		&CreateVault{OwnerAddress: testScript(0x09), SchemeID: "MIN150"},
		&CreateVault{OwnerAddress: testScript(0x09)},
		&UpdateVault{VaultID: testHash(0x17), OwnerAddress: testScript(0x0a), SchemeID: "MIN200"},
		&DepositToVault{VaultID: testHash(0x18), From: testScript(0x0b),
			Amount: VarTokenAmount{Token: 0, Amount: 1000}},
		&WithdrawFromVault{VaultID: testHash(0x19), To: testScript(0x0c),
			Amount: VarTokenAmount{Token: 1, Amount: 999}},
		&CloseVault{VaultID: testHash(0x1a), To: testScript(0x0d)},
		&TakeLoan{VaultID: testHash(0x1b), To: testScript(0x0e),
			Balances: []TokenAmount{{Token: 15, Amount: 100}}},
		&TakeLoan{VaultID: testHash(0x1b), Balances: []TokenAmount{{Token: 15, Amount: 100}}},
		&PaybackLoan{VaultID: testHash(0x1c), From: testScript(0x0f),
			Balances: []TokenAmount{{Token: 15, Amount: 101}}},
		&PlaceAuctionBid{VaultID: testHash(0x1d), Index: 2, From: testScript(0x10),
			Amount: VarTokenAmount{Token: 15, Amount: 2000}},
		&CreateCfp{proposal},
		&CreateVoc{Proposal{ProposalType: ProposalTypeVoteOfConfidence, Title: "Confidence",
			Context: "ctx", Cycles: 1}},
		&Vote{ProposalID: testHash(0x1e), MasternodeID: testHash(0x1f), Decision: VoteYes},
		&AutoAuthPrep{},
	}
}

func TestInstructionRoundTrip(t *testing.T) {
	seen := make(map[Type]bool)
	for _, instruction := range testInstructions() {
		seen[instruction.Type()] = true

		encoded, err := Encode(instruction)
		if err != nil {
			t.Fatalf("%s: Encode: %v", instruction.Type(), err)
		}
		if Type(encoded[0]) != instruction.Type() {
			t.Errorf("%s: encoded selector 0x%02x", instruction.Type(), encoded[0])
		}

		decoded, err := Decode(encoded)
		if err != nil {
			t.Fatalf("%s: Decode(%x): %v", instruction.Type(), encoded, err)
		}
		if !reflect.DeepEqual(decoded, instruction) {
			t.Errorf("%s: round trip mismatch - got %v, want %v", instruction.Type(),
				spew.Sdump(decoded), spew.Sdump(instruction))
		}

		withMagic, err := EncodeWithMagic(instruction)
		if err != nil {
			t.Fatalf("%s: EncodeWithMagic: %v", instruction.Type(), err)
		}
		if !bytes.Equal(withMagic, append([]byte("DfTx"), encoded...)) {
			t.Errorf("%s: EncodeWithMagic does not prefix the envelope marker", instruction.Type())
		}
		fromEnvelope, err := DecodeWithMagic(withMagic)
		if err != nil || !reflect.DeepEqual(fromEnvelope, instruction) {
			t.Errorf("%s: DecodeWithMagic: %v", instruction.Type(), err)
		}

		// Every strict prefix of a fixed-layout instruction is truncated.
		if instruction.Type() == TypeCreateMasternode || instruction.Type() == TypeCreatePoolPair ||
			instruction.Type() == TypeUpdatePoolPair || instruction.Type() == TypeSetGovernance ||
			instruction.Type() == TypeAutoAuthPrep {
			continue
		}
		for cut := 1; cut < len(encoded); cut++ {
			_, err := Decode(encoded[:cut])
			if !errors.Is(err, ErrMalformedInstruction) {
				t.Fatalf("%s: Decode of %d/%d bytes: expected ErrMalformedInstruction, got %v",
					instruction.Type(), cut, len(encoded), err)
			}
		}
	}

	if len(seen) != len(registry) {
		t.Errorf("round trip covers %d of %d instruction kinds", len(seen), len(registry))
	}
}

func TestSelectorsAreUnique(t *testing.T) {
	if len(registry) != 39 {
		t.Errorf("expected 39 registered instruction kinds, got %d", len(registry))
	}
	for typ, newInstruction := range registry {
		if newInstruction().Type() != typ {
			t.Errorf("registry entry %s constructs %s", typ, newInstruction().Type())
		}
		if _, ok := typeNames[typ]; !ok {
			t.Errorf("selector 0x%02x has no name", byte(typ))
		}
	}
}

func TestEncodeKnownLayouts(t *testing.T) {
	script := testScript(0xaa)
	tests := []struct {
		name        string
		instruction Instruction
		expected    string
	}{
		{
			name: "utxos to account",
			instruction: &UtxosToAccount{To: []ScriptBalances{{Script: script,
				Balances: []TokenAmount{{Token: 0, Amount: 100000000}}}}},
			expected: "55" + "01" + "16" + hex.EncodeToString(script) + "01" + "00000000" + "00e1f50500000000",
		},
		{
			name:        "set default loan scheme",
			instruction: &SetDefaultLoanScheme{Identifier: "MIN150"},
			expected:    "64" + "06" + hex.EncodeToString([]byte("MIN150")),
		},
		{
			name:        "deposit to vault with a large token id",
			instruction: &DepositToVault{VaultID: hashes.Hash{0x01}, From: []byte{0x51}, Amount: VarTokenAmount{Token: 300, Amount: 1}},
			expected: "53" + "01" + "0000000000000000000000000000000000000000000000000000000000000000"[2:] +
				"0151" + "fd2c01" + "0100000000000000",
		},
		{
			name: "create masternode with timelock",
			instruction: &CreateMasternode{OperatorType: OperatorTypeWitnessPubKeyHash,
				Timelock: MasternodeTimelockFiveYear},
			expected: "43" + "04" + "0000000000000000000000000000000000000000" + "0401",
		},
		{
			name:        "auto auth prep",
			instruction: &AutoAuthPrep{},
			expected:    "41",
		},
	}

	for _, test := range tests {
		encoded, err := Encode(test.instruction)
		if err != nil {
			t.Fatalf("%s: Encode: %v", test.name, err)
		}
		if hex.EncodeToString(encoded) != test.expected {
			t.Errorf("%s: got %x, want %s", test.name, encoded, test.expected)
		}
	}
}

func TestDecodeErrors(t *testing.T) {
	valid, err := Encode(&ResignMasternode{NodeID: testHash(0x01)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	tests := []struct {
		name     string
		data     []byte
		expected error
	}{
		{name: "empty", data: nil, expected: ErrMalformedInstruction},
		{name: "unknown selector", data: []byte{0xff, 0x00}, expected: ErrUnsupportedInstruction},
		{name: "unknown printable selector", data: []byte{'Q'}, expected: ErrUnsupportedInstruction},
		{name: "truncated", data: valid[:10], expected: ErrMalformedInstruction},
		{name: "trailing bytes", data: append(append([]byte{}, valid...), 0x00), expected: ErrMalformedInstruction},
		{name: "invalid bool", data: mustEncodeWithBool(t, 0x02), expected: ErrMalformedInstruction},
		{name: "non-canonical count", data: []byte{byte(TypeMintToken), 0xfd, 0x01, 0x00}, expected: ErrMalformedInstruction},
		{name: "count beyond data", data: []byte{byte(TypeMintToken), 0xfe, 0xff, 0xff, 0xff, 0x0f}, expected: ErrMalformedInstruction},
		{name: "token id beyond 32 bits", data: []byte{byte(TypeSetCollateralToken),
			0xff, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00}, expected: ErrMalformedInstruction},
		{name: "unknown governance variable", data: append([]byte{byte(TypeSetGovernance), 0x03}, "FOO"...),
			expected: ErrMalformedInstruction},
	}

	for _, test := range tests {
		_, err := Decode(test.data)
		if !errors.Is(err, test.expected) {
			t.Errorf("%s: expected %v, got %v", test.name, test.expected, err)
		}
	}

	if _, err := DecodeWithMagic(valid); !errors.Is(err, ErrMalformedInstruction) {
		t.Errorf("DecodeWithMagic without marker: expected ErrMalformedInstruction, got %v", err)
	}
	if _, err := Encode(nil); !errors.Is(err, ErrUnsupportedInstruction) {
		t.Errorf("Encode(nil): expected ErrUnsupportedInstruction, got %v", err)
	}
}

// mustEncodeWithBool encodes a loan token whose mintable flag byte is
// replaced with flag.
func mustEncodeWithBool(t *testing.T, flag byte) []byte {
	encoded, err := Encode(&SetLoanToken{LoanToken{Symbol: "A", Name: "B",
		CurrencyPair: CurrencyPair{Token: "A", Currency: "USD"}, Mintable: true}})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	// selector, "A", "B", "A", "USD", then the flag.
	flagIndex := 1 + 2 + 2 + 2 + 4
	if encoded[flagIndex] != 0x01 {
		t.Fatalf("unexpected layout %x", encoded)
	}
	encoded[flagIndex] = flag
	return encoded
}

func TestTypeString(t *testing.T) {
	if TypeUtxosToAccount.String() != "UtxosToAccount" {
		t.Errorf("String: got %s", TypeUtxosToAccount)
	}
	if Type(0xff).String() != "Unknown(0xff)" {
		t.Errorf("String: got %s", Type(0xff))
	}
}
