package contract

// MintableToken is an Ownable ERC-20 with an owner-only mint and a
// once-per-address public mint of one whole token.
//
// Function selectors (beyond ERC-20):
//
//	mint(a,u256)         → 0x40c10f19
//	owner()              → 0x8da5cb5b
//	transferOwnership(a) → 0xf2fde38b
//	renounceOwnership()  → 0x715018a6
func init() {
	RegisterBuiltin(BuiltinKind{
		ID:          KindMintableToken,
		Name:        "MintableToken (Ownable ERC-20 + public mint)",
		Description: "ERC-20 with owner-only mint and a one-time public mint per address. Deployed via `w3bond token deploy`.",
		ABI:         mintableTokenABI,
	})
}

var mintableTokenABI = concat(erc20Reads, []ABIEntry{
	{
		Name: "owner", Type: "function",
		Outputs:         []ABIParam{{Type: "address"}},
		StateMutability: "view",
	},
	{
		Name: "claimed", Type: "function",
		Inputs:          []ABIParam{{Name: "account", Type: "address"}},
		Outputs:         []ABIParam{{Type: "bool"}},
		StateMutability: "view",
	},
}, erc20Writes, []ABIEntry{
	{
		Name: "mint", Type: "function",
		Inputs:          []ABIParam{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "publicMint", Type: "function",
		StateMutability: "nonpayable",
	},
	{
		Name: "transferOwnership", Type: "function",
		Inputs:          []ABIParam{{Name: "newOwner", Type: "address"}},
		StateMutability: "nonpayable",
	},
	{
		Name: "renounceOwnership", Type: "function",
		StateMutability: "nonpayable",
	},
}, erc20Events, []ABIEntry{
	{
		Name: "OwnershipTransferred", Type: "event",
		Inputs: []ABIParam{
			{Name: "previousOwner", Type: "address", Indexed: true},
			{Name: "newOwner", Type: "address", Indexed: true},
		},
	},
}, erc20Writes, erc20Events)
